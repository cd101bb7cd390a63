package dictionary

import (
	"testing"

	"github.com/tinoosan/ledgerd/internal/acctcode"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

func TestChartCodesAreValidAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Accounts() {
		if !acctcode.IsValid(a.Code) {
			t.Fatalf("invalid code %q", a.Code)
		}
		if seen[a.Code] {
			t.Fatalf("duplicate code %q", a.Code)
		}
		seen[a.Code] = true
		if a.CashEquivalent && a.Type != ledger.AccountTypeAsset {
			t.Fatalf("%s: only assets can be cash", a.Code)
		}
	}
}

func TestChartForType(t *testing.T) {
	typ := ledger.AccountTypeIncome
	got := ChartFor(&typ)
	if len(got) == 0 || len(got) >= len(ChartFor(nil)) {
		t.Fatalf("filter by type failed: %d of %d", len(got), len(ChartFor(nil)))
	}
	got[0].Name = "mutated"
	if ChartFor(&typ)[0].Name == "mutated" {
		t.Fatalf("ChartFor must return a copy")
	}
}
