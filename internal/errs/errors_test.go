package errs

import (
	"errors"
	"testing"
)

func TestUpstreamKeepsSentinels(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream("balance for account 1", cause)
	if !errors.Is(err, ErrUpstream) || !errors.Is(err, cause) {
		t.Fatalf("expected upstream+cause, got %v", err)
	}
	nf := Upstream("statement 1", NotFound("statement"))
	if !errors.Is(nf, ErrNotFound) {
		t.Fatalf("expected not found to survive wrapping: %v", nf)
	}
	if errors.Is(nf, ErrUpstream) {
		t.Fatalf("not found must not be tagged upstream")
	}
	if Upstream("noop", nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestInvalidMessage(t *testing.T) {
	err := Invalid("month out of range")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid")
	}
	if err.Error() != "invalid: month out of range" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
