package v1

import (
	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/balance"
	"github.com/tinoosan/ledgerd/internal/reconciliation"
	"github.com/tinoosan/ledgerd/internal/report"
	"github.com/tinoosan/ledgerd/internal/statement"
)

// Compile-time assertions that the engines satisfy the API's interfaces.
var (
	_ BalanceService        = (*balance.Service)(nil)
	_ ReconciliationService = (*reconciliation.Service)(nil)
	_ ReportService         = (*report.Service)(nil)
	_ StatementService      = (*statement.Service)(nil)
	_ AuditService          = (*audit.Log)(nil)
)
