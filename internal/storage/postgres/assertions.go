package postgres

import (
	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/balance"
	"github.com/tinoosan/ledgerd/internal/outbox"
	"github.com/tinoosan/ledgerd/internal/reconciliation"
	"github.com/tinoosan/ledgerd/internal/report"
	"github.com/tinoosan/ledgerd/internal/service/account"
	"github.com/tinoosan/ledgerd/internal/service/journal"
	"github.com/tinoosan/ledgerd/internal/service/transaction"
	"github.com/tinoosan/ledgerd/internal/statement"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	// Service layer repos and writers
	_ account.Repo       = (*Store)(nil)
	_ account.Writer     = (*Store)(nil)
	_ journal.Repo       = (*Store)(nil)
	_ journal.Writer     = (*Store)(nil)
	_ transaction.Repo   = (*Store)(nil)
	_ transaction.Writer = (*Store)(nil)

	// Engines
	_ balance.Repo                = (*Store)(nil)
	_ reconciliation.Repo         = (*Store)(nil)
	_ reconciliation.RecordStore  = (*Store)(nil)
	_ report.AccountLister        = (*Store)(nil)
	_ statement.TransactionSource = (*Store)(nil)
	_ statement.Store             = (*Store)(nil)
	_ outbox.Store                = (*Store)(nil)
	_ audit.Store                 = (*Store)(nil)
)
