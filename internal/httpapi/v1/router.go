// Package v1 wires the HTTP surface of the ledger service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tinoosan/ledgerd/internal/service/account"
	"github.com/tinoosan/ledgerd/internal/service/journal"
	"github.com/tinoosan/ledgerd/internal/service/transaction"
)

// Deps lists what the API needs. Ready checks run on /readyz.
type Deps struct {
	Accounts       account.Service
	Journal        journal.Service
	Transactions   transaction.Service
	Balances       BalanceService
	Reconciliation ReconciliationService
	Reports        ReportService
	Statements     StatementService
	// Audit serves GET /v1/audit; nil answers 501.
	Audit          AuditService
	// Idempotency stores keyed POST responses; nil disables replay.
	Idempotency    IdempotencyStore
	Ready          []ReadyChecker
	Auth           AuthConfig
	CORSOrigins    []string
}

// Server wires handlers and middleware using Chi.
type Server struct {
	accountSvc account.Service
	journalSvc journal.Service
	txSvc      transaction.Service
	balances   BalanceService
	recon      ReconciliationService
	reports    ReportService
	statements StatementService
	audit      AuditService
	idem       IdempotencyStore
	ready      []ReadyChecker
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(d Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", idempotencyHeader},
		ExposedHeaders:   []string{"X-Request-Id", replayedHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{
		accountSvc: d.Accounts,
		journalSvc: d.Journal,
		txSvc:      d.Transactions,
		balances:   d.Balances,
		recon:      d.Reconciliation,
		reports:    d.Reports,
		statements: d.Statements,
		audit:      d.Audit,
		idem:       d.Idempotency,
		ready:      d.Ready,
		log:        logger,
		rt:         r,
	}
	s.routes(authJWT(d.Auth, logger))
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints. auth is nil when bearer
// tokens are not required.
func (s *Server) routes(auth func(http.Handler) http.Handler) {
	// Health and metrics (unversioned, never behind auth)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())

	s.rt.Route("/v1", func(r chi.Router) {
		r.Get("/dictionary/chart", s.getChartDictionary)

		r.Group(func(r chi.Router) {
			if auth != nil {
				r.Use(auth)
			}
			// Accounts
			r.Post("/accounts", s.postAccount)
			r.Get("/accounts", s.listAccounts)
			r.Get("/accounts/{id}", s.getAccount)
			r.Patch("/accounts/{id}", s.updateAccount)
			r.Delete("/accounts/{id}", s.deactivateAccount)

			// Balances
			r.Get("/accounts/{id}/balance", s.getAccountBalance)
			r.Get("/balances/by-type/{type}", s.getBalanceByType)

			// Entries
			r.With(s.idempotent("entries")).Post("/entries", s.postEntry)
			r.With(s.idempotent("journals")).Post("/journals", s.postJournal)
			r.Get("/entries", s.listEntries)
			r.Get("/entries/{id}", s.getEntry)
			r.Patch("/entries/{id}", s.updateEntry)
			r.Delete("/entries/{id}", s.deleteEntry)

			// Transactions
			r.Post("/transactions", s.postTransaction)
			r.Get("/transactions", s.listTransactions)
			r.Get("/transactions/{id}", s.getTransaction)
			r.Patch("/transactions/{id}/status", s.updateTransactionStatus)
			r.Put("/transactions/{id}/line", s.putTransactionLine)
			r.Get("/transactions/{id}/line", s.getTransactionLine)
			r.Delete("/transactions/{id}/line", s.deleteTransactionLine)

			// Reconciliation
			r.Post("/accounts/{id}/reconcile", s.reconcileAccount)
			r.Get("/accounts/{id}/unreconciled", s.listUnreconciled)
			r.Post("/transactions/{id}/reconcile", s.markReconciled)
			r.Get("/accounts/{id}/reconciliation-report", s.reconciliationReport)

			// Reports
			r.Get("/reports/trial-balance", s.trialBalance)
			r.Get("/reports/income-statement", s.incomeStatement)
			r.Get("/reports/balance-sheet", s.balanceSheet)
			r.Get("/reports/cash-flow", s.cashFlow)
			r.Post("/reports/custom", s.customReport)

			// Statements
			r.With(s.idempotent("account_statements")).Post("/accounts/{id}/statements", s.generateStatement(false))
			r.With(s.idempotent("space_statements")).Post("/account-spaces/{id}/statements", s.generateStatement(true))
			r.Get("/accounts/{id}/statements", s.listStatements(false))
			r.Get("/account-spaces/{id}/statements", s.listStatements(true))
			r.Get("/statements/{id}", s.getStatement)
			r.Get("/statements/{id}/details", s.getStatementDetails)

			// Audit
			r.Get("/audit", s.listAudit)
		})
	})
}
