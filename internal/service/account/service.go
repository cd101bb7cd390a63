// Package account implements the account service rules: unique normalised
// codes, a valid type, an existing parent and soft deletes.
package account

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/acctcode"
	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/meta"
)

type Repo interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	ListAccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	GetAccountByCode(ctx context.Context, code string) (ledger.Account, error)
}

type Writer interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
}

type Service interface {
	ValidateCreate(a ledger.Account) error
	Create(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Get(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	List(ctx context.Context, t *ledger.AccountType) ([]ledger.Account, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (ledger.Account, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	EnsureChart(ctx context.Context, defs []ledger.Account) ([]ledger.Account, error)
}

// Patch carries optional changes; nil fields are left alone. ClearParent
// removes the parent link.
type Patch struct {
	Code           *string
	Name           *string
	Type           *ledger.AccountType
	ParentID       *uuid.UUID
	ClearParent    bool
	Active         *bool
	CashEquivalent *bool
	Metadata       meta.Metadata
}

type service struct {
	repo   Repo
	writer Writer
	audit  audit.Recorder
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*service)

// WithAudit records account changes to r.
func WithAudit(r audit.Recorder) Option { return func(s *service) { s.audit = r } }

func New(repo Repo, writer Writer, log *slog.Logger, opts ...Option) Service {
	if log == nil {
		log = slog.Default()
	}
	s := &service{repo: repo, writer: writer, audit: audit.Nop, log: log, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

func normalize(a ledger.Account) ledger.Account {
	a.Code = acctcode.Normalize(a.Code)
	a.Name = strings.TrimSpace(a.Name)
	return a
}

func (s *service) ValidateCreate(a ledger.Account) error {
	a = normalize(a)
	if a.Name == "" {
		return errs.Invalid("name is required")
	}
	if !acctcode.IsValid(a.Code) {
		return errs.Invalid("code must match " + acctcode.Pattern)
	}
	if !a.Type.Valid() {
		return errs.Invalid("unknown account type " + string(a.Type))
	}
	if err := a.Metadata.Validate(); err != nil {
		return errs.Invalid(err.Error())
	}
	return nil
}

func (s *service) checkParent(ctx context.Context, self uuid.UUID, parent *uuid.UUID) error {
	if parent == nil {
		return nil
	}
	if *parent == self {
		return errs.Invalid("account cannot be its own parent")
	}
	if _, err := s.repo.GetAccount(ctx, *parent); err != nil {
		return errs.Upstream("parent account "+parent.String(), err)
	}
	return nil
}

func (s *service) Create(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	a = normalize(a)
	if err := s.ValidateCreate(a); err != nil {
		return ledger.Account{}, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if err := s.checkParent(ctx, a.ID, a.ParentID); err != nil {
		return ledger.Account{}, err
	}
	if _, err := s.repo.GetAccountByCode(ctx, a.Code); err == nil {
		return ledger.Account{}, errs.ErrConflict
	}
	now := s.now()
	a.Active = true
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Metadata == nil {
		a.Metadata = meta.Metadata{}
	}
	created, err := s.writer.CreateAccount(ctx, a)
	if err != nil {
		return ledger.Account{}, errs.Upstream("create account "+a.Code, err)
	}
	s.log.InfoContext(ctx, "account created", "account_id", created.ID, "code", created.Code, "type", created.Type)
	s.audit.Record(ctx, ledger.AuditAccount, created.ID, ledger.AuditCreate, map[string]string{"code": created.Code, "type": string(created.Type)})
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return ledger.Account{}, errs.Upstream("account "+id.String(), err)
	}
	return a, nil
}

// List returns every account, or only those of type t.
func (s *service) List(ctx context.Context, t *ledger.AccountType) ([]ledger.Account, error) {
	if t == nil {
		return s.repo.ListAccounts(ctx)
	}
	if !t.Valid() {
		return nil, errs.Invalid("unknown account type " + string(*t))
	}
	return s.repo.ListAccountsByType(ctx, *t)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, p Patch) (ledger.Account, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return ledger.Account{}, err
	}
	next := cur
	if p.Code != nil {
		next.Code = *p.Code
	}
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.ClearParent {
		next.ParentID = nil
	} else if p.ParentID != nil {
		pid := *p.ParentID
		next.ParentID = &pid
	}
	if p.Active != nil {
		next.Active = *p.Active
	}
	if p.CashEquivalent != nil {
		next.CashEquivalent = *p.CashEquivalent
	}
	if p.Metadata != nil {
		next.Metadata = cur.Metadata.Clone()
		next.Metadata.Merge(p.Metadata)
	}
	next = normalize(next)
	if err := s.ValidateCreate(next); err != nil {
		return ledger.Account{}, err
	}
	if err := s.checkParent(ctx, id, next.ParentID); err != nil {
		return ledger.Account{}, err
	}
	if next.Code != cur.Code {
		if other, err := s.repo.GetAccountByCode(ctx, next.Code); err == nil && other.ID != id {
			return ledger.Account{}, errs.ErrConflict
		}
	}
	next.UpdatedAt = s.now()
	updated, err := s.writer.UpdateAccount(ctx, next)
	if err != nil {
		return ledger.Account{}, errs.Upstream("update account "+id.String(), err)
	}
	s.audit.Record(ctx, ledger.AuditAccount, id, ledger.AuditUpdate, accountChanges(cur, updated))
	return updated, nil
}

// Deactivate sets Active=false. Entries stay in place.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !acc.Active {
		return nil
	}
	acc.Active = false
	acc.UpdatedAt = s.now()
	if _, err := s.writer.UpdateAccount(ctx, acc); err != nil {
		return errs.Upstream("deactivate account "+id.String(), err)
	}
	s.log.InfoContext(ctx, "account deactivated", "account_id", id)
	s.audit.Record(ctx, ledger.AuditAccount, id, ledger.AuditUpdate, map[string]string{"active": "false"})
	return nil
}

// EnsureChart creates each account whose code does not exist yet and returns
// the resulting accounts in input order. It is safe to run repeatedly.
func (s *service) EnsureChart(ctx context.Context, defs []ledger.Account) ([]ledger.Account, error) {
	out := make([]ledger.Account, 0, len(defs))
	for _, def := range defs {
		def = normalize(def)
		if existing, err := s.repo.GetAccountByCode(ctx, def.Code); err == nil {
			out = append(out, existing)
			continue
		}
		created, err := s.Create(ctx, def)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

// accountChanges lists the fields that differ, keyed by field name.
func accountChanges(before, after ledger.Account) map[string]string {
	out := map[string]string{}
	if before.Code != after.Code {
		out["code"] = after.Code
	}
	if before.Name != after.Name {
		out["name"] = after.Name
	}
	if before.Type != after.Type {
		out["type"] = string(after.Type)
	}
	if before.Active != after.Active {
		out["active"] = strconv.FormatBool(after.Active)
	}
	if before.CashEquivalent != after.CashEquivalent {
		out["cash_equivalent"] = strconv.FormatBool(after.CashEquivalent)
	}
	switch {
	case after.ParentID == nil && before.ParentID != nil:
		out["parent_id"] = ""
	case after.ParentID != nil && (before.ParentID == nil || *before.ParentID != *after.ParentID):
		out["parent_id"] = after.ParentID.String()
	}
	return out
}
