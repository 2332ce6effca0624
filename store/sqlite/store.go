// Package sqlite is the SQLite store backend, on database/sql with the
// modernc.org/sqlite driver. Suited to single-branch deployments where
// the back office runs on one machine.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coopcore/ledger"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/posting"
	ledgerstore "github.com/coopcore/ledger/store"
	"github.com/coopcore/ledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the SQLite database at the given DSN.
// Busy-timeout and foreign keys are enabled; WAL keeps readers from
// blocking the single writer.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// on concurrent transactions.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Migrate applies pending schema migrations in order.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ledger_schema_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrMigrationFailed, err)
	}

	for _, m := range migrations {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM ledger_schema_migrations WHERE version = ?`, m.version,
		).Scan(&count); err != nil {
			return fmt.Errorf("%w: %v", ledger.ErrMigrationFailed, err)
		}
		if count > 0 {
			continue
		}

		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ledger_schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				m.version, m.name, time.Now().UTC())
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ledger.ErrMigrationFailed, m.name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ledger.ErrTransactionFailed, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ledger.ErrTransactionFailed, err)
	}
	return nil
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func limitClause(limit, offset int) string {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// ──────────────────────────────────────────────────
// Party store
// ──────────────────────────────────────────────────

func (s *Store) CreateParty(ctx context.Context, p *party.Party) error {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: marshal party metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO ledger_parties (id, tenant_id, kind, name, currency, outstanding_total, credit_limit, metadata, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.TenantID, string(p.Kind), p.Name,
		p.OutstandingTotal.Currency, p.OutstandingTotal.Amount, p.CreditLimit.Amount,
		string(meta), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: create party: %w", err)
	}
	return nil
}

func scanParty(row interface{ Scan(...any) error }) (*party.Party, error) {
	var (
		p        party.Party
		idStr    string
		kind     string
		currency string
		meta     string
	)
	err := row.Scan(&idStr, &p.TenantID, &kind, &p.Name, &currency,
		&p.OutstandingTotal.Amount, &p.CreditLimit.Amount, &meta, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParsePartyID(idStr)
	if err != nil {
		return nil, err
	}
	p.ID = parsed
	p.Kind = party.Kind(kind)
	p.OutstandingTotal.Currency = currency
	p.CreditLimit.Currency = currency
	if err := json.Unmarshal([]byte(meta), &p.Metadata); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal party metadata: %w", err)
	}
	return &p, nil
}

const partyColumns = `id, tenant_id, kind, name, currency, outstanding_total, credit_limit, metadata, created_at, updated_at`

func (s *Store) getParty(ctx context.Context, q execer, partyID id.PartyID) (*party.Party, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+partyColumns+` FROM ledger_parties WHERE id = ?`, partyID.String())
	p, err := scanParty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrPartyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get party: %w", err)
	}
	return p, nil
}

func (s *Store) GetParty(ctx context.Context, partyID id.PartyID) (*party.Party, error) {
	return s.getParty(ctx, s.db, partyID)
}

func (s *Store) ListParties(ctx context.Context, tenantID string, opts party.ListOpts) ([]*party.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM ledger_parties WHERE tenant_id = ?`
	args := []any{tenantID}
	if opts.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(opts.Kind))
	}
	query += ` ORDER BY id` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list parties: %w", err)
	}
	defer rows.Close()

	result := make([]*party.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan party: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) UpdateParty(ctx context.Context, p *party.Party) error {
	return s.updateParty(ctx, s.db, p)
}

func (s *Store) updateParty(ctx context.Context, q execer, p *party.Party) error {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: marshal party metadata: %w", err)
	}
	res, err := q.ExecContext(ctx, `
UPDATE ledger_parties
SET tenant_id = ?, kind = ?, name = ?, currency = ?, outstanding_total = ?, credit_limit = ?, metadata = ?, updated_at = ?
WHERE id = ?`,
		p.TenantID, string(p.Kind), p.Name, p.OutstandingTotal.Currency,
		p.OutstandingTotal.Amount, p.CreditLimit.Amount, string(meta), p.UpdatedAt, p.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update party: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrPartyNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────
// Posting store
// ──────────────────────────────────────────────────

const oblColumns = `id, party_id, currency, amount, allocated_total, balance_after, due_date, paid_date, reversed, reversed_at, origin_kind, origin_ref, created_at, updated_at`

func scanObligation(row interface{ Scan(...any) error }) (*posting.Obligation, error) {
	var (
		o               posting.Obligation
		idStr, partyStr string
		currency        string
		paidDate, revAt sql.NullTime
		reversed        int
		originKind      string
	)
	err := row.Scan(&idStr, &partyStr, &currency, &o.Amount.Amount, &o.AllocatedTotal.Amount,
		&o.BalanceAfter.Amount, &o.DueDate, &paidDate, &reversed, &revAt,
		&originKind, &o.Origin.Reference, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if o.ID, err = id.ParseObligationID(idStr); err != nil {
		return nil, err
	}
	if o.PartyID, err = id.ParsePartyID(partyStr); err != nil {
		return nil, err
	}
	o.Amount.Currency = currency
	o.AllocatedTotal.Currency = currency
	o.BalanceAfter.Currency = currency
	o.PaidDate = timePtr(paidDate)
	o.Reversed = reversed != 0
	o.ReversedAt = timePtr(revAt)
	o.Origin.Kind = posting.OriginKind(originKind)
	return &o, nil
}

func (s *Store) AppendObligation(ctx context.Context, o *posting.Obligation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := s.getParty(ctx, tx, o.PartyID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_obligations (`+oblColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID.String(), o.PartyID.String(), o.Amount.Currency, o.Amount.Amount,
			o.AllocatedTotal.Amount, o.BalanceAfter.Amount, o.DueDate,
			nullTime(o.PaidDate), boolInt(o.Reversed), nullTime(o.ReversedAt),
			string(o.Origin.Kind), o.Origin.Reference, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("sqlite: insert obligation: %w", err)
		}

		p.OutstandingTotal = p.OutstandingTotal.Add(o.Amount)
		p.Touch()
		if err := s.updateParty(ctx, tx, p); err != nil {
			return err
		}
		return s.insertBalancePoint(ctx, tx, o.PartyID, o.BalanceAfter, o.CreatedAt)
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) insertBalancePoint(ctx context.Context, q execer, partyID id.PartyID, balance types.Money, at time.Time) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO ledger_balance_points (party_id, currency, balance, at) VALUES (?, ?, ?, ?)`,
		partyID.String(), balance.Currency, balance.Amount, at)
	if err != nil {
		return fmt.Errorf("sqlite: insert balance point: %w", err)
	}
	return nil
}

func (s *Store) GetObligation(ctx context.Context, oblID id.ObligationID) (*posting.Obligation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+oblColumns+` FROM ledger_obligations WHERE id = ?`, oblID.String())
	o, err := scanObligation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrObligationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get obligation: %w", err)
	}
	return o, nil
}

func (s *Store) queryObligations(ctx context.Context, q execer, query string, args ...any) ([]*posting.Obligation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query obligations: %w", err)
	}
	defer rows.Close()

	result := make([]*posting.Obligation, 0)
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan obligation: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *Store) ListOpenObligations(ctx context.Context, partyID id.PartyID) ([]*posting.Obligation, error) {
	// rowid carries insertion order and breaks due-date ties.
	return s.queryObligations(ctx, s.db, `
SELECT `+oblColumns+` FROM ledger_obligations
WHERE party_id = ? AND reversed = 0 AND paid_date IS NULL
ORDER BY due_date, rowid`, partyID.String())
}

func (s *Store) ListOpenObligationsByTenant(ctx context.Context, tenantID string) ([]*posting.Obligation, error) {
	return s.queryObligations(ctx, s.db, `
SELECT o.id, o.party_id, o.currency, o.amount, o.allocated_total, o.balance_after, o.due_date, o.paid_date, o.reversed, o.reversed_at, o.origin_kind, o.origin_ref, o.created_at, o.updated_at
FROM ledger_obligations o
JOIN ledger_parties p ON p.id = o.party_id
WHERE p.tenant_id = ? AND o.reversed = 0 AND o.paid_date IS NULL
ORDER BY o.due_date, o.rowid`, tenantID)
}

func (s *Store) ListObligations(ctx context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Obligation, error) {
	query := `SELECT ` + oblColumns + ` FROM ledger_obligations WHERE party_id = ?`
	args := []any{partyID.String()}
	if !opts.Start.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, opts.Start)
	}
	if !opts.End.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, opts.End)
	}
	query += ` ORDER BY rowid` + limitClause(opts.Limit, opts.Offset)
	return s.queryObligations(ctx, s.db, query, args...)
}

func (s *Store) ReverseObligation(ctx context.Context, oblID id.ObligationID, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+oblColumns+` FROM ledger_obligations WHERE id = ?`, oblID.String())
		o, err := scanObligation(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrObligationNotFound
		}
		if err != nil {
			return fmt.Errorf("sqlite: get obligation: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE ledger_obligations SET reversed = 1, reversed_at = ?, updated_at = ? WHERE id = ?`,
			at, time.Now().UTC(), oblID.String())
		if err != nil {
			return fmt.Errorf("sqlite: reverse obligation: %w", err)
		}

		p, err := s.getParty(ctx, tx, o.PartyID)
		if err != nil {
			return err
		}
		p.OutstandingTotal = p.OutstandingTotal.Subtract(o.Amount)
		p.Touch()
		return s.updateParty(ctx, tx, p)
	})
}

func (s *Store) RecordPayment(ctx context.Context, pay *posting.Payment, allocs []*posting.Allocation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := s.getParty(ctx, tx, pay.PartyID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_payments (id, party_id, currency, amount, balance_after, method, reference, date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pay.ID.String(), pay.PartyID.String(), pay.Amount.Currency, pay.Amount.Amount,
			pay.BalanceAfter.Amount, string(pay.Method), pay.Reference, pay.Date,
			pay.CreatedAt, pay.UpdatedAt)
		if err != nil {
			return fmt.Errorf("sqlite: insert payment: %w", err)
		}

		for _, a := range allocs {
			row := tx.QueryRowContext(ctx,
				`SELECT `+oblColumns+` FROM ledger_obligations WHERE id = ?`, a.ObligationID.String())
			o, err := scanObligation(row)
			if errors.Is(err, sql.ErrNoRows) {
				return ledger.ErrObligationNotFound
			}
			if err != nil {
				return fmt.Errorf("sqlite: get obligation: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_allocations (id, payment_id, obligation_id, currency, amount, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
				a.ID.String(), a.PaymentID.String(), a.ObligationID.String(),
				a.Amount.Currency, a.Amount.Amount, a.CreatedAt, a.UpdatedAt)
			if err != nil {
				return fmt.Errorf("sqlite: insert allocation: %w", err)
			}

			o.AllocatedTotal = o.AllocatedTotal.Add(a.Amount)
			var paidDate sql.NullTime
			if !o.AllocatedTotal.LessThan(o.Amount) {
				paidDate = sql.NullTime{Time: pay.Date, Valid: true}
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE ledger_obligations SET allocated_total = ?, paid_date = ?, updated_at = ? WHERE id = ?`,
				o.AllocatedTotal.Amount, paidDate, time.Now().UTC(), o.ID.String())
			if err != nil {
				return fmt.Errorf("sqlite: update obligation allocation: %w", err)
			}
		}

		p.OutstandingTotal = p.OutstandingTotal.Subtract(pay.Amount.Abs())
		p.Touch()
		if err := s.updateParty(ctx, tx, p); err != nil {
			return err
		}
		return s.insertBalancePoint(ctx, tx, pay.PartyID, pay.BalanceAfter, pay.Date)
	})
}

const payColumns = `id, party_id, currency, amount, balance_after, method, reference, date, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*posting.Payment, error) {
	var (
		pay             posting.Payment
		idStr, partyStr string
		currency        string
		method          string
	)
	err := row.Scan(&idStr, &partyStr, &currency, &pay.Amount.Amount, &pay.BalanceAfter.Amount,
		&method, &pay.Reference, &pay.Date, &pay.CreatedAt, &pay.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if pay.ID, err = id.ParsePaymentID(idStr); err != nil {
		return nil, err
	}
	if pay.PartyID, err = id.ParsePartyID(partyStr); err != nil {
		return nil, err
	}
	pay.Amount.Currency = currency
	pay.BalanceAfter.Currency = currency
	pay.Method = posting.Method(method)
	return &pay, nil
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*posting.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+payColumns+` FROM ledger_payments WHERE id = ?`, payID.String())
	pay, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get payment: %w", err)
	}
	return pay, nil
}

func (s *Store) ListPayments(ctx context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Payment, error) {
	query := `SELECT ` + payColumns + ` FROM ledger_payments WHERE party_id = ?`
	args := []any{partyID.String()}
	if !opts.Start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, opts.Start)
	}
	if !opts.End.IsZero() {
		query += ` AND date < ?`
		args = append(args, opts.End)
	}
	query += ` ORDER BY date, rowid` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list payments: %w", err)
	}
	defer rows.Close()

	result := make([]*posting.Payment, 0)
	for rows.Next() {
		pay, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan payment: %w", err)
		}
		result = append(result, pay)
	}
	return result, rows.Err()
}

func (s *Store) ListAllocations(ctx context.Context, payID id.PaymentID) ([]*posting.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, payment_id, obligation_id, currency, amount, created_at, updated_at
FROM ledger_allocations WHERE payment_id = ? ORDER BY rowid`, payID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list allocations: %w", err)
	}
	defer rows.Close()

	result := make([]*posting.Allocation, 0)
	for rows.Next() {
		var (
			a                     posting.Allocation
			idStr, payStr, oblStr string
			currency              string
		)
		if err := rows.Scan(&idStr, &payStr, &oblStr, &currency, &a.Amount.Amount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan allocation: %w", err)
		}
		if a.ID, err = id.ParseWithPrefix(idStr, id.PrefixAllocation); err != nil {
			return nil, err
		}
		if a.PaymentID, err = id.ParsePaymentID(payStr); err != nil {
			return nil, err
		}
		if a.ObligationID, err = id.ParseObligationID(oblStr); err != nil {
			return nil, err
		}
		a.Amount.Currency = currency
		result = append(result, &a)
	}
	return result, rows.Err()
}

func (s *Store) LatestBalanceBefore(ctx context.Context, partyID id.PartyID, before time.Time) (types.Money, bool, error) {
	var (
		currency string
		amount   int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT currency, balance FROM ledger_balance_points
WHERE party_id = ? AND at < ?
ORDER BY at DESC, rowid DESC LIMIT 1`, partyID.String(), before).Scan(&currency, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Money{}, false, nil
	}
	if err != nil {
		return types.Money{}, false, fmt.Errorf("sqlite: latest balance: %w", err)
	}
	return types.Money{Amount: amount, Currency: currency}, true, nil
}

// ──────────────────────────────────────────────────
// Sequence store
// ──────────────────────────────────────────────────

func (s *Store) NextSequence(ctx context.Context, tenantID, scope string) (int64, error) {
	var next int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO ledger_sequences (tenant_id, scope, value) VALUES (?, ?, 1)
ON CONFLICT (tenant_id, scope) DO UPDATE SET value = value + 1`, tenantID, scope)
		if err != nil {
			return fmt.Errorf("sqlite: bump sequence: %w", err)
		}
		return tx.QueryRowContext(ctx,
			`SELECT value FROM ledger_sequences WHERE tenant_id = ? AND scope = ?`,
			tenantID, scope).Scan(&next)
	})
	return next, err
}
