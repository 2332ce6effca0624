package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coopcore/ledger"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/share"
	"github.com/coopcore/ledger/wallet"
)

// ──────────────────────────────────────────────────
// Loan store
// ──────────────────────────────────────────────────

const loanColumns = `id, party_id, tenant_id, status, currency, principal, monthly_rate, term_months, payment_interval, first_payment_date, approved_at, rejected_at, disbursed_at, closed_at, outstanding_balance, penalties_outstanding, created_at, updated_at`

func (s *Store) CreateLoan(ctx context.Context, acct *loan.Account) error {
	return s.insertLoan(ctx, s.db, acct)
}

func (s *Store) insertLoan(ctx context.Context, q execer, acct *loan.Account) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO ledger_loans (`+loanColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID.String(), acct.PartyID.String(), acct.TenantID, string(acct.Status),
		acct.Terms.Principal.Currency, acct.Terms.Principal.Amount,
		acct.Terms.MonthlyRate.String(), acct.Terms.TermMonths, string(acct.Terms.Interval),
		acct.Terms.FirstPaymentDate,
		nullTime(acct.ApprovedAt), nullTime(acct.RejectedAt), nullTime(acct.DisbursedAt), nullTime(acct.ClosedAt),
		acct.OutstandingBalance.Amount, acct.PenaltiesOutstanding.Amount,
		acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: create loan: %w", err)
	}
	return nil
}

func scanLoan(row interface{ Scan(...any) error }) (*loan.Account, error) {
	var (
		acct                                   loan.Account
		idStr, partyStr                        string
		status, currency, rateStr, intervalStr string
		approvedAt, rejectedAt                 sql.NullTime
		disbursedAt, closedAt                  sql.NullTime
	)
	err := row.Scan(&idStr, &partyStr, &acct.TenantID, &status, &currency,
		&acct.Terms.Principal.Amount, &rateStr, &acct.Terms.TermMonths, &intervalStr,
		&acct.Terms.FirstPaymentDate, &approvedAt, &rejectedAt, &disbursedAt, &closedAt,
		&acct.OutstandingBalance.Amount, &acct.PenaltiesOutstanding.Amount,
		&acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if acct.ID, err = id.ParseLoanID(idStr); err != nil {
		return nil, err
	}
	if acct.PartyID, err = id.ParsePartyID(partyStr); err != nil {
		return nil, err
	}
	if acct.Terms.MonthlyRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("sqlite: parse loan rate %q: %w", rateStr, err)
	}
	acct.Status = loan.Status(status)
	acct.Terms.Principal.Currency = currency
	acct.Terms.Interval = schedule.Interval(intervalStr)
	acct.ApprovedAt = timePtr(approvedAt)
	acct.RejectedAt = timePtr(rejectedAt)
	acct.DisbursedAt = timePtr(disbursedAt)
	acct.ClosedAt = timePtr(closedAt)
	acct.OutstandingBalance.Currency = currency
	acct.PenaltiesOutstanding.Currency = currency
	return &acct, nil
}

func (s *Store) GetLoan(ctx context.Context, loanID id.LoanID) (*loan.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM ledger_loans WHERE id = ?`, loanID.String())
	acct, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get loan: %w", err)
	}
	return acct, nil
}

func (s *Store) ListLoans(ctx context.Context, opts loan.ListOpts) ([]*loan.Account, error) {
	query := `SELECT ` + loanColumns + ` FROM ledger_loans WHERE 1=1`
	args := []any{}
	if !opts.PartyID.IsNil() {
		query += ` AND party_id = ?`
		args = append(args, opts.PartyID.String())
	}
	if opts.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, opts.TenantID)
	}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY id` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list loans: %w", err)
	}
	defer rows.Close()

	result := make([]*loan.Account, 0)
	for rows.Next() {
		acct, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan loan: %w", err)
		}
		result = append(result, acct)
	}
	return result, rows.Err()
}

func (s *Store) UpdateLoan(ctx context.Context, acct *loan.Account) error {
	return s.updateLoan(ctx, s.db, acct)
}

func (s *Store) updateLoan(ctx context.Context, q execer, acct *loan.Account) error {
	res, err := q.ExecContext(ctx, `
UPDATE ledger_loans
SET status = ?, approved_at = ?, rejected_at = ?, disbursed_at = ?, closed_at = ?,
    outstanding_balance = ?, penalties_outstanding = ?, updated_at = ?
WHERE id = ?`,
		string(acct.Status), nullTime(acct.ApprovedAt), nullTime(acct.RejectedAt),
		nullTime(acct.DisbursedAt), nullTime(acct.ClosedAt),
		acct.OutstandingBalance.Amount, acct.PenaltiesOutstanding.Amount,
		acct.UpdatedAt, acct.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrLoanNotFound
	}
	return nil
}

func (s *Store) DisburseLoan(ctx context.Context, acct *loan.Account, entries []*loan.AmortizationEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateLoan(ctx, tx, acct); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.upsertEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) upsertEntry(ctx context.Context, q execer, e *loan.AmortizationEntry) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO ledger_loan_entries (id, loan_id, seq, currency, due_date, interest, principal, balance_after, interest_paid, principal_paid, paid, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    interest_paid = excluded.interest_paid,
    principal_paid = excluded.principal_paid,
    paid = excluded.paid,
    updated_at = excluded.updated_at`,
		e.ID.String(), e.LoanID.String(), e.Sequence, e.Interest.Currency, e.DueDate,
		e.Interest.Amount, e.Principal.Amount, e.BalanceAfter.Amount,
		e.InterestPaid.Amount, e.PrincipalPaid.Amount, boolInt(e.Paid),
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: upsert loan entry: %w", err)
	}
	return nil
}

func (s *Store) ListLoanEntries(ctx context.Context, loanID id.LoanID) ([]*loan.AmortizationEntry, error) {
	if _, err := s.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, loan_id, seq, currency, due_date, interest, principal, balance_after, interest_paid, principal_paid, paid, created_at, updated_at
FROM ledger_loan_entries WHERE loan_id = ? ORDER BY seq`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list loan entries: %w", err)
	}
	defer rows.Close()

	result := make([]*loan.AmortizationEntry, 0)
	for rows.Next() {
		var (
			e              loan.AmortizationEntry
			idStr, loanStr string
			currency       string
			paid           int
		)
		err := rows.Scan(&idStr, &loanStr, &e.Sequence, &currency, &e.DueDate,
			&e.Interest.Amount, &e.Principal.Amount, &e.BalanceAfter.Amount,
			&e.InterestPaid.Amount, &e.PrincipalPaid.Amount, &paid, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan loan entry: %w", err)
		}
		if e.ID, err = id.ParseWithPrefix(idStr, id.PrefixEntry); err != nil {
			return nil, err
		}
		if e.LoanID, err = id.ParseLoanID(loanStr); err != nil {
			return nil, err
		}
		e.Interest.Currency = currency
		e.Principal.Currency = currency
		e.BalanceAfter.Currency = currency
		e.InterestPaid.Currency = currency
		e.PrincipalPaid.Currency = currency
		e.Paid = paid != 0
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (s *Store) AddPenalty(ctx context.Context, acct *loan.Account, pen *loan.Penalty) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateLoan(ctx, tx, acct); err != nil {
			return err
		}
		return s.upsertPenalty(ctx, tx, pen, true)
	})
}

func (s *Store) upsertPenalty(ctx context.Context, q execer, pen *loan.Penalty, insert bool) error {
	if insert {
		_, err := q.ExecContext(ctx, `
INSERT INTO ledger_penalties (id, loan_id, entry_id, currency, net_penalty, waived, paid_amount, is_paid, reason, waive_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pen.ID.String(), pen.LoanID.String(), pen.EntryID.String(),
			pen.NetPenalty.Currency, pen.NetPenalty.Amount, pen.Waived.Amount,
			pen.PaidAmount.Amount, boolInt(pen.Paid), pen.Reason, pen.WaiveReason,
			pen.CreatedAt, pen.UpdatedAt)
		if err != nil {
			return fmt.Errorf("sqlite: insert penalty: %w", err)
		}
		return nil
	}

	res, err := q.ExecContext(ctx, `
UPDATE ledger_penalties
SET waived = ?, paid_amount = ?, is_paid = ?, waive_reason = ?, updated_at = ?
WHERE id = ?`,
		pen.Waived.Amount, pen.PaidAmount.Amount, boolInt(pen.Paid),
		pen.WaiveReason, pen.UpdatedAt, pen.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update penalty: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrPenaltyNotFound
	}
	return nil
}

const penaltyColumns = `id, loan_id, entry_id, currency, net_penalty, waived, paid_amount, is_paid, reason, waive_reason, created_at, updated_at`

func scanPenalty(row interface{ Scan(...any) error }) (*loan.Penalty, error) {
	var (
		pen                    loan.Penalty
		idStr, loanStr, entStr string
		currency               string
		isPaid                 int
	)
	err := row.Scan(&idStr, &loanStr, &entStr, &currency, &pen.NetPenalty.Amount,
		&pen.Waived.Amount, &pen.PaidAmount.Amount, &isPaid, &pen.Reason, &pen.WaiveReason,
		&pen.CreatedAt, &pen.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if pen.ID, err = id.ParsePenaltyID(idStr); err != nil {
		return nil, err
	}
	if pen.LoanID, err = id.ParseLoanID(loanStr); err != nil {
		return nil, err
	}
	if pen.EntryID, err = id.ParseWithPrefix(entStr, id.PrefixEntry); err != nil {
		return nil, err
	}
	pen.NetPenalty.Currency = currency
	pen.Waived.Currency = currency
	pen.PaidAmount.Currency = currency
	pen.Paid = isPaid != 0
	return &pen, nil
}

func (s *Store) GetPenalty(ctx context.Context, penID id.PenaltyID) (*loan.Penalty, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+penaltyColumns+` FROM ledger_penalties WHERE id = ?`, penID.String())
	pen, err := scanPenalty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrPenaltyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get penalty: %w", err)
	}
	return pen, nil
}

func (s *Store) ListPenalties(ctx context.Context, loanID id.LoanID) ([]*loan.Penalty, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+penaltyColumns+` FROM ledger_penalties WHERE loan_id = ? ORDER BY rowid`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list penalties: %w", err)
	}
	defer rows.Close()

	result := make([]*loan.Penalty, 0)
	for rows.Next() {
		pen, err := scanPenalty(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan penalty: %w", err)
		}
		result = append(result, pen)
	}
	return result, rows.Err()
}

func (s *Store) SaveWaiver(ctx context.Context, acct *loan.Account, pen *loan.Penalty) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateLoan(ctx, tx, acct); err != nil {
			return err
		}
		return s.upsertPenalty(ctx, tx, pen, false)
	})
}

func (s *Store) SaveLoanPayment(ctx context.Context, acct *loan.Account, entries []*loan.AmortizationEntry, penalties []*loan.Penalty) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateLoan(ctx, tx, acct); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.upsertEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		for _, pen := range penalties {
			if err := s.upsertPenalty(ctx, tx, pen, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// ──────────────────────────────────────────────────
// Savings store
// ──────────────────────────────────────────────────

const savingsColumns = `id, party_id, tenant_id, status, currency, balance, minimum_balance, created_at, updated_at`

func (s *Store) CreateSavings(ctx context.Context, acct *savings.Account) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ledger_savings (`+savingsColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID.String(), acct.PartyID.String(), acct.TenantID, string(acct.Status),
		acct.Balance.Currency, acct.Balance.Amount, acct.MinimumBalance.Amount,
		acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: create savings: %w", err)
	}
	return nil
}

func scanSavings(row interface{ Scan(...any) error }) (*savings.Account, error) {
	var (
		acct             savings.Account
		idStr, partyStr  string
		status, currency string
	)
	err := row.Scan(&idStr, &partyStr, &acct.TenantID, &status, &currency,
		&acct.Balance.Amount, &acct.MinimumBalance.Amount, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if acct.ID, err = id.ParseWithPrefix(idStr, id.PrefixSavings); err != nil {
		return nil, err
	}
	if acct.PartyID, err = id.ParsePartyID(partyStr); err != nil {
		return nil, err
	}
	acct.Status = savings.AccountStatus(status)
	acct.Balance.Currency = currency
	acct.MinimumBalance.Currency = currency
	return &acct, nil
}

func (s *Store) GetSavings(ctx context.Context, savID id.SavingsID) (*savings.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+savingsColumns+` FROM ledger_savings WHERE id = ?`, savID.String())
	acct, err := scanSavings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrSavingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get savings: %w", err)
	}
	return acct, nil
}

func (s *Store) ListSavings(ctx context.Context, opts savings.ListOpts) ([]*savings.Account, error) {
	query := `SELECT ` + savingsColumns + ` FROM ledger_savings WHERE 1=1`
	args := []any{}
	if !opts.PartyID.IsNil() {
		query += ` AND party_id = ?`
		args = append(args, opts.PartyID.String())
	}
	if opts.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, opts.TenantID)
	}
	query += ` ORDER BY id` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list savings: %w", err)
	}
	defer rows.Close()

	result := make([]*savings.Account, 0)
	for rows.Next() {
		acct, err := scanSavings(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan savings: %w", err)
		}
		result = append(result, acct)
	}
	return result, rows.Err()
}

func (s *Store) UpdateSavings(ctx context.Context, acct *savings.Account) error {
	return s.updateSavings(ctx, s.db, acct)
}

func (s *Store) updateSavings(ctx context.Context, q execer, acct *savings.Account) error {
	res, err := q.ExecContext(ctx, `
UPDATE ledger_savings SET status = ?, balance = ?, minimum_balance = ?, updated_at = ? WHERE id = ?`,
		string(acct.Status), acct.Balance.Amount, acct.MinimumBalance.Amount,
		acct.UpdatedAt, acct.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update savings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrSavingsNotFound
	}
	return nil
}

func (s *Store) insertMovement(ctx context.Context, q execer, mov *savings.Movement) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO ledger_movements (id, account_id, kind, currency, amount, balance_after, reference, date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mov.ID.String(), mov.AccountID.String(), string(mov.Kind),
		mov.Amount.Currency, mov.Amount.Amount, mov.BalanceAfter.Amount,
		mov.Reference, mov.Date, mov.CreatedAt, mov.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: insert movement: %w", err)
	}
	return nil
}

func (s *Store) RecordMovement(ctx context.Context, acct *savings.Account, mov *savings.Movement) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateSavings(ctx, tx, acct); err != nil {
			return err
		}
		return s.insertMovement(ctx, tx, mov)
	})
}

func (s *Store) ListMovements(ctx context.Context, savID id.SavingsID, opts savings.ListOpts) ([]*savings.Movement, error) {
	if _, err := s.GetSavings(ctx, savID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, account_id, kind, currency, amount, balance_after, reference, date, created_at, updated_at
FROM ledger_movements WHERE account_id = ?
ORDER BY rowid DESC`+limitClause(opts.Limit, opts.Offset), savID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list movements: %w", err)
	}
	defer rows.Close()

	result := make([]*savings.Movement, 0)
	for rows.Next() {
		var (
			mov            savings.Movement
			idStr, acctStr string
			kind, currency string
		)
		err := rows.Scan(&idStr, &acctStr, &kind, &currency, &mov.Amount.Amount,
			&mov.BalanceAfter.Amount, &mov.Reference, &mov.Date, &mov.CreatedAt, &mov.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan movement: %w", err)
		}
		if mov.ID, err = id.ParseWithPrefix(idStr, id.PrefixMovement); err != nil {
			return nil, err
		}
		if mov.AccountID, err = id.ParseWithPrefix(acctStr, id.PrefixSavings); err != nil {
			return nil, err
		}
		mov.Kind = savings.MovementKind(kind)
		mov.Amount.Currency = currency
		mov.BalanceAfter.Currency = currency
		result = append(result, &mov)
	}
	return result, rows.Err()
}

const depositColumns = `id, account_id, party_id, tenant_id, status, currency, principal, annual_rate, term_months, placement_date, interest_method, payment_frequency, penalty_rate, closed_at, payout, interest_earned, created_at, updated_at`

func (s *Store) CreateTimeDeposit(ctx context.Context, dep *savings.TimeDeposit) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ledger_time_deposits (`+depositColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dep.ID.String(), dep.AccountID.String(), dep.PartyID.String(), dep.TenantID,
		string(dep.Status), dep.Terms.Principal.Currency, dep.Terms.Principal.Amount,
		dep.Terms.AnnualRate.String(), dep.Terms.TermMonths, dep.Terms.PlacementDate,
		string(dep.Terms.Method), string(dep.Terms.PaymentFrequency),
		dep.Terms.EarlyWithdrawalPenaltyRate.String(),
		nullTime(dep.ClosedAt), dep.Payout.Amount, dep.InterestEarned.Amount,
		dep.CreatedAt, dep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: create time deposit: %w", err)
	}
	return nil
}

func scanDeposit(row interface{ Scan(...any) error }) (*savings.TimeDeposit, error) {
	var (
		dep                      savings.TimeDeposit
		idStr, acctStr, partyStr string
		status, currency         string
		rateStr, penRateStr      string
		method, freq             string
		closedAt                 sql.NullTime
	)
	err := row.Scan(&idStr, &acctStr, &partyStr, &dep.TenantID, &status, &currency,
		&dep.Terms.Principal.Amount, &rateStr, &dep.Terms.TermMonths, &dep.Terms.PlacementDate,
		&method, &freq, &penRateStr, &closedAt, &dep.Payout.Amount, &dep.InterestEarned.Amount,
		&dep.CreatedAt, &dep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if dep.ID, err = id.ParseWithPrefix(idStr, id.PrefixTimeDeposit); err != nil {
		return nil, err
	}
	if dep.AccountID, err = id.ParseWithPrefix(acctStr, id.PrefixSavings); err != nil {
		return nil, err
	}
	if dep.PartyID, err = id.ParsePartyID(partyStr); err != nil {
		return nil, err
	}
	if dep.Terms.AnnualRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("sqlite: parse deposit rate %q: %w", rateStr, err)
	}
	if dep.Terms.EarlyWithdrawalPenaltyRate, err = decimal.NewFromString(penRateStr); err != nil {
		return nil, fmt.Errorf("sqlite: parse penalty rate %q: %w", penRateStr, err)
	}
	dep.Status = savings.DepositStatus(status)
	dep.Terms.Principal.Currency = currency
	dep.Terms.Method = schedule.InterestMethod(method)
	dep.Terms.PaymentFrequency = schedule.Interval(freq)
	dep.ClosedAt = timePtr(closedAt)
	dep.Payout.Currency = currency
	dep.InterestEarned.Currency = currency
	return &dep, nil
}

func (s *Store) GetTimeDeposit(ctx context.Context, depID id.TimeDepositID) (*savings.TimeDeposit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+depositColumns+` FROM ledger_time_deposits WHERE id = ?`, depID.String())
	dep, err := scanDeposit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get time deposit: %w", err)
	}
	return dep, nil
}

func (s *Store) ListTimeDeposits(ctx context.Context, opts savings.ListOpts) ([]*savings.TimeDeposit, error) {
	query := `SELECT ` + depositColumns + ` FROM ledger_time_deposits WHERE 1=1`
	args := []any{}
	if !opts.PartyID.IsNil() {
		query += ` AND party_id = ?`
		args = append(args, opts.PartyID.String())
	}
	if opts.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, opts.TenantID)
	}
	query += ` ORDER BY id` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list time deposits: %w", err)
	}
	defer rows.Close()

	result := make([]*savings.TimeDeposit, 0)
	for rows.Next() {
		dep, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan time deposit: %w", err)
		}
		result = append(result, dep)
	}
	return result, rows.Err()
}

func (s *Store) SettleTimeDeposit(ctx context.Context, dep *savings.TimeDeposit, acct *savings.Account, mov *savings.Movement) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE ledger_time_deposits
SET status = ?, closed_at = ?, payout = ?, interest_earned = ?, updated_at = ?
WHERE id = ?`,
			string(dep.Status), nullTime(dep.ClosedAt), dep.Payout.Amount,
			dep.InterestEarned.Amount, dep.UpdatedAt, dep.ID.String())
		if err != nil {
			return fmt.Errorf("sqlite: settle time deposit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ledger.ErrDepositNotFound
		}
		if err := s.updateSavings(ctx, tx, acct); err != nil {
			return err
		}
		return s.insertMovement(ctx, tx, mov)
	})
}

// ──────────────────────────────────────────────────
// Share store
// ──────────────────────────────────────────────────

const shareColumns = `id, party_id, tenant_id, currency, subscribed_shares, par_value, paid_amount, created_at, updated_at`

func (s *Store) CreateShare(ctx context.Context, acct *share.Account) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ledger_shares (`+shareColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID.String(), acct.PartyID.String(), acct.TenantID,
		acct.ParValue.Currency, acct.SubscribedShares, acct.ParValue.Amount,
		acct.PaidAmount.Amount, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: create share account: %w", err)
	}
	return nil
}

func scanShare(row interface{ Scan(...any) error }) (*share.Account, error) {
	var (
		acct            share.Account
		idStr, partyStr string
		currency        string
	)
	err := row.Scan(&idStr, &partyStr, &acct.TenantID, &currency,
		&acct.SubscribedShares, &acct.ParValue.Amount, &acct.PaidAmount.Amount,
		&acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if acct.ID, err = id.ParseWithPrefix(idStr, id.PrefixShare); err != nil {
		return nil, err
	}
	if acct.PartyID, err = id.ParsePartyID(partyStr); err != nil {
		return nil, err
	}
	acct.ParValue.Currency = currency
	acct.PaidAmount.Currency = currency
	return &acct, nil
}

func (s *Store) GetShare(ctx context.Context, shareID id.ShareID) (*share.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM ledger_shares WHERE id = ?`, shareID.String())
	acct, err := scanShare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get share account: %w", err)
	}
	return acct, nil
}

func (s *Store) ListShares(ctx context.Context, opts share.ListOpts) ([]*share.Account, error) {
	query := `SELECT ` + shareColumns + ` FROM ledger_shares WHERE 1=1`
	args := []any{}
	if !opts.PartyID.IsNil() {
		query += ` AND party_id = ?`
		args = append(args, opts.PartyID.String())
	}
	if opts.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, opts.TenantID)
	}
	query += ` ORDER BY id` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list share accounts: %w", err)
	}
	defer rows.Close()

	result := make([]*share.Account, 0)
	for rows.Next() {
		acct, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan share account: %w", err)
		}
		result = append(result, acct)
	}
	return result, rows.Err()
}

func (s *Store) UpdateShare(ctx context.Context, acct *share.Account) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE ledger_shares SET subscribed_shares = ?, par_value = ?, paid_amount = ?, updated_at = ? WHERE id = ?`,
		acct.SubscribedShares, acct.ParValue.Amount, acct.PaidAmount.Amount,
		acct.UpdatedAt, acct.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update share account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrShareNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────
// Wallet store
// ──────────────────────────────────────────────────

const walletColumns = `id, party_id, tenant_id, name, currency, balance, allowed_categories, created_at, updated_at`

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	cats, err := json.Marshal(w.AllowedCategories)
	if err != nil {
		return fmt.Errorf("sqlite: marshal wallet categories: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO ledger_wallets (`+walletColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.PartyID.String(), w.TenantID, w.Name,
		w.Balance.Currency, w.Balance.Amount, string(cats), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: create wallet: %w", err)
	}
	return nil
}

func scanWallet(row interface{ Scan(...any) error }) (*wallet.Wallet, error) {
	var (
		w               wallet.Wallet
		idStr, partyStr string
		currency, cats  string
	)
	err := row.Scan(&idStr, &partyStr, &w.TenantID, &w.Name, &currency,
		&w.Balance.Amount, &cats, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if w.ID, err = id.ParseWithPrefix(idStr, id.PrefixWallet); err != nil {
		return nil, err
	}
	if w.PartyID, err = id.ParsePartyID(partyStr); err != nil {
		return nil, err
	}
	w.Balance.Currency = currency
	if err := json.Unmarshal([]byte(cats), &w.AllowedCategories); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal wallet categories: %w", err)
	}
	return &w, nil
}

func (s *Store) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM ledger_wallets WHERE id = ?`, walletID.String())
	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get wallet: %w", err)
	}
	return w, nil
}

func (s *Store) ListWallets(ctx context.Context, opts wallet.ListOpts) ([]*wallet.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM ledger_wallets WHERE 1=1`
	args := []any{}
	if !opts.PartyID.IsNil() {
		query += ` AND party_id = ?`
		args = append(args, opts.PartyID.String())
	}
	if opts.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, opts.TenantID)
	}
	query += ` ORDER BY id` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list wallets: %w", err)
	}
	defer rows.Close()

	result := make([]*wallet.Wallet, 0)
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan wallet: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	cats, err := json.Marshal(w.AllowedCategories)
	if err != nil {
		return fmt.Errorf("sqlite: marshal wallet categories: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE ledger_wallets SET name = ?, balance = ?, allowed_categories = ?, updated_at = ? WHERE id = ?`,
		w.Name, w.Balance.Amount, string(cats), w.UpdatedAt, w.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update wallet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrWalletNotFound
	}
	return nil
}
