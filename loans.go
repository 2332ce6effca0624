package ledger

import (
	"context"
	"time"

	"github.com/coopcore/ledger/guard"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/types"
)

// RequestLoan opens a pending loan application for the party. The terms
// are validated by generating a trial schedule; nothing of the trial is
// persisted.
func (l *Ledger) RequestLoan(ctx context.Context, partyID id.PartyID, tenantID string, terms schedule.Terms) (*loan.Account, error) {
	if _, err := schedule.Amortize(terms); err != nil {
		return nil, err
	}

	acct := &loan.Account{
		Entity:               types.NewEntity(),
		ID:                   id.NewLoanID(),
		PartyID:              partyID,
		TenantID:             tenantID,
		Status:               loan.StatusPending,
		Terms:                terms,
		OutstandingBalance:   types.Zero(terms.Principal.Currency),
		PenaltiesOutstanding: types.Zero(terms.Principal.Currency),
	}

	if err := l.store.CreateLoan(ctx, acct); err != nil {
		return nil, err
	}

	l.logger.Info("loan requested",
		"loan_id", acct.ID.String(),
		"party_id", partyID.String(),
		"principal", terms.Principal.String(),
		"term_months", terms.TermMonths,
	)
	return acct, nil
}

// ApproveLoan moves a pending loan to approved.
func (l *Ledger) ApproveLoan(ctx context.Context, loanID id.LoanID, at time.Time) (*loan.Account, error) {
	unlock, err := l.lockKey(ctx, loanID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if acct.Status != loan.StatusPending {
		return nil, ErrLoanNotPending
	}

	acct.Status = loan.StatusApproved
	acct.ApprovedAt = &at
	acct.Touch()
	if err := l.store.UpdateLoan(ctx, acct); err != nil {
		return nil, err
	}

	l.plugins.EmitLoanApproved(ctx, acct)
	return acct, nil
}

// RejectLoan moves a pending loan to rejected, a terminal state.
func (l *Ledger) RejectLoan(ctx context.Context, loanID id.LoanID, at time.Time) (*loan.Account, error) {
	unlock, err := l.lockKey(ctx, loanID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if acct.Status != loan.StatusPending {
		return nil, ErrLoanNotPending
	}

	acct.Status = loan.StatusRejected
	acct.RejectedAt = &at
	acct.Touch()
	if err := l.store.UpdateLoan(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// DisburseLoan releases an approved loan. The amortization schedule is
// generated exactly once here and never regenerated; the account's
// outstanding balance becomes the full schedule total.
func (l *Ledger) DisburseLoan(ctx context.Context, loanID id.LoanID, at time.Time) (*loan.Account, []*loan.AmortizationEntry, error) {
	unlock, err := l.lockKey(ctx, loanID.String())
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	acct, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	if acct.Status != loan.StatusApproved {
		return nil, nil, ErrLoanNotApproved
	}

	rows, err := schedule.Amortize(acct.Terms)
	if err != nil {
		return nil, nil, err
	}
	entries := loan.EntriesFromSchedule(acct.ID, rows)

	acct.Status = loan.StatusDisbursed
	acct.DisbursedAt = &at
	acct.OutstandingBalance = loan.ScheduleTotal(entries, acct.Terms.Principal.Currency)
	acct.Touch()

	if err := l.store.DisburseLoan(ctx, acct, entries); err != nil {
		return nil, nil, err
	}

	l.logger.Info("loan disbursed",
		"loan_id", acct.ID.String(),
		"principal", acct.Terms.Principal.String(),
		"installments", len(entries),
		"outstanding", acct.OutstandingBalance.String(),
	)
	l.plugins.EmitLoanDisbursed(ctx, acct, len(entries))

	return acct, entries, nil
}

// ApplyLoanPayment splits a payment across the loan's penalties, interest
// and principal: collectible penalties oldest first, then interest before
// principal per schedule entry. The amount may not exceed the loan's
// outstanding balance plus collectible penalties.
func (l *Ledger) ApplyLoanPayment(ctx context.Context, loanID id.LoanID, amount types.Money, date time.Time) (*loan.PaymentSplit, error) {
	unlock, err := l.lockKey(ctx, loanID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if acct.Status != loan.StatusDisbursed && acct.Status != loan.StatusActive {
		return nil, ErrLoanNotServicable
	}

	if err := guard.CheckLoanPayment(acct, amount); err != nil {
		return nil, err
	}

	entries, err := l.store.ListLoanEntries(ctx, loanID)
	if err != nil {
		return nil, err
	}
	penalties, err := l.store.ListPenalties(ctx, loanID)
	if err != nil {
		return nil, err
	}

	split, err := loan.ApplyPayment(acct, entries, penalties, amount, date)
	if err != nil {
		return nil, err
	}

	if err := l.store.SaveLoanPayment(ctx, acct, entries, penalties); err != nil {
		return nil, err
	}

	l.logger.Info("loan payment applied",
		"loan_id", loanID.String(),
		"amount", amount.String(),
		"penalty", split.PenaltyPaid.String(),
		"interest", split.InterestPaid.String(),
		"principal", split.PrincipalPaid.String(),
		"status", string(acct.Status),
	)
	l.plugins.EmitLoanPaymentApplied(ctx, acct, split)
	if acct.Status == loan.StatusPaid {
		l.plugins.EmitLoanClosed(ctx, acct)
	}

	return split, nil
}

// AssessPenalty records a penalty against a schedule entry and adds it to
// the loan's penalties outstanding.
func (l *Ledger) AssessPenalty(ctx context.Context, loanID id.LoanID, entryID id.EntryID, amount types.Money, reason string) (*loan.Penalty, error) {
	if err := guard.CheckPositive(amount); err != nil {
		return nil, err
	}

	unlock, err := l.lockKey(ctx, loanID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if acct.Status != loan.StatusDisbursed && acct.Status != loan.StatusActive {
		return nil, ErrLoanNotServicable
	}

	zero := types.Zero(amount.Currency)
	pen := &loan.Penalty{
		Entity:     types.NewEntity(),
		ID:         id.NewPenaltyID(),
		LoanID:     loanID,
		EntryID:    entryID,
		NetPenalty: amount,
		Waived:     zero,
		PaidAmount: zero,
		Reason:     reason,
	}

	acct.PenaltiesOutstanding = acct.PenaltiesOutstanding.Add(amount)
	acct.Touch()
	if err := l.store.AddPenalty(ctx, acct, pen); err != nil {
		return nil, err
	}

	l.logger.Info("penalty assessed",
		"loan_id", loanID.String(),
		"penalty_id", pen.ID.String(),
		"amount", amount.String(),
		"reason", reason,
	)
	return pen, nil
}

// WaivePenalty forgives part or all of a penalty's remaining collectible
// amount. Paid penalties cannot be waived, and a waiver can never exceed
// what is still collectible.
func (l *Ledger) WaivePenalty(ctx context.Context, penID id.PenaltyID, waived types.Money, reason string) (*loan.Penalty, error) {
	if err := guard.CheckPositive(waived); err != nil {
		return nil, err
	}

	pen, err := l.store.GetPenalty(ctx, penID)
	if err != nil {
		return nil, err
	}

	unlock, err := l.lockKey(ctx, pen.LoanID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; the first read only located the loan.
	pen, err = l.store.GetPenalty(ctx, penID)
	if err != nil {
		return nil, err
	}
	if pen.Paid {
		return nil, ErrPenaltyPaid
	}
	if waived.GreaterThan(pen.Collectible()) {
		return nil, ErrPenaltyWaived
	}

	acct, err := l.store.GetLoan(ctx, pen.LoanID)
	if err != nil {
		return nil, err
	}

	pen.Waived = pen.Waived.Add(waived)
	pen.WaiveReason = reason
	if pen.Collectible().IsZero() {
		pen.Paid = true
	}
	pen.Touch()

	acct.PenaltiesOutstanding = acct.PenaltiesOutstanding.Subtract(waived)
	acct.Touch()

	if err := l.store.SaveWaiver(ctx, acct, pen); err != nil {
		return nil, err
	}

	l.logger.Info("penalty waived",
		"penalty_id", penID.String(),
		"loan_id", pen.LoanID.String(),
		"waived", waived.String(),
		"reason", reason,
	)
	l.plugins.EmitPenaltyWaived(ctx, pen, waived.Amount, reason)

	return pen, nil
}

// MarkLoanDefaulted moves a serviced loan to defaulted, a terminal state.
// Explicit operator action; nothing transitions to defaulted automatically.
func (l *Ledger) MarkLoanDefaulted(ctx context.Context, loanID id.LoanID, at time.Time) (*loan.Account, error) {
	unlock, err := l.lockKey(ctx, loanID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !acct.Status.CanTransition(loan.StatusDefaulted) {
		return nil, ErrLoanTransition
	}

	acct.Status = loan.StatusDefaulted
	acct.ClosedAt = &at
	acct.Touch()
	if err := l.store.UpdateLoan(ctx, acct); err != nil {
		return nil, err
	}

	l.logger.Warn("loan defaulted",
		"loan_id", loanID.String(),
		"outstanding", acct.OutstandingBalance.String(),
		"penalties", acct.PenaltiesOutstanding.String(),
	)
	l.plugins.EmitLoanClosed(ctx, acct)

	return acct, nil
}

// GetLoan retrieves a loan account by ID.
func (l *Ledger) GetLoan(ctx context.Context, loanID id.LoanID) (*loan.Account, error) {
	return l.store.GetLoan(ctx, loanID)
}

// ListLoans lists loan accounts matching the filter.
func (l *Ledger) ListLoans(ctx context.Context, opts loan.ListOpts) ([]*loan.Account, error) {
	return l.store.ListLoans(ctx, opts)
}

// LoanSchedule returns the loan's amortization entries in sequence order.
func (l *Ledger) LoanSchedule(ctx context.Context, loanID id.LoanID) ([]*loan.AmortizationEntry, error) {
	return l.store.ListLoanEntries(ctx, loanID)
}

// ListPenalties lists the loan's penalties in assessment order.
func (l *Ledger) ListPenalties(ctx context.Context, loanID id.LoanID) ([]*loan.Penalty, error) {
	return l.store.ListPenalties(ctx, loanID)
}
