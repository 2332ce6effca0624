package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/coopcore/ledger/aging"
	"github.com/coopcore/ledger/allocation"
	"github.com/coopcore/ledger/guard"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/types"
)

// PostObligation appends a charge to the party's ledger. The posting
// carries the running balance after itself and bumps the party's
// outstanding total in the same store call. Postings beyond the party's
// credit limit are refused before anything is written.
func (l *Ledger) PostObligation(ctx context.Context, partyID id.PartyID, amount types.Money, dueDate time.Time, origin posting.Origin) (*posting.Obligation, error) {
	if err := guard.CheckPositive(amount); err != nil {
		return nil, err
	}

	unlock, err := l.lockParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := l.store.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if err := guard.CheckCredit(p, amount); err != nil {
		if errors.Is(err, guard.ErrCreditLimitReached) {
			l.plugins.EmitCreditLimitBreached(ctx, partyID.String(),
				p.OutstandingTotal.Amount, p.CreditLimit.Amount, amount.Amount)
		}
		return nil, err
	}

	o := &posting.Obligation{
		Entity:         types.NewEntity(),
		ID:             id.NewObligationID(),
		PartyID:        partyID,
		Amount:         amount,
		DueDate:        dueDate,
		AllocatedTotal: types.Zero(amount.Currency),
		BalanceAfter:   p.OutstandingTotal.Add(amount),
		Origin:         origin,
	}

	if err := l.store.AppendObligation(ctx, o); err != nil {
		return nil, err
	}

	l.logger.Info("obligation posted",
		"obligation_id", o.ID.String(),
		"party_id", partyID.String(),
		"amount", amount.String(),
		"due_date", dueDate.Format(time.DateOnly),
	)
	l.plugins.EmitObligationPosted(ctx, o)

	return o, nil
}

// PaymentInput describes a payment to record. When Targets is empty the
// payment is allocated oldest-due-first; otherwise each target line is
// validated against its obligation's outstanding remainder and the whole
// payment fails on any bad line.
type PaymentInput struct {
	Amount    types.Money
	Method    posting.Method
	Reference string
	Date      time.Time
	Targets   []allocation.Entry
}

// RecordPayment records a payment against the party's open obligations.
// The payment may exceed the open total by at most the configured
// tolerance; any unabsorbed remainder stays unallocated.
func (l *Ledger) RecordPayment(ctx context.Context, partyID id.PartyID, in PaymentInput) (*posting.Payment, []*posting.Allocation, error) {
	if err := guard.CheckPositive(in.Amount); err != nil {
		return nil, nil, err
	}

	unlock, err := l.lockParty(ctx, partyID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	p, err := l.store.GetParty(ctx, partyID)
	if err != nil {
		return nil, nil, err
	}

	open, err := l.store.ListOpenObligations(ctx, partyID)
	if err != nil {
		return nil, nil, err
	}

	openTotal := types.Zero(in.Amount.Currency)
	for _, o := range open {
		openTotal = openTotal.Add(o.Outstanding())
	}
	tolerance := types.Money{Amount: l.paymentTolerance, Currency: in.Amount.Currency}
	if err := guard.CheckReceivablePayment(openTotal, in.Amount, tolerance); err != nil {
		return nil, nil, err
	}

	var result *allocation.Result
	if len(in.Targets) > 0 {
		result, err = allocation.Explicit(open, in.Targets, in.Amount)
	} else {
		result, err = allocation.FIFO(open, in.Amount)
	}
	if err != nil {
		return nil, nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = l.clock()
	}

	// Payments are stored negative; the running balance drops by the
	// full payment amount even when part of it stays unallocated.
	pay := &posting.Payment{
		Entity:       types.NewEntity(),
		ID:           id.NewPaymentID(),
		PartyID:      partyID,
		Amount:       in.Amount.Negate(),
		Method:       in.Method,
		Reference:    in.Reference,
		Date:         date,
		BalanceAfter: p.OutstandingTotal.Subtract(in.Amount),
	}

	allocs := make([]*posting.Allocation, 0, len(result.Entries))
	for _, e := range result.Entries {
		allocs = append(allocs, &posting.Allocation{
			Entity:       types.NewEntity(),
			ID:           id.NewAllocationID(),
			PaymentID:    pay.ID,
			ObligationID: e.ObligationID,
			Amount:       e.Amount,
		})
	}

	if err := l.store.RecordPayment(ctx, pay, allocs); err != nil {
		return nil, nil, err
	}

	l.logger.Info("payment recorded",
		"payment_id", pay.ID.String(),
		"party_id", partyID.String(),
		"amount", in.Amount.String(),
		"allocations", len(allocs),
		"leftover", result.Leftover.String(),
	)
	l.plugins.EmitPaymentRecorded(ctx, pay, result.Allocated().Amount, result.Leftover.Amount)

	return pay, allocs, nil
}

// ReverseObligation flags an obligation reversed and backs its amount out
// of the party's outstanding total. Obligations with allocations against
// them cannot be reversed; the payment must be unwound first.
func (l *Ledger) ReverseObligation(ctx context.Context, oblID id.ObligationID, reason string) error {
	o, err := l.store.GetObligation(ctx, oblID)
	if err != nil {
		return err
	}

	unlock, err := l.lockParty(ctx, o.PartyID)
	if err != nil {
		return err
	}
	defer unlock()

	// Re-read under the lock; the first read only located the party.
	o, err = l.store.GetObligation(ctx, oblID)
	if err != nil {
		return err
	}
	if !o.IsOpen() {
		return ErrObligationClosed
	}
	if !o.AllocatedTotal.IsZero() {
		return ErrObligationAllocated
	}

	if err := l.store.ReverseObligation(ctx, oblID, l.clock()); err != nil {
		return err
	}

	l.logger.Info("obligation reversed",
		"obligation_id", oblID.String(),
		"party_id", o.PartyID.String(),
		"amount", o.Amount.String(),
		"reason", reason,
	)
	l.plugins.EmitObligationReversed(ctx, o, reason)

	return nil
}

// ──────────────────────────────────────────────────
// Reporting
// ──────────────────────────────────────────────────

// AgingReport classifies a tenant's open obligations into overdue buckets
// as of the given reference date.
func (l *Ledger) AgingReport(ctx context.Context, tenantID, currency string, asOf time.Time) (*aging.Report, error) {
	started := l.clock()

	open, err := l.store.ListOpenObligationsByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	report := aging.Build(open, currency, asOf)
	l.plugins.EmitAgingReportBuilt(ctx, report, l.clock().Sub(started))
	return report, nil
}

// OpeningBalance returns the party's running balance as of the instant
// strictly before the given time: the balance_after of the latest posting
// preceding it, or zero when no posting precedes it.
func (l *Ledger) OpeningBalance(ctx context.Context, partyID id.PartyID, before time.Time) (types.Money, error) {
	p, err := l.store.GetParty(ctx, partyID)
	if err != nil {
		return types.Money{}, err
	}

	balance, ok, err := l.store.LatestBalanceBefore(ctx, partyID, before)
	if err != nil {
		return types.Money{}, err
	}
	if !ok {
		return types.Zero(p.OutstandingTotal.Currency), nil
	}
	return balance, nil
}

// Statement is a party's ledger activity over a window, resuming from the
// opening balance at the window's start.
type Statement struct {
	PartyID     id.PartyID            `json:"party_id"`
	Opening     types.Money           `json:"opening"`
	Obligations []*posting.Obligation `json:"obligations"`
	Payments    []*posting.Payment    `json:"payments"`
}

// PartyStatement assembles the party's postings within [start, end).
func (l *Ledger) PartyStatement(ctx context.Context, partyID id.PartyID, start, end time.Time) (*Statement, error) {
	opening, err := l.OpeningBalance(ctx, partyID, start)
	if err != nil {
		return nil, err
	}

	opts := posting.ListOpts{Start: start, End: end}
	obls, err := l.store.ListObligations(ctx, partyID, opts)
	if err != nil {
		return nil, err
	}
	pays, err := l.store.ListPayments(ctx, partyID, opts)
	if err != nil {
		return nil, err
	}

	return &Statement{
		PartyID:     partyID,
		Opening:     opening,
		Obligations: obls,
		Payments:    pays,
	}, nil
}

// GetObligation retrieves an obligation by ID.
func (l *Ledger) GetObligation(ctx context.Context, oblID id.ObligationID) (*posting.Obligation, error) {
	return l.store.GetObligation(ctx, oblID)
}

// GetPayment retrieves a payment by ID.
func (l *Ledger) GetPayment(ctx context.Context, payID id.PaymentID) (*posting.Payment, error) {
	return l.store.GetPayment(ctx, payID)
}

// ListAllocations lists the allocations recorded for a payment.
func (l *Ledger) ListAllocations(ctx context.Context, payID id.PaymentID) ([]*posting.Allocation, error) {
	return l.store.ListAllocations(ctx, payID)
}

// ListOpenObligations lists the party's open obligations oldest due first.
func (l *Ledger) ListOpenObligations(ctx context.Context, partyID id.PartyID) ([]*posting.Obligation, error) {
	return l.store.ListOpenObligations(ctx, partyID)
}
