// Package loan defines loan accounts, their lifecycle state machine,
// persisted amortization entries, and penalty records.
package loan

import (
	"fmt"
	"time"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/types"
)

// Status is the lifecycle state of a loan account.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDisbursed Status = "disbursed"
	StatusActive    Status = "active"
	StatusPaid      Status = "paid"
	StatusDefaulted Status = "defaulted"
)

// transitions is the closed set of legal lifecycle moves. Rejected, paid
// and defaulted are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDisbursed},
	StatusDisbursed: {StatusActive, StatusDefaulted},
	StatusActive:    {StatusPaid, StatusDefaulted},
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status accepts no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Account is a loan account. OutstandingBalance is the unpaid schedule
// total (principal plus interest); PenaltiesOutstanding is the sum of
// collectible penalty remainders. Both are derived values with a single
// writer path: disbursement and payment application.
type Account struct {
	types.Entity
	ID       id.LoanID      `json:"id"`
	PartyID  id.PartyID     `json:"party_id"`
	TenantID string         `json:"tenant_id"`
	Terms    schedule.Terms `json:"terms"`
	Status   Status         `json:"status"`

	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	DisbursedAt *time.Time `json:"disbursed_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	OutstandingBalance   types.Money `json:"outstanding_balance"`
	PenaltiesOutstanding types.Money `json:"penalties_outstanding"`
}

// AmortizationEntry is one persisted row of a loan's schedule, generated
// once at disbursement and immutable thereafter except for payment
// progress. Penalties attach as child rows, never as edits.
type AmortizationEntry struct {
	types.Entity
	ID       id.EntryID `json:"id"`
	LoanID   id.LoanID  `json:"loan_id"`
	Sequence int        `json:"sequence"`
	DueDate  time.Time  `json:"due_date"`

	Interest     types.Money `json:"interest"`
	Principal    types.Money `json:"principal"`
	BalanceAfter types.Money `json:"balance_after"`

	InterestPaid  types.Money `json:"interest_paid"`
	PrincipalPaid types.Money `json:"principal_paid"`
	Paid          bool        `json:"paid"`
}

// InterestDue returns the entry's unpaid interest remainder.
func (e *AmortizationEntry) InterestDue() types.Money {
	return e.Interest.Subtract(e.InterestPaid)
}

// PrincipalDue returns the entry's unpaid principal remainder.
func (e *AmortizationEntry) PrincipalDue() types.Money {
	return e.Principal.Subtract(e.PrincipalPaid)
}

// EntriesFromSchedule converts generated schedule rows into persisted
// amortization entries for a loan.
func EntriesFromSchedule(loanID id.LoanID, rows []schedule.Entry) []*AmortizationEntry {
	entries := make([]*AmortizationEntry, len(rows))
	for i, row := range rows {
		entries[i] = &AmortizationEntry{
			Entity:        types.NewEntity(),
			ID:            id.NewEntryID(),
			LoanID:        loanID,
			Sequence:      row.Sequence,
			DueDate:       row.DueDate,
			Interest:      row.Interest,
			Principal:     row.Principal,
			BalanceAfter:  row.BalanceAfter,
			InterestPaid:  types.Zero(row.Principal.Currency),
			PrincipalPaid: types.Zero(row.Principal.Currency),
		}
	}
	return entries
}

// Penalty is a charge attached to an amortization entry. The collectible
// remainder is NetPenalty minus the waived and already-paid portions.
// A paid penalty cannot be waived.
type Penalty struct {
	types.Entity
	ID      id.PenaltyID `json:"id"`
	LoanID  id.LoanID    `json:"loan_id"`
	EntryID id.EntryID   `json:"entry_id"`

	NetPenalty  types.Money `json:"net_penalty"`
	Waived      types.Money `json:"waived_amount"`
	PaidAmount  types.Money `json:"paid_amount"`
	Paid        bool        `json:"is_paid"`
	Reason      string      `json:"reason,omitempty"`
	WaiveReason string      `json:"waive_reason,omitempty"`
}

// Collectible returns the penalty's remaining collectible amount.
func (p *Penalty) Collectible() types.Money {
	return p.NetPenalty.Subtract(p.Waived).Subtract(p.PaidAmount)
}

// PaymentSplit reports how an incoming loan payment was divided:
// penalties first, then interest of the earliest unpaid entry, then
// principal.
type PaymentSplit struct {
	PenaltyPaid   types.Money `json:"penalty_paid"`
	InterestPaid  types.Money `json:"interest_paid"`
	PrincipalPaid types.Money `json:"principal_paid"`
}

// Total returns the sum of the split components.
func (s PaymentSplit) Total() types.Money {
	return s.PenaltyPaid.Add(s.InterestPaid).Add(s.PrincipalPaid)
}

// ApplyPayment splits amount across the loan's penalties and schedule in
// place: oldest unpaid penalty first, then interest before principal for
// each unpaid entry in sequence order. The account's outstanding balance,
// penalties outstanding and status are recomputed as part of the same
// application. Entries must be sorted by sequence and penalties by
// creation order.
func ApplyPayment(acct *Account, entries []*AmortizationEntry, penalties []*Penalty, amount types.Money, date time.Time) (*PaymentSplit, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("loan: payment amount must be positive, got %s", amount)
	}
	ceiling := acct.OutstandingBalance.Add(acct.PenaltiesOutstanding)
	if amount.GreaterThan(ceiling) {
		return nil, fmt.Errorf("loan: payment %s exceeds outstanding %s", amount, ceiling)
	}

	zero := types.Zero(amount.Currency)
	split := &PaymentSplit{PenaltyPaid: zero, InterestPaid: zero, PrincipalPaid: zero}
	remaining := amount

	for _, pen := range penalties {
		if remaining.IsZero() {
			break
		}
		if pen.Paid {
			continue
		}
		pay := remaining.Min(pen.Collectible())
		if !pay.IsPositive() {
			continue
		}
		pen.PaidAmount = pen.PaidAmount.Add(pay)
		if pen.Collectible().IsZero() {
			pen.Paid = true
		}
		pen.Touch()
		remaining = remaining.Subtract(pay)
		split.PenaltyPaid = split.PenaltyPaid.Add(pay)
	}

	for _, entry := range entries {
		if remaining.IsZero() {
			break
		}
		if entry.Paid {
			continue
		}

		if due := entry.InterestDue(); due.IsPositive() {
			pay := remaining.Min(due)
			entry.InterestPaid = entry.InterestPaid.Add(pay)
			remaining = remaining.Subtract(pay)
			split.InterestPaid = split.InterestPaid.Add(pay)
		}
		if remaining.IsPositive() {
			if due := entry.PrincipalDue(); due.IsPositive() {
				pay := remaining.Min(due)
				entry.PrincipalPaid = entry.PrincipalPaid.Add(pay)
				remaining = remaining.Subtract(pay)
				split.PrincipalPaid = split.PrincipalPaid.Add(pay)
			}
		}
		if entry.InterestDue().IsZero() && entry.PrincipalDue().IsZero() {
			entry.Paid = true
		}
		entry.Touch()
	}

	acct.OutstandingBalance = acct.OutstandingBalance.Subtract(split.InterestPaid).Subtract(split.PrincipalPaid)
	acct.PenaltiesOutstanding = acct.PenaltiesOutstanding.Subtract(split.PenaltyPaid)

	if acct.Status == StatusDisbursed {
		acct.Status = StatusActive
	}
	if acct.OutstandingBalance.IsZero() && acct.PenaltiesOutstanding.IsZero() {
		acct.Status = StatusPaid
		closed := date
		acct.ClosedAt = &closed
	}
	acct.Touch()

	return split, nil
}

// ScheduleTotal returns the full schedule obligation (interest plus
// principal) for freshly generated entries.
func ScheduleTotal(entries []*AmortizationEntry, currency string) types.Money {
	total := types.Zero(currency)
	for _, e := range entries {
		total = total.Add(e.Interest).Add(e.Principal)
	}
	return total
}
