// Package posting defines the append-mostly ledger postings: obligations
// (charges/invoices), payments, and the allocations linking them.
package posting

import (
	"time"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/types"
)

// OriginKind identifies the business document an obligation came from.
type OriginKind string

const (
	OriginSale          OriginKind = "sale"
	OriginPurchaseOrder OriginKind = "purchase_order"
	OriginLoan          OriginKind = "loan"
	OriginAdjustment    OriginKind = "adjustment"
)

// Origin is the reference back to the source document.
type Origin struct {
	Kind      OriginKind `json:"kind"`
	Reference string     `json:"reference,omitempty"`
}

// Obligation is a stored charge/invoice posting. Amount is always
// positive at creation. An obligation with PaidDate == nil and
// Reversed == false is open; its outstanding amount is Amount minus the
// allocations recorded against it (AllocatedTotal is the denormalized sum,
// maintained atomically with each allocation).
type Obligation struct {
	types.Entity
	ID             id.ObligationID `json:"id"`
	PartyID        id.PartyID      `json:"party_id"`
	Amount         types.Money     `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	PaidDate       *time.Time      `json:"paid_date,omitempty"`
	Reversed       bool            `json:"reversed"`
	ReversedAt     *time.Time      `json:"reversed_at,omitempty"`
	AllocatedTotal types.Money     `json:"allocated_total"`
	// BalanceAfter is the running balance of the party's ledger
	// immediately after this posting was appended.
	BalanceAfter types.Money `json:"balance_after"`
	Origin       Origin      `json:"origin"`
}

// IsOpen reports whether the obligation still carries an outstanding amount.
func (o *Obligation) IsOpen() bool {
	return o.PaidDate == nil && !o.Reversed
}

// Outstanding returns the unallocated remainder of the obligation.
func (o *Obligation) Outstanding() types.Money {
	if !o.IsOpen() {
		return types.Zero(o.Amount.Currency)
	}
	return o.Amount.Subtract(o.AllocatedTotal)
}

// DaysOverdue returns how many whole days past due the obligation is at
// the reference date. Not-yet-due obligations return zero.
func (o *Obligation) DaysOverdue(reference time.Time) int {
	days := int(reference.Sub(o.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Method is the tender type of a payment.
type Method string

const (
	MethodCash   Method = "cash"
	MethodCheck  Method = "check"
	MethodBank   Method = "bank_transfer"
	MethodWallet Method = "wallet"
)

// Payment is a cash-in (receivable) or cash-out (payable) posting.
// Amount is stored negative by convention; its magnitude is the cash
// received or disbursed.
type Payment struct {
	types.Entity
	ID        id.PaymentID `json:"id"`
	PartyID   id.PartyID   `json:"party_id"`
	Amount    types.Money  `json:"amount"`
	Method    Method       `json:"method"`
	Reference string       `json:"reference,omitempty"`
	Date      time.Time    `json:"date"`
	// BalanceAfter is the running balance of the party's ledger
	// immediately after this posting was appended.
	BalanceAfter types.Money `json:"balance_after"`
}

// Allocation records the portion of a payment applied to a specific
// obligation. For any payment, sum(allocation amounts) <= |payment amount|;
// for any obligation, sum(allocations against it) <= obligation amount.
type Allocation struct {
	types.Entity
	ID           id.AllocationID `json:"id"`
	PaymentID    id.PaymentID    `json:"payment_id"`
	ObligationID id.ObligationID `json:"obligation_id"`
	Amount       types.Money     `json:"amount"`
}
