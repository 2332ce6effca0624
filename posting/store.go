package posting

import (
	"context"
	"time"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/types"
)

// Store persists ledger postings. Every mutating method is a single
// atomic unit: the posting write and the owning party's denormalized
// outstanding total always change together or not at all.
type Store interface {
	// AppendObligation inserts an obligation posting and adds its amount
	// to the party's outstanding total.
	AppendObligation(ctx context.Context, o *Obligation) error
	Get(ctx context.Context, oblID id.ObligationID) (*Obligation, error)
	// ListOpen returns open obligations for a party ordered ascending by
	// due date, ties broken by creation order (FIFO allocation order).
	ListOpen(ctx context.Context, partyID id.PartyID) ([]*Obligation, error)
	// ListOpenByTenant returns all open obligations across a tenant's
	// parties, in the same FIFO order.
	ListOpenByTenant(ctx context.Context, tenantID string) ([]*Obligation, error)
	ListObligations(ctx context.Context, partyID id.PartyID, opts ListOpts) ([]*Obligation, error)
	// Reverse flips the reversed flag and removes the obligation's amount
	// from the party's outstanding total.
	Reverse(ctx context.Context, oblID id.ObligationID, at time.Time) error

	// RecordPayment inserts the payment posting and its allocations,
	// bumps each target obligation's allocated total (setting the paid
	// date when fully allocated), and subtracts the payment magnitude
	// from the party's outstanding total, all in one atomic unit.
	RecordPayment(ctx context.Context, p *Payment, allocs []*Allocation) error
	GetPayment(ctx context.Context, payID id.PaymentID) (*Payment, error)
	ListPayments(ctx context.Context, partyID id.PartyID, opts ListOpts) ([]*Payment, error)
	ListAllocations(ctx context.Context, payID id.PaymentID) ([]*Allocation, error)

	// LatestBalanceBefore returns the balance_after of the latest posting
	// (obligation or payment) strictly before the given instant. The bool
	// is false when the party has no posting before that instant.
	LatestBalanceBefore(ctx context.Context, partyID id.PartyID, before time.Time) (types.Money, bool, error)
}

type ListOpts struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
