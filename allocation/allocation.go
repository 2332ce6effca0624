// Package allocation splits an incoming payment across a party's open
// obligations. The engine is pure: it proposes allocations, the caller
// persists them.
package allocation

import (
	"errors"
	"fmt"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/types"
)

var (
	// ErrUnknownObligation is an explicit request naming an obligation not
	// in the open set.
	ErrUnknownObligation = errors.New("allocation: obligation not in open set")
	// ErrOverAllocated is an explicit request above an obligation's
	// outstanding remainder. The whole payment is refused, nothing is
	// partially applied.
	ErrOverAllocated = errors.New("allocation: requested amount exceeds obligation outstanding")
	// ErrExceedsPayment is a set of explicit requests summing above the
	// payment amount.
	ErrExceedsPayment = errors.New("allocation: requests exceed payment amount")
	// ErrDuplicateTarget is the same obligation named twice in one request.
	ErrDuplicateTarget = errors.New("allocation: duplicate obligation in request")
)

// Entry is one proposed allocation: a slice of the payment aimed at one
// obligation.
type Entry struct {
	ObligationID id.ObligationID
	Amount       types.Money
}

// Result is the engine's proposal. Leftover is the payment remainder not
// absorbed by any obligation; whether that remainder is acceptable is the
// caller's overpayment-tolerance decision, not the engine's.
type Result struct {
	Entries  []Entry
	Leftover types.Money
}

// Allocated returns the portion of the payment the proposal absorbs.
func (r *Result) Allocated() types.Money {
	total := types.Zero(r.Leftover.Currency)
	for _, e := range r.Entries {
		total = total.Add(e.Amount)
	}
	return total
}

// FIFO greedily fills the open obligations in order until the payment
// runs out. The obligations must already be in settlement order (due
// date ascending, creation order on ties); the engine does not re-sort.
func FIFO(open []*posting.Obligation, amount types.Money) (*Result, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("allocation: payment amount must be positive, got %s", amount)
	}

	remaining := amount
	var entries []Entry
	for _, o := range open {
		if remaining.IsZero() {
			break
		}
		if !o.IsOpen() {
			continue
		}
		outstanding := o.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		take := remaining.Min(outstanding)
		entries = append(entries, Entry{ObligationID: o.ID, Amount: take})
		remaining = remaining.Subtract(take)
	}

	return &Result{Entries: entries, Leftover: remaining}, nil
}

// Explicit validates caller-directed allocations against the open set.
// All-or-nothing: one bad request refuses the whole payment. Requests
// summing below the payment leave the difference as Leftover.
func Explicit(open []*posting.Obligation, requests []Entry, amount types.Money) (*Result, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("allocation: payment amount must be positive, got %s", amount)
	}

	byID := make(map[string]*posting.Obligation, len(open))
	for _, o := range open {
		byID[o.ID.String()] = o
	}

	seen := make(map[string]struct{}, len(requests))
	total := types.Zero(amount.Currency)
	entries := make([]Entry, 0, len(requests))

	for _, req := range requests {
		if !req.Amount.IsPositive() {
			return nil, fmt.Errorf("allocation: request for %s must be positive, got %s", req.ObligationID, req.Amount)
		}
		if _, dup := seen[req.ObligationID.String()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTarget, req.ObligationID)
		}
		seen[req.ObligationID.String()] = struct{}{}

		o, ok := byID[req.ObligationID.String()]
		if !ok || !o.IsOpen() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObligation, req.ObligationID)
		}
		if req.Amount.GreaterThan(o.Outstanding()) {
			return nil, fmt.Errorf("%w: %s outstanding %s, requested %s",
				ErrOverAllocated, req.ObligationID, o.Outstanding(), req.Amount)
		}

		total = total.Add(req.Amount)
		entries = append(entries, req)
	}

	if total.GreaterThan(amount) {
		return nil, fmt.Errorf("%w: requested %s, payment %s", ErrExceedsPayment, total, amount)
	}

	return &Result{Entries: entries, Leftover: amount.Subtract(total)}, nil
}
