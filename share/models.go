// Package share defines share capital subscription accounts.
package share

import (
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/types"
)

// Account is a member's share capital subscription. The member commits
// to SubscribedShares at ParValue each and pays the subscription down
// over time; PaidUpShares is derived, never stored input.
type Account struct {
	types.Entity
	ID       id.ShareID `json:"id"`
	PartyID  id.PartyID `json:"party_id"`
	TenantID string     `json:"tenant_id"`

	SubscribedShares int64       `json:"subscribed_shares"`
	ParValue         types.Money `json:"par_value"`
	PaidAmount       types.Money `json:"paid_amount"`
}

// SubscribedTotal returns the full peso value of the subscription.
func (a *Account) SubscribedTotal() types.Money {
	return a.ParValue.Multiply(a.SubscribedShares)
}

// Unpaid returns the remaining subscription balance. Payments above this
// are refused.
func (a *Account) Unpaid() types.Money {
	return a.SubscribedTotal().Subtract(a.PaidAmount)
}

// PaidUpShares returns how many whole shares the paid amount covers.
// Partial-share remainders stay in PaidAmount until they complete a share.
func (a *Account) PaidUpShares() int64 {
	if a.ParValue.Amount <= 0 {
		return 0
	}
	return a.PaidAmount.Amount / a.ParValue.Amount
}

// FullyPaid reports whether the whole subscription has been paid.
func (a *Account) FullyPaid() bool {
	return a.Unpaid().IsZero()
}
