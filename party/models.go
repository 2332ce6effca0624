// Package party defines customers and suppliers, the owners of ledger postings.
package party

import (
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/types"
)

// Kind distinguishes the receivable side (customers owe us) from the
// payable side (we owe suppliers).
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
)

// Party is a customer or supplier. OutstandingTotal is a denormalized
// cache of the sum of open posting amounts; it has a single writer path
// (the store's atomic posting methods) and is recomputed transactionally
// with every posting.
type Party struct {
	types.Entity
	ID               id.PartyID  `json:"id"`
	TenantID         string      `json:"tenant_id"`
	Kind             Kind        `json:"kind"`
	Name             string      `json:"name"`
	OutstandingTotal types.Money `json:"outstanding_total"`
	// CreditLimit applies to the receivable side only. Zero means no limit.
	CreditLimit types.Money       `json:"credit_limit"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AvailableCredit returns the remaining credit headroom for a customer.
// Returns a negative value when the party is over its limit.
func (p *Party) AvailableCredit() types.Money {
	return p.CreditLimit.Subtract(p.OutstandingTotal)
}

// HasCreditLimit reports whether a credit limit is configured.
func (p *Party) HasCreditLimit() bool {
	return p.Kind == KindCustomer && p.CreditLimit.IsPositive()
}
