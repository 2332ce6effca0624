// Package wallet defines restricted-use wallets: prepaid balances that
// may only be spent on an allow-listed set of product categories.
package wallet

import (
	"strings"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/types"
)

// Wallet is a prepaid balance restricted to specific product categories.
// An empty AllowedCategories list means the wallet spends on nothing; the
// allow-list is explicit, never open-ended.
type Wallet struct {
	types.Entity
	ID                id.WalletID `json:"id"`
	PartyID           id.PartyID  `json:"party_id"`
	TenantID          string      `json:"tenant_id"`
	Name              string      `json:"name"`
	Balance           types.Money `json:"balance"`
	AllowedCategories []string    `json:"allowed_categories"`
}

// Allows reports whether the wallet may be charged for the given product
// category. Matching is case-insensitive.
func (w *Wallet) Allows(category string) bool {
	for _, c := range w.AllowedCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// CanCover reports whether the balance covers the amount.
func (w *Wallet) CanCover(amount types.Money) bool {
	return !amount.GreaterThan(w.Balance)
}
