package wallet

import (
	"context"

	"github.com/coopcore/ledger/id"
)

// Store persists restricted-use wallets.
type Store interface {
	Create(ctx context.Context, w *Wallet) error
	Get(ctx context.Context, walletID id.WalletID) (*Wallet, error)
	List(ctx context.Context, opts ListOpts) ([]*Wallet, error)
	// Update persists balance changes from charges and top-ups.
	Update(ctx context.Context, w *Wallet) error
}

type ListOpts struct {
	PartyID  id.PartyID
	TenantID string
	Limit    int
	Offset   int
}
