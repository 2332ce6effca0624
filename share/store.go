package share

import (
	"context"

	"github.com/coopcore/ledger/id"
)

// Store persists share capital accounts.
type Store interface {
	Create(ctx context.Context, acct *Account) error
	Get(ctx context.Context, shareID id.ShareID) (*Account, error)
	List(ctx context.Context, opts ListOpts) ([]*Account, error)
	// Update persists a changed paid amount. Subscription payments are the
	// only writer of PaidAmount.
	Update(ctx context.Context, acct *Account) error
}

type ListOpts struct {
	PartyID  id.PartyID
	TenantID string
	Limit    int
	Offset   int
}
