package party

import (
	"context"

	"github.com/coopcore/ledger/id"
)

type Store interface {
	Create(ctx context.Context, p *Party) error
	Get(ctx context.Context, partyID id.PartyID) (*Party, error)
	List(ctx context.Context, tenantID string, opts ListOpts) ([]*Party, error)
	Update(ctx context.Context, p *Party) error
}

type ListOpts struct {
	Kind   Kind
	Limit  int
	Offset int
}
