package savings

import (
	"context"

	"github.com/coopcore/ledger/id"
)

// Store persists savings accounts, their movement log, and time deposit
// placements. Balance changes and their movement rows are written in one
// atomic unit.
type Store interface {
	CreateAccount(ctx context.Context, acct *Account) error
	GetAccount(ctx context.Context, savID id.SavingsID) (*Account, error)
	ListAccounts(ctx context.Context, opts ListOpts) ([]*Account, error)
	UpdateAccount(ctx context.Context, acct *Account) error

	// RecordMovement persists the movement row and the account's updated
	// balance in one atomic unit. The caller has already mutated the
	// account and stamped the movement's BalanceAfter.
	RecordMovement(ctx context.Context, acct *Account, mov *Movement) error
	// ListMovements returns an account's movements newest first.
	ListMovements(ctx context.Context, savID id.SavingsID, opts ListOpts) ([]*Movement, error)

	CreateTimeDeposit(ctx context.Context, dep *TimeDeposit) error
	GetTimeDeposit(ctx context.Context, depID id.TimeDepositID) (*TimeDeposit, error)
	ListTimeDeposits(ctx context.Context, opts ListOpts) ([]*TimeDeposit, error)
	// SettleTimeDeposit persists the closed placement, the payout
	// movement, and the credited account balance in one atomic unit.
	SettleTimeDeposit(ctx context.Context, dep *TimeDeposit, acct *Account, mov *Movement) error
}

type ListOpts struct {
	PartyID  id.PartyID
	TenantID string
	Limit    int
	Offset   int
}
