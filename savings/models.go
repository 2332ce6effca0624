// Package savings defines regular savings accounts, their movement log,
// and time deposit placements.
package savings

import (
	"time"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/types"
)

// AccountStatus is the lifecycle state of a savings account.
type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountDormant AccountStatus = "dormant"
	AccountClosed  AccountStatus = "closed"
)

// Account is a regular savings account. Balance never drops below
// MinimumBalance through withdrawals; the store enforces that invariant
// atomically with each movement.
type Account struct {
	types.Entity
	ID             id.SavingsID  `json:"id"`
	PartyID        id.PartyID    `json:"party_id"`
	TenantID       string        `json:"tenant_id"`
	Status         AccountStatus `json:"status"`
	Balance        types.Money   `json:"balance"`
	MinimumBalance types.Money   `json:"minimum_balance"`
}

// Withdrawable returns how much can leave the account without breaching
// the minimum balance.
func (a *Account) Withdrawable() types.Money {
	w := a.Balance.Subtract(a.MinimumBalance)
	if w.IsNegative() {
		return types.Zero(a.Balance.Currency)
	}
	return w
}

// MovementKind classifies a savings movement.
type MovementKind string

const (
	MovementDeposit        MovementKind = "deposit"
	MovementWithdrawal     MovementKind = "withdrawal"
	MovementInterestCredit MovementKind = "interest_credit"
	MovementDepositPayout  MovementKind = "time_deposit_payout"
)

// Movement is one append-only row of a savings account's history.
// Amount is positive for money in, negative for money out; BalanceAfter
// is the account balance immediately after the movement.
type Movement struct {
	types.Entity
	ID           id.MovementID `json:"id"`
	AccountID    id.SavingsID  `json:"account_id"`
	Kind         MovementKind  `json:"kind"`
	Amount       types.Money   `json:"amount"`
	BalanceAfter types.Money   `json:"balance_after"`
	Reference    string        `json:"reference,omitempty"`
	Date         time.Time     `json:"date"`
}

// DepositStatus is the lifecycle state of a time deposit placement.
type DepositStatus string

const (
	DepositActive        DepositStatus = "active"
	DepositMatured       DepositStatus = "matured"
	DepositPreTerminated DepositStatus = "pre_terminated"
)

// TimeDeposit is a placement of principal for a fixed term. Interest
// follows the placement's terms; settlement pays out into the linked
// savings account.
type TimeDeposit struct {
	types.Entity
	ID        id.TimeDepositID      `json:"id"`
	AccountID id.SavingsID          `json:"account_id"`
	PartyID   id.PartyID            `json:"party_id"`
	TenantID  string                `json:"tenant_id"`
	Terms     schedule.DepositTerms `json:"terms"`
	Status    DepositStatus         `json:"status"`

	ClosedAt *time.Time  `json:"closed_at,omitempty"`
	Payout   types.Money `json:"payout"`
	// InterestEarned is the total interest credited over the placement's
	// life, set at settlement.
	InterestEarned types.Money `json:"interest_earned"`
}

// Open reports whether the placement can still mature or pre-terminate.
func (d *TimeDeposit) Open() bool {
	return d.Status == DepositActive
}
