package loan

import (
	"context"

	"github.com/coopcore/ledger/id"
)

// Store persists loan accounts, their amortization entries, and
// penalties. Methods touching an account together with its child rows
// are single atomic units.
type Store interface {
	CreateAccount(ctx context.Context, acct *Account) error
	GetAccount(ctx context.Context, loanID id.LoanID) (*Account, error)
	ListAccounts(ctx context.Context, opts ListOpts) ([]*Account, error)
	// UpdateAccount persists lifecycle-only changes (approve, reject,
	// default). Disbursement and payments use the composite methods below.
	UpdateAccount(ctx context.Context, acct *Account) error

	// Disburse persists the generated schedule entries and the account's
	// transition to disbursed in one atomic unit.
	Disburse(ctx context.Context, acct *Account, entries []*AmortizationEntry) error
	// ListEntries returns a loan's schedule ordered by sequence.
	ListEntries(ctx context.Context, loanID id.LoanID) ([]*AmortizationEntry, error)

	// AddPenalty inserts the penalty and the account's bumped penalties
	// outstanding in one atomic unit.
	AddPenalty(ctx context.Context, acct *Account, pen *Penalty) error
	GetPenalty(ctx context.Context, penID id.PenaltyID) (*Penalty, error)
	// ListPenalties returns a loan's penalties in creation order.
	ListPenalties(ctx context.Context, loanID id.LoanID) ([]*Penalty, error)
	// SaveWaiver persists a waived penalty and the account's reduced
	// penalties outstanding in one atomic unit.
	SaveWaiver(ctx context.Context, acct *Account, pen *Penalty) error

	// SavePaymentApplication persists the account, every touched entry,
	// and every touched penalty after ApplyPayment, in one atomic unit.
	SavePaymentApplication(ctx context.Context, acct *Account, entries []*AmortizationEntry, penalties []*Penalty) error
}

type ListOpts struct {
	PartyID  id.PartyID
	TenantID string
	Status   Status
	Limit    int
	Offset   int
}
