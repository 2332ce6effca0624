package store

import (
	"context"
	"time"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/share"
	"github.com/coopcore/ledger/types"
	"github.com/coopcore/ledger/wallet"
)

// Store is the unified storage interface for all ledger entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts. Composite methods (RecordPayment, Disburse,
// SettleTimeDeposit and the like) are single atomic units: every row they
// touch changes together or not at all.
type Store interface {
	// Party methods
	CreateParty(ctx context.Context, p *party.Party) error
	GetParty(ctx context.Context, partyID id.PartyID) (*party.Party, error)
	ListParties(ctx context.Context, tenantID string, opts party.ListOpts) ([]*party.Party, error)
	UpdateParty(ctx context.Context, p *party.Party) error

	// Posting methods
	AppendObligation(ctx context.Context, o *posting.Obligation) error
	GetObligation(ctx context.Context, oblID id.ObligationID) (*posting.Obligation, error)
	ListOpenObligations(ctx context.Context, partyID id.PartyID) ([]*posting.Obligation, error)
	ListOpenObligationsByTenant(ctx context.Context, tenantID string) ([]*posting.Obligation, error)
	ListObligations(ctx context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Obligation, error)
	ReverseObligation(ctx context.Context, oblID id.ObligationID, at time.Time) error
	RecordPayment(ctx context.Context, p *posting.Payment, allocs []*posting.Allocation) error
	GetPayment(ctx context.Context, payID id.PaymentID) (*posting.Payment, error)
	ListPayments(ctx context.Context, partyID id.PartyID, opts posting.ListOpts) ([]*posting.Payment, error)
	ListAllocations(ctx context.Context, payID id.PaymentID) ([]*posting.Allocation, error)
	LatestBalanceBefore(ctx context.Context, partyID id.PartyID, before time.Time) (types.Money, bool, error)

	// Loan methods
	CreateLoan(ctx context.Context, acct *loan.Account) error
	GetLoan(ctx context.Context, loanID id.LoanID) (*loan.Account, error)
	ListLoans(ctx context.Context, opts loan.ListOpts) ([]*loan.Account, error)
	UpdateLoan(ctx context.Context, acct *loan.Account) error
	DisburseLoan(ctx context.Context, acct *loan.Account, entries []*loan.AmortizationEntry) error
	ListLoanEntries(ctx context.Context, loanID id.LoanID) ([]*loan.AmortizationEntry, error)
	AddPenalty(ctx context.Context, acct *loan.Account, pen *loan.Penalty) error
	GetPenalty(ctx context.Context, penID id.PenaltyID) (*loan.Penalty, error)
	ListPenalties(ctx context.Context, loanID id.LoanID) ([]*loan.Penalty, error)
	SaveWaiver(ctx context.Context, acct *loan.Account, pen *loan.Penalty) error
	SaveLoanPayment(ctx context.Context, acct *loan.Account, entries []*loan.AmortizationEntry, penalties []*loan.Penalty) error

	// Savings methods
	CreateSavings(ctx context.Context, acct *savings.Account) error
	GetSavings(ctx context.Context, savID id.SavingsID) (*savings.Account, error)
	ListSavings(ctx context.Context, opts savings.ListOpts) ([]*savings.Account, error)
	UpdateSavings(ctx context.Context, acct *savings.Account) error
	RecordMovement(ctx context.Context, acct *savings.Account, mov *savings.Movement) error
	ListMovements(ctx context.Context, savID id.SavingsID, opts savings.ListOpts) ([]*savings.Movement, error)
	CreateTimeDeposit(ctx context.Context, dep *savings.TimeDeposit) error
	GetTimeDeposit(ctx context.Context, depID id.TimeDepositID) (*savings.TimeDeposit, error)
	ListTimeDeposits(ctx context.Context, opts savings.ListOpts) ([]*savings.TimeDeposit, error)
	SettleTimeDeposit(ctx context.Context, dep *savings.TimeDeposit, acct *savings.Account, mov *savings.Movement) error

	// Share methods
	CreateShare(ctx context.Context, acct *share.Account) error
	GetShare(ctx context.Context, shareID id.ShareID) (*share.Account, error)
	ListShares(ctx context.Context, opts share.ListOpts) ([]*share.Account, error)
	UpdateShare(ctx context.Context, acct *share.Account) error

	// Wallet methods
	CreateWallet(ctx context.Context, w *wallet.Wallet) error
	GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error)
	ListWallets(ctx context.Context, opts wallet.ListOpts) ([]*wallet.Wallet, error)
	UpdateWallet(ctx context.Context, w *wallet.Wallet) error

	// Sequence methods
	NextSequence(ctx context.Context, tenantID, scope string) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
