// Package guard holds the pre-mutation business rules. Every check is a
// pure predicate over current state and a proposed change: it either
// returns nil or a RuleError naming the limit that refused the change.
// Callers run the check under the same lock as the mutation so the state
// it saw is the state the mutation applies to.
package guard

import (
	"errors"
	"fmt"

	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/share"
	"github.com/coopcore/ledger/types"
	"github.com/coopcore/ledger/wallet"
)

// Sentinel errors for each rule. RuleError wraps these, so callers match
// with errors.Is.
var (
	ErrCreditLimitReached       = errors.New("ledger: party credit limit reached")
	ErrPaymentExceedsOpen       = errors.New("ledger: payment exceeds open obligations")
	ErrPaymentExceedsLoan       = errors.New("ledger: payment exceeds loan outstanding plus penalties")
	ErrBelowMinimumBalance      = errors.New("ledger: withdrawal would breach minimum balance")
	ErrShareOverpaid            = errors.New("ledger: payment exceeds unpaid subscription")
	ErrWalletCategoryNotAllowed = errors.New("ledger: product category not allowed for wallet")
	ErrWalletInsufficient       = errors.New("ledger: wallet balance insufficient")
	ErrNotPositive              = errors.New("ledger: amount must be positive")
)

// RuleError is a refused mutation with the limit and the requested
// amount that broke it.
type RuleError struct {
	Rule      error
	Limit     types.Money
	Requested types.Money
	Detail    string
}

func (e *RuleError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (limit %s, requested %s)", e.Rule, e.Detail, e.Limit, e.Requested)
	}
	return fmt.Sprintf("%s (limit %s, requested %s)", e.Rule, e.Limit, e.Requested)
}

func (e *RuleError) Unwrap() error { return e.Rule }

func refuse(rule error, limit, requested types.Money) *RuleError {
	return &RuleError{Rule: rule, Limit: limit, Requested: requested}
}

// CheckPositive refuses zero and negative amounts.
func CheckPositive(amount types.Money) error {
	if !amount.IsPositive() {
		return refuse(ErrNotPositive, types.Zero(amount.Currency), amount)
	}
	return nil
}

// CheckCredit refuses a new obligation that would push the party past its
// credit limit. Parties without a limit always pass.
func CheckCredit(p *party.Party, amount types.Money) error {
	if err := CheckPositive(amount); err != nil {
		return err
	}
	if !p.HasCreditLimit() {
		return nil
	}
	if amount.GreaterThan(p.AvailableCredit()) {
		return refuse(ErrCreditLimitReached, p.AvailableCredit(), amount)
	}
	return nil
}

// CheckReceivablePayment refuses a payment above the party's open
// obligations plus the configured overpayment tolerance.
func CheckReceivablePayment(openTotal, amount, tolerance types.Money) error {
	if err := CheckPositive(amount); err != nil {
		return err
	}
	ceiling := openTotal.Add(tolerance)
	if amount.GreaterThan(ceiling) {
		return refuse(ErrPaymentExceedsOpen, ceiling, amount)
	}
	return nil
}

// CheckLoanPayment refuses a payment above the loan's outstanding
// balance plus collectible penalties.
func CheckLoanPayment(acct *loan.Account, amount types.Money) error {
	if err := CheckPositive(amount); err != nil {
		return err
	}
	ceiling := acct.OutstandingBalance.Add(acct.PenaltiesOutstanding)
	if amount.GreaterThan(ceiling) {
		return refuse(ErrPaymentExceedsLoan, ceiling, amount)
	}
	return nil
}

// CheckWithdrawal refuses a withdrawal that would take the savings
// account below its minimum balance.
func CheckWithdrawal(acct *savings.Account, amount types.Money) error {
	if err := CheckPositive(amount); err != nil {
		return err
	}
	if amount.GreaterThan(acct.Withdrawable()) {
		return refuse(ErrBelowMinimumBalance, acct.Withdrawable(), amount)
	}
	return nil
}

// CheckSharePayment refuses a subscription payment above the unpaid
// balance. Whole-share granularity is not required; remainders accumulate
// toward the next paid-up share.
func CheckSharePayment(acct *share.Account, amount types.Money) error {
	if err := CheckPositive(amount); err != nil {
		return err
	}
	if amount.GreaterThan(acct.Unpaid()) {
		return refuse(ErrShareOverpaid, acct.Unpaid(), amount)
	}
	return nil
}

// CheckWalletCharge refuses a charge for a category outside the wallet's
// allow-list, or one the balance cannot cover. The category check runs
// first: a disallowed purchase is refused even when the balance would
// cover it, and the refusal names the wallet, the product and the
// category.
func CheckWalletCharge(w *wallet.Wallet, product, category string, amount types.Money) error {
	if err := CheckPositive(amount); err != nil {
		return err
	}
	if !w.Allows(category) {
		return &RuleError{
			Rule:      ErrWalletCategoryNotAllowed,
			Limit:     w.Balance,
			Requested: amount,
			Detail:    fmt.Sprintf("wallet %q does not cover product %q in category %q", w.Name, product, category),
		}
	}
	if !w.CanCover(amount) {
		return refuse(ErrWalletInsufficient, w.Balance, amount)
	}
	return nil
}
