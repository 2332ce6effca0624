package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/share"
	"github.com/coopcore/ledger/types"
	"github.com/coopcore/ledger/wallet"
)

func TestCheckPositive(t *testing.T) {
	assert.NoError(t, CheckPositive(types.PHP(1)))
	assert.ErrorIs(t, CheckPositive(types.PHP(0)), ErrNotPositive)
	assert.ErrorIs(t, CheckPositive(types.PHP(-500)), ErrNotPositive)
}

func TestCheckCredit(t *testing.T) {
	customer := &party.Party{
		ID:               id.NewPartyID(),
		Kind:             party.KindCustomer,
		OutstandingTotal: types.PHP(8000),
		CreditLimit:      types.PHP(10000),
	}

	assert.NoError(t, CheckCredit(customer, types.PHP(2000)), "exactly at the limit passes")
	assert.ErrorIs(t, CheckCredit(customer, types.PHP(2001)), ErrCreditLimitReached)

	// No configured limit means no ceiling.
	unlimited := &party.Party{Kind: party.KindCustomer, OutstandingTotal: types.PHP(8000), CreditLimit: types.PHP(0)}
	assert.NoError(t, CheckCredit(unlimited, types.PHP(1_000_000)))

	// Suppliers are never credit-limited.
	supplier := &party.Party{Kind: party.KindSupplier, OutstandingTotal: types.PHP(8000), CreditLimit: types.PHP(10)}
	assert.NoError(t, CheckCredit(supplier, types.PHP(5000)))
}

func TestCheckCreditRuleError(t *testing.T) {
	customer := &party.Party{
		Kind:             party.KindCustomer,
		OutstandingTotal: types.PHP(9500),
		CreditLimit:      types.PHP(10000),
	}
	err := CheckCredit(customer, types.PHP(600))
	require.Error(t, err)

	var rerr *RuleError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, types.PHP(500), rerr.Limit)
	assert.Equal(t, types.PHP(600), rerr.Requested)
}

func TestCheckReceivablePayment(t *testing.T) {
	open := types.PHP(5000)

	assert.NoError(t, CheckReceivablePayment(open, types.PHP(5000), types.PHP(0)))
	assert.ErrorIs(t, CheckReceivablePayment(open, types.PHP(5001), types.PHP(0)), ErrPaymentExceedsOpen)

	// A configured tolerance lifts the ceiling.
	assert.NoError(t, CheckReceivablePayment(open, types.PHP(5050), types.PHP(100)))
	assert.ErrorIs(t, CheckReceivablePayment(open, types.PHP(5101), types.PHP(100)), ErrPaymentExceedsOpen)
}

func TestCheckLoanPayment(t *testing.T) {
	acct := &loan.Account{
		Status:               loan.StatusActive,
		OutstandingBalance:   types.PHP(9000),
		PenaltiesOutstanding: types.PHP(150),
	}

	assert.NoError(t, CheckLoanPayment(acct, types.PHP(9150)), "outstanding plus penalties is the ceiling")
	assert.ErrorIs(t, CheckLoanPayment(acct, types.PHP(9151)), ErrPaymentExceedsLoan)
	assert.ErrorIs(t, CheckLoanPayment(acct, types.PHP(0)), ErrNotPositive)
}

func TestCheckWithdrawal(t *testing.T) {
	acct := &savings.Account{
		Status:         savings.AccountActive,
		Balance:        types.PHP(5000),
		MinimumBalance: types.PHP(500),
	}

	assert.NoError(t, CheckWithdrawal(acct, types.PHP(4500)), "drawing down to exactly the minimum passes")
	assert.ErrorIs(t, CheckWithdrawal(acct, types.PHP(4501)), ErrBelowMinimumBalance)

	// Already at the minimum: nothing is withdrawable.
	acct.Balance = types.PHP(500)
	assert.ErrorIs(t, CheckWithdrawal(acct, types.PHP(1)), ErrBelowMinimumBalance)
}

func TestCheckSharePayment(t *testing.T) {
	acct := &share.Account{
		SubscribedShares: 100,
		ParValue:         types.PHP(100),
		PaidAmount:       types.PHP(9950),
	}

	assert.NoError(t, CheckSharePayment(acct, types.PHP(50)), "paying off the exact remainder passes")
	assert.ErrorIs(t, CheckSharePayment(acct, types.PHP(51)), ErrShareOverpaid)
}

func TestCheckWalletCharge(t *testing.T) {
	w := &wallet.Wallet{
		Name:              "rice subsidy",
		Balance:           types.PHP(2000),
		AllowedCategories: []string{"rice", "groceries"},
	}

	assert.NoError(t, CheckWalletCharge(w, "NFA Rice 25kg", "rice", types.PHP(500)))
	assert.NoError(t, CheckWalletCharge(w, "Cooking Oil 1L", "GROCERIES", types.PHP(500)), "category match is case-insensitive")

	err := CheckWalletCharge(w, "Electric Fan", "appliances", types.PHP(500))
	assert.ErrorIs(t, err, ErrWalletCategoryNotAllowed)
	// The refusal names the wallet, the product and the category.
	assert.Contains(t, err.Error(), `"rice subsidy"`)
	assert.Contains(t, err.Error(), `"Electric Fan"`)
	assert.Contains(t, err.Error(), `"appliances"`)

	// Category refusal wins even when the balance would cover it.
	err = CheckWalletCharge(w, "Electric Fan", "appliances", types.PHP(1))
	assert.ErrorIs(t, err, ErrWalletCategoryNotAllowed)

	assert.ErrorIs(t, CheckWalletCharge(w, "NFA Rice 25kg", "rice", types.PHP(2001)), ErrWalletInsufficient)
}
