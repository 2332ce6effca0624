package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopcore/ledger/types"
)

func depositTerms(principal int64, annualRate string, months int) DepositTerms {
	return DepositTerms{
		Principal:     types.PHP(principal),
		AnnualRate:    decimal.RequireFromString(annualRate),
		TermMonths:    months,
		PlacementDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Method:        InterestSimpleOnMaturity,
	}
}

func TestCreditsSimpleOnMaturity(t *testing.T) {
	// 100000 at 4% p.a. over 6 months: 100000 * 0.04 * 6/12 = 2000,
	// credited once at maturity.
	terms := depositTerms(100000, "0.04", 6)

	credits, err := Credits(terms)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, terms.MaturityDate(), credits[0].Date)
	assert.Equal(t, types.PHP(2000), credits[0].Amount)
}

func TestCreditsPeriodicMonthly(t *testing.T) {
	// 120000 at 6% p.a., monthly credits: 120000 * 0.005 = 600 per month.
	terms := depositTerms(120000, "0.06", 3)
	terms.Method = InterestPeriodic
	terms.PaymentFrequency = IntervalMonthly

	credits, err := Credits(terms)
	require.NoError(t, err)
	require.Len(t, credits, 3)
	for i, c := range credits {
		assert.Equal(t, terms.PlacementDate.AddDate(0, i+1, 0), c.Date)
		assert.Equal(t, types.PHP(600), c.Amount)
	}
}

func TestCreditsValidation(t *testing.T) {
	terms := depositTerms(0, "0.04", 6)
	_, err := Credits(terms)
	assert.ErrorIs(t, err, errNoPrincipal)

	terms = depositTerms(100000, "0.04", 0)
	_, err = Credits(terms)
	assert.ErrorIs(t, err, errNoTerm)

	terms = depositTerms(100000, "-0.04", 6)
	_, err = Credits(terms)
	assert.ErrorIs(t, err, errNegRate)

	terms = depositTerms(100000, "0.04", 6)
	terms.Method = InterestPeriodic
	terms.PaymentFrequency = "quarterly"
	_, err = Credits(terms)
	assert.ErrorIs(t, err, errBadInterval)
}

func TestAccruedInterest(t *testing.T) {
	// 365000 at 10% p.a. for 73 days on actual/365: exactly 7300.
	terms := depositTerms(365000, "0.10", 12)
	accrued := AccruedInterest(terms, terms.PlacementDate.AddDate(0, 0, 73))
	assert.Equal(t, types.PHP(7300), accrued)

	// Nothing accrues at or before placement.
	assert.True(t, AccruedInterest(terms, terms.PlacementDate).IsZero())
	assert.True(t, AccruedInterest(terms, terms.PlacementDate.AddDate(0, 0, -1)).IsZero())
}

func TestPreTerminate(t *testing.T) {
	terms := depositTerms(365000, "0.10", 12)
	terms.EarlyWithdrawalPenaltyRate = decimal.RequireFromString("0.5")

	res, err := PreTerminate(terms, terms.PlacementDate.AddDate(0, 0, 73))
	require.NoError(t, err)
	assert.Equal(t, types.PHP(7300), res.Accrued)
	assert.Equal(t, types.PHP(3650), res.Penalty, "penalty hits accrued interest only")
	assert.Equal(t, types.PHP(3650), res.Interest)
	assert.Equal(t, types.PHP(368650), res.Payout, "principal is never touched")
}

func TestPreTerminateWindow(t *testing.T) {
	terms := depositTerms(365000, "0.10", 12)

	_, err := PreTerminate(terms, terms.PlacementDate)
	assert.ErrorIs(t, err, ErrNotWithinTerm, "placement date itself is outside the window")

	_, err = PreTerminate(terms, terms.MaturityDate())
	assert.ErrorIs(t, err, ErrNotWithinTerm, "maturity is a normal maturity, not a pre-termination")

	_, err = PreTerminate(terms, terms.MaturityDate().AddDate(0, 1, 0))
	assert.ErrorIs(t, err, ErrNotWithinTerm)
}
