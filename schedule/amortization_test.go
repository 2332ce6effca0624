package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopcore/ledger/types"
)

func monthlyTerms(principal int64, rate string, months int) Terms {
	return Terms{
		Principal:        types.PHP(principal),
		MonthlyRate:      decimal.RequireFromString(rate),
		TermMonths:       months,
		Interval:         IntervalMonthly,
		FirstPaymentDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLevelPayment(t *testing.T) {
	// 12000 at 2% monthly over 12 months: raw annuity is 1134.72,
	// rounded half up to 1135.
	level := LevelPayment(monthlyTerms(12000, "0.02", 12))
	assert.Equal(t, types.PHP(1135), level)
}

func TestAmortizeDiminishingBalance(t *testing.T) {
	entries, err := Amortize(monthlyTerms(12000, "0.02", 12))
	require.NoError(t, err)
	require.Len(t, entries, 12)

	first := entries[0]
	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, types.PHP(240), first.Interest, "2%% of 12000")
	assert.Equal(t, types.PHP(895), first.Principal, "level 1135 minus interest")
	assert.Equal(t, types.PHP(11105), first.BalanceAfter)

	// Interest diminishes with the balance.
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].Interest.LessThan(entries[i-1].Interest),
			"interest must shrink at entry %d", i+1)
	}

	// Principal sums to the original exactly; final balance is zero.
	total := types.Zero("php")
	for _, e := range entries {
		total = total.Add(e.Principal)
	}
	assert.Equal(t, types.PHP(12000), total)
	assert.True(t, entries[len(entries)-1].BalanceAfter.IsZero())
}

func TestAmortizeZeroRate(t *testing.T) {
	entries, err := Amortize(monthlyTerms(1200, "0", 12))
	require.NoError(t, err)
	require.Len(t, entries, 12)

	for _, e := range entries {
		assert.True(t, e.Interest.IsZero())
		assert.Equal(t, types.PHP(100), e.Principal)
	}
	assert.True(t, entries[11].BalanceAfter.IsZero())
}

func TestAmortizeSemiMonthly(t *testing.T) {
	terms := monthlyTerms(12000, "0.02", 3)
	terms.Interval = IntervalSemiMonthly

	entries, err := Amortize(terms)
	require.NoError(t, err)
	require.Len(t, entries, 6, "3 months at two payments per month")

	// First period's interest is half the monthly rate on the principal.
	assert.Equal(t, types.PHP(120), entries[0].Interest)

	// Due dates step by 15 days.
	assert.Equal(t, terms.FirstPaymentDate, entries[0].DueDate)
	assert.Equal(t, terms.FirstPaymentDate.AddDate(0, 0, 15), entries[1].DueDate)

	total := types.Zero("php")
	for _, e := range entries {
		total = total.Add(e.Principal)
	}
	assert.Equal(t, types.PHP(12000), total)
}

func TestAmortizeWeeklyDueDates(t *testing.T) {
	terms := monthlyTerms(4000, "0.02", 1)
	terms.Interval = IntervalWeekly

	entries, err := Amortize(terms)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i, e := range entries {
		assert.Equal(t, terms.FirstPaymentDate.AddDate(0, 0, 7*i), e.DueDate)
	}
}

func TestAmortizeDeterministic(t *testing.T) {
	terms := monthlyTerms(987654, "0.015", 24)
	a, err := Amortize(terms)
	require.NoError(t, err)
	b, err := Amortize(terms)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAmortizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Terms)
		wantErr error
	}{
		{"zero principal", func(tr *Terms) { tr.Principal = types.PHP(0) }, errNoPrincipal},
		{"negative principal", func(tr *Terms) { tr.Principal = types.PHP(-100) }, errNoPrincipal},
		{"zero term", func(tr *Terms) { tr.TermMonths = 0 }, errNoTerm},
		{"negative rate", func(tr *Terms) { tr.MonthlyRate = decimal.RequireFromString("-0.01") }, errNegRate},
		{"unknown interval", func(tr *Terms) { tr.Interval = "fortnightly" }, errBadInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := monthlyTerms(12000, "0.02", 12)
			tt.mutate(&terms)
			_, err := Amortize(terms)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
