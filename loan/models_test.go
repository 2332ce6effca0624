package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/types"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusDisbursed, false},
		{StatusApproved, StatusDisbursed, true},
		{StatusApproved, StatusRejected, false},
		{StatusDisbursed, StatusActive, true},
		{StatusDisbursed, StatusDefaulted, true},
		{StatusActive, StatusPaid, true},
		{StatusActive, StatusDefaulted, true},
		{StatusRejected, StatusApproved, false},
		{StatusPaid, StatusActive, false},
		{StatusDefaulted, StatusActive, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusDefaulted.Terminal())
	assert.False(t, StatusActive.Terminal())
}

// disbursedLoan builds a disbursed 12000/2%/12mo loan with its schedule.
func disbursedLoan(t *testing.T) (*Account, []*AmortizationEntry) {
	t.Helper()

	terms := schedule.Terms{
		Principal:        types.PHP(12000),
		MonthlyRate:      decimal.RequireFromString("0.02"),
		TermMonths:       12,
		Interval:         schedule.IntervalMonthly,
		FirstPaymentDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	rows, err := schedule.Amortize(terms)
	require.NoError(t, err)

	acct := &Account{
		Entity:   types.NewEntity(),
		ID:       id.NewLoanID(),
		PartyID:  id.NewPartyID(),
		TenantID: "tenant_1",
		Terms:    terms,
		Status:   StatusDisbursed,
	}
	entries := EntriesFromSchedule(acct.ID, rows)
	acct.OutstandingBalance = ScheduleTotal(entries, "php")
	acct.PenaltiesOutstanding = types.Zero("php")
	return acct, entries
}

func TestEntriesFromSchedule(t *testing.T) {
	acct, entries := disbursedLoan(t)
	require.Len(t, entries, 12)
	for i, e := range entries {
		assert.Equal(t, id.PrefixEntry, e.ID.Prefix())
		assert.Equal(t, acct.ID, e.LoanID)
		assert.Equal(t, i+1, e.Sequence)
		assert.False(t, e.Paid)
		assert.True(t, e.InterestPaid.IsZero())
		assert.True(t, e.PrincipalPaid.IsZero())
	}
}

func TestApplyPaymentPenaltyFirst(t *testing.T) {
	acct, entries := disbursedLoan(t)
	pen := &Penalty{
		Entity:     types.NewEntity(),
		ID:         id.NewPenaltyID(),
		LoanID:     acct.ID,
		EntryID:    entries[0].ID,
		NetPenalty: types.PHP(50),
		Waived:     types.Zero("php"),
		PaidAmount: types.Zero("php"),
		Reason:     "late payment",
	}
	acct.PenaltiesOutstanding = types.PHP(50)
	before := acct.OutstandingBalance

	// 1185 = 50 penalty + 240 interest + 895 principal of entry one.
	split, err := ApplyPayment(acct, entries, []*Penalty{pen}, types.PHP(1185), entries[0].DueDate)
	require.NoError(t, err)

	assert.Equal(t, types.PHP(50), split.PenaltyPaid)
	assert.Equal(t, types.PHP(240), split.InterestPaid)
	assert.Equal(t, types.PHP(895), split.PrincipalPaid)
	assert.Equal(t, types.PHP(1185), split.Total())

	assert.True(t, pen.Paid)
	assert.True(t, entries[0].Paid)
	assert.False(t, entries[1].Paid)

	assert.True(t, acct.PenaltiesOutstanding.IsZero())
	assert.Equal(t, before.Subtract(types.PHP(1135)), acct.OutstandingBalance)
	assert.Equal(t, StatusActive, acct.Status, "first payment activates a disbursed loan")
}

func TestApplyPaymentPartialInterest(t *testing.T) {
	acct, entries := disbursedLoan(t)

	split, err := ApplyPayment(acct, entries, nil, types.PHP(100), entries[0].DueDate)
	require.NoError(t, err)

	assert.Equal(t, types.PHP(100), split.InterestPaid)
	assert.True(t, split.PrincipalPaid.IsZero())
	assert.False(t, entries[0].Paid)
	assert.Equal(t, types.PHP(140), entries[0].InterestDue(), "240 due minus 100 paid")
}

func TestApplyPaymentCascadesEntries(t *testing.T) {
	acct, entries := disbursedLoan(t)

	// Entry one totals 1135; paying 1200 spills 65 into entry two's interest.
	split, err := ApplyPayment(acct, entries, nil, types.PHP(1200), entries[0].DueDate)
	require.NoError(t, err)

	assert.True(t, entries[0].Paid)
	assert.Equal(t, types.PHP(65), entries[1].InterestPaid)
	assert.Equal(t, types.PHP(1200), split.Total())
}

func TestApplyPaymentFullPayoff(t *testing.T) {
	acct, entries := disbursedLoan(t)
	payoff := acct.OutstandingBalance

	split, err := ApplyPayment(acct, entries, nil, payoff, entries[11].DueDate)
	require.NoError(t, err)

	assert.Equal(t, payoff, split.Total())
	assert.True(t, acct.OutstandingBalance.IsZero())
	assert.Equal(t, StatusPaid, acct.Status)
	require.NotNil(t, acct.ClosedAt)
	for _, e := range entries {
		assert.True(t, e.Paid, "entry %d", e.Sequence)
	}
}

func TestApplyPaymentRejections(t *testing.T) {
	acct, entries := disbursedLoan(t)

	_, err := ApplyPayment(acct, entries, nil, types.PHP(0), time.Now())
	assert.Error(t, err)

	_, err = ApplyPayment(acct, entries, nil, types.PHP(-100), time.Now())
	assert.Error(t, err)

	over := acct.OutstandingBalance.Add(types.PHP(1))
	_, err = ApplyPayment(acct, entries, nil, over, time.Now())
	assert.Error(t, err, "payments above outstanding plus penalties are refused")
}

func TestPenaltyCollectible(t *testing.T) {
	pen := &Penalty{
		NetPenalty: types.PHP(100),
		Waived:     types.Zero("php"),
		PaidAmount: types.Zero("php"),
	}
	assert.Equal(t, types.PHP(100), pen.Collectible())

	pen.Waived = types.PHP(40)
	assert.Equal(t, types.PHP(60), pen.Collectible())

	pen.PaidAmount = types.PHP(60)
	assert.True(t, pen.Collectible().IsZero())
}

func TestApplyPaymentSkipsWaivedPenalty(t *testing.T) {
	acct, entries := disbursedLoan(t)
	pen := &Penalty{
		Entity:      types.NewEntity(),
		ID:          id.NewPenaltyID(),
		LoanID:      acct.ID,
		EntryID:     entries[0].ID,
		NetPenalty:  types.PHP(50),
		Waived:      types.PHP(50),
		PaidAmount:  types.Zero("php"),
		WaiveReason: "goodwill",
	}

	split, err := ApplyPayment(acct, entries, []*Penalty{pen}, types.PHP(240), entries[0].DueDate)
	require.NoError(t, err)

	assert.True(t, split.PenaltyPaid.IsZero(), "fully waived penalty takes nothing")
	assert.Equal(t, types.PHP(240), split.InterestPaid)
}
