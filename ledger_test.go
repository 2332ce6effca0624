package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopcore/ledger"
	"github.com/coopcore/ledger/allocation"
	"github.com/coopcore/ledger/loan"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/store/memory"
	"github.com/coopcore/ledger/types"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New(memory.New())
	require.NoError(t, l.Start(context.Background()))
	return l
}

func newCustomer(t *testing.T, l *ledger.Ledger) *party.Party {
	t.Helper()
	p := &party.Party{
		TenantID:    "coop-main",
		Kind:        party.KindCustomer,
		Name:        "Alice Reyes",
		CreditLimit: types.PHP(0),
	}
	require.NoError(t, l.CreateParty(context.Background(), p))
	return p
}

func saleOrigin(ref string) posting.Origin {
	return posting.Origin{Kind: posting.OriginSale, Reference: ref}
}

// ──────────────────────────────────────────────────
// Receivables
// ──────────────────────────────────────────────────

func TestReceivableFIFOSettlement(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	o1, err := l.PostObligation(ctx, p.ID, types.PHP(1000), base, saleOrigin("SI-1"))
	require.NoError(t, err)
	o2, err := l.PostObligation(ctx, p.ID, types.PHP(2000), base.AddDate(0, 0, 10), saleOrigin("SI-2"))
	require.NoError(t, err)
	o3, err := l.PostObligation(ctx, p.ID, types.PHP(3000), base.AddDate(0, 0, 20), saleOrigin("SI-3"))
	require.NoError(t, err)

	assert.Equal(t, types.PHP(1000), o1.BalanceAfter)
	assert.Equal(t, types.PHP(3000), o2.BalanceAfter)
	assert.Equal(t, types.PHP(6000), o3.BalanceAfter)

	pay, allocs, err := l.RecordPayment(ctx, p.ID, ledger.PaymentInput{
		Amount: types.PHP(4500),
		Method: posting.MethodCash,
		Date:   base.AddDate(0, 0, 25),
	})
	require.NoError(t, err)
	require.Len(t, allocs, 3)

	assert.Equal(t, o1.ID, allocs[0].ObligationID)
	assert.Equal(t, types.PHP(1000), allocs[0].Amount)
	assert.Equal(t, o2.ID, allocs[1].ObligationID)
	assert.Equal(t, types.PHP(2000), allocs[1].Amount)
	assert.Equal(t, o3.ID, allocs[2].ObligationID)
	assert.Equal(t, types.PHP(1500), allocs[2].Amount)

	assert.Equal(t, types.PHP(-4500), pay.Amount)
	assert.Equal(t, types.PHP(1500), pay.BalanceAfter)

	got, err := l.GetParty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(1500), got.OutstandingTotal)

	first, err := l.GetObligation(ctx, o1.ID)
	require.NoError(t, err)
	assert.NotNil(t, first.PaidDate)

	third, err := l.GetObligation(ctx, o3.ID)
	require.NoError(t, err)
	assert.Nil(t, third.PaidDate)
	assert.Equal(t, types.PHP(1500), third.Outstanding())
}

func TestRecordPaymentExplicitTargets(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	o1, err := l.PostObligation(ctx, p.ID, types.PHP(1000), base, saleOrigin("SI-1"))
	require.NoError(t, err)
	o2, err := l.PostObligation(ctx, p.ID, types.PHP(2000), base.AddDate(0, 0, 10), saleOrigin("SI-2"))
	require.NoError(t, err)

	// Skip the older obligation, settle the newer one.
	_, allocs, err := l.RecordPayment(ctx, p.ID, ledger.PaymentInput{
		Amount:  types.PHP(2000),
		Method:  posting.MethodBank,
		Targets: []allocation.Entry{{ObligationID: o2.ID, Amount: types.PHP(2000)}},
	})
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, o2.ID, allocs[0].ObligationID)

	older, err := l.GetObligation(ctx, o1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(1000), older.Outstanding())
}

func TestRecordPaymentTolerance(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := l.PostObligation(ctx, p.ID, types.PHP(6000), due, saleOrigin("SI-1"))
	require.NoError(t, err)

	// One centavo over is absorbed by the default tolerance.
	_, _, err = l.RecordPayment(ctx, p.ID, ledger.PaymentInput{
		Amount: types.PHP(6001),
		Method: posting.MethodCash,
	})
	require.NoError(t, err)

	p2 := newCustomer(t, l)
	_, err = l.PostObligation(ctx, p2.ID, types.PHP(6000), due, saleOrigin("SI-2"))
	require.NoError(t, err)

	_, _, err = l.RecordPayment(ctx, p2.ID, ledger.PaymentInput{
		Amount: types.PHP(6002),
		Method: posting.MethodCash,
	})
	assert.ErrorIs(t, err, ledger.ErrPaymentExceedsOpen)
}

func TestPostObligationCreditLimit(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	p := &party.Party{
		TenantID:    "coop-main",
		Kind:        party.KindCustomer,
		Name:        "Bob Santos",
		CreditLimit: types.PHP(5000),
	}
	require.NoError(t, l.CreateParty(ctx, p))

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := l.PostObligation(ctx, p.ID, types.PHP(4000), due, saleOrigin("SI-1"))
	require.NoError(t, err)

	_, err = l.PostObligation(ctx, p.ID, types.PHP(1500), due, saleOrigin("SI-2"))
	assert.ErrorIs(t, err, ledger.ErrCreditLimitReached)

	// The refused posting wrote nothing.
	got, err := l.GetParty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(4000), got.OutstandingTotal)
}

func TestReverseObligation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	o, err := l.PostObligation(ctx, p.ID, types.PHP(1000), due, saleOrigin("SI-1"))
	require.NoError(t, err)

	require.NoError(t, l.ReverseObligation(ctx, o.ID, "encoding error"))

	got, err := l.GetParty(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.OutstandingTotal.IsZero())

	// Already reversed.
	err = l.ReverseObligation(ctx, o.ID, "again")
	assert.ErrorIs(t, err, ledger.ErrObligationClosed)
}

func TestReverseObligationWithAllocations(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	o, err := l.PostObligation(ctx, p.ID, types.PHP(1000), due, saleOrigin("SI-1"))
	require.NoError(t, err)

	_, _, err = l.RecordPayment(ctx, p.ID, ledger.PaymentInput{
		Amount: types.PHP(400),
		Method: posting.MethodCash,
	})
	require.NoError(t, err)

	err = l.ReverseObligation(ctx, o.ID, "should fail")
	assert.ErrorIs(t, err, ledger.ErrObligationAllocated)
}

func TestOpeningBalanceAndStatement(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	before := time.Now().Add(-time.Hour)

	opening, err := l.OpeningBalance(ctx, p.ID, before)
	require.NoError(t, err)
	assert.True(t, opening.IsZero())

	_, err = l.PostObligation(ctx, p.ID, types.PHP(2500), due, saleOrigin("SI-1"))
	require.NoError(t, err)

	after := time.Now().Add(time.Hour)
	opening, err = l.OpeningBalance(ctx, p.ID, after)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(2500), opening)

	stmt, err := l.PartyStatement(ctx, p.ID, before, after)
	require.NoError(t, err)
	assert.True(t, stmt.Opening.IsZero())
	assert.Len(t, stmt.Obligations, 1)
	assert.Empty(t, stmt.Payments)
}

func TestAgingReport(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := l.PostObligation(ctx, p.ID, types.PHP(1000), asOf.AddDate(0, 0, -10), saleOrigin("SI-1"))
	require.NoError(t, err)
	_, err = l.PostObligation(ctx, p.ID, types.PHP(2000), asOf.AddDate(0, 0, -45), saleOrigin("SI-2"))
	require.NoError(t, err)
	_, err = l.PostObligation(ctx, p.ID, types.PHP(3000), asOf.AddDate(0, 0, -120), saleOrigin("SI-3"))
	require.NoError(t, err)

	report, err := l.AgingReport(ctx, "coop-main", "php", asOf)
	require.NoError(t, err)

	assert.Equal(t, types.PHP(6000), report.Total)
	assert.Equal(t, types.PHP(1000), report.Line("current").Total)
	assert.Equal(t, types.PHP(2000), report.Line("31_60").Total)
	assert.Equal(t, types.PHP(3000), report.Line("over_90").Total)
}

func TestNextSequence(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	n1, err := l.NextSequence(ctx, "coop-main", "sale")
	require.NoError(t, err)
	n2, err := l.NextSequence(ctx, "coop-main", "sale")
	require.NoError(t, err)
	other, err := l.NextSequence(ctx, "coop-main", "purchase_order")
	require.NoError(t, err)

	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)
	assert.Equal(t, int64(1), other)
}

// ──────────────────────────────────────────────────
// Loans
// ──────────────────────────────────────────────────

func loanTerms() schedule.Terms {
	return schedule.Terms{
		Principal:        types.PHP(1200000), // 12,000.00
		MonthlyRate:      decimal.RequireFromString("0.02"),
		TermMonths:       12,
		Interval:         schedule.IntervalMonthly,
		FirstPaymentDate: time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestLoanLifecycle(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.RequestLoan(ctx, p.ID, "coop-main", loanTerms())
	require.NoError(t, err)
	assert.Equal(t, loan.StatusPending, acct.Status)

	approvedAt := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	acct, err = l.ApproveLoan(ctx, acct.ID, approvedAt)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusApproved, acct.Status)

	disbursedAt := approvedAt.AddDate(0, 0, 5)
	acct, entries, err := l.DisburseLoan(ctx, acct.ID, disbursedAt)
	require.NoError(t, err)
	require.Len(t, entries, 12)
	assert.Equal(t, loan.StatusDisbursed, acct.Status)
	assert.Equal(t, loan.ScheduleTotal(entries, "php"), acct.OutstandingBalance)

	// First installment exactly: 2% of 12,000.00 interest, rest principal.
	first := entries[0].Interest.Add(entries[0].Principal)
	split, err := l.ApplyLoanPayment(ctx, acct.ID, first, entries[0].DueDate)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(24000), split.InterestPaid)
	assert.Equal(t, entries[0].Principal, split.PrincipalPaid)

	acct, err = l.GetLoan(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusActive, acct.Status)

	// Settle the remainder in one payoff.
	_, err = l.ApplyLoanPayment(ctx, acct.ID, acct.OutstandingBalance, entries[11].DueDate)
	require.NoError(t, err)

	acct, err = l.GetLoan(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusPaid, acct.Status)
	assert.NotNil(t, acct.ClosedAt)
	assert.True(t, acct.OutstandingBalance.IsZero())
}

func TestLoanGuards(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.RequestLoan(ctx, p.ID, "coop-main", loanTerms())
	require.NoError(t, err)

	// Cannot service or disburse a pending loan.
	_, err = l.ApplyLoanPayment(ctx, acct.ID, types.PHP(100), time.Now())
	assert.ErrorIs(t, err, ledger.ErrLoanNotServicable)
	_, _, err = l.DisburseLoan(ctx, acct.ID, time.Now())
	assert.ErrorIs(t, err, ledger.ErrLoanNotApproved)

	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	acct, err = l.ApproveLoan(ctx, acct.ID, at)
	require.NoError(t, err)

	// Cannot approve twice.
	_, err = l.ApproveLoan(ctx, acct.ID, at)
	assert.ErrorIs(t, err, ledger.ErrLoanNotPending)

	acct, _, err = l.DisburseLoan(ctx, acct.ID, at)
	require.NoError(t, err)

	// Payment above outstanding plus penalties is refused.
	over := acct.OutstandingBalance.Add(types.PHP(1))
	_, err = l.ApplyLoanPayment(ctx, acct.ID, over, time.Now())
	assert.ErrorIs(t, err, ledger.ErrPaymentExceedsLoan)
}

func TestRejectLoanTerminal(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.RequestLoan(ctx, p.ID, "coop-main", loanTerms())
	require.NoError(t, err)

	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	acct, err = l.RejectLoan(ctx, acct.ID, at)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusRejected, acct.Status)
	assert.True(t, acct.Status.Terminal())

	_, err = l.ApproveLoan(ctx, acct.ID, at)
	assert.ErrorIs(t, err, ledger.ErrLoanNotPending)
}

func TestPenaltyAssessAndWaive(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.RequestLoan(ctx, p.ID, "coop-main", loanTerms())
	require.NoError(t, err)
	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err = l.ApproveLoan(ctx, acct.ID, at)
	require.NoError(t, err)
	_, entries, err := l.DisburseLoan(ctx, acct.ID, at)
	require.NoError(t, err)

	pen, err := l.AssessPenalty(ctx, acct.ID, entries[0].ID, types.PHP(5000), "late installment")
	require.NoError(t, err)

	acct, err = l.GetLoan(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(5000), acct.PenaltiesOutstanding)

	// Waiver cannot exceed the collectible amount.
	_, err = l.WaivePenalty(ctx, pen.ID, types.PHP(6000), "too generous")
	assert.ErrorIs(t, err, ledger.ErrPenaltyWaived)

	pen, err = l.WaivePenalty(ctx, pen.ID, types.PHP(5000), "first offense")
	require.NoError(t, err)
	assert.True(t, pen.Paid)

	acct, err = l.GetLoan(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, acct.PenaltiesOutstanding.IsZero())

	// Settled penalties cannot be waived again.
	_, err = l.WaivePenalty(ctx, pen.ID, types.PHP(1), "again")
	assert.ErrorIs(t, err, ledger.ErrPenaltyPaid)
}

func TestPenaltyPaidBeforeInterest(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.RequestLoan(ctx, p.ID, "coop-main", loanTerms())
	require.NoError(t, err)
	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err = l.ApproveLoan(ctx, acct.ID, at)
	require.NoError(t, err)
	_, entries, err := l.DisburseLoan(ctx, acct.ID, at)
	require.NoError(t, err)

	_, err = l.AssessPenalty(ctx, acct.ID, entries[0].ID, types.PHP(5000), "late")
	require.NoError(t, err)

	first := entries[0].Interest.Add(entries[0].Principal)
	split, err := l.ApplyLoanPayment(ctx, acct.ID, types.PHP(5000).Add(first), entries[0].DueDate)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(5000), split.PenaltyPaid)
	assert.Equal(t, entries[0].Interest, split.InterestPaid)
	assert.Equal(t, entries[0].Principal, split.PrincipalPaid)
}

func TestMarkLoanDefaulted(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.RequestLoan(ctx, p.ID, "coop-main", loanTerms())
	require.NoError(t, err)

	// Pending loans cannot default.
	_, err = l.MarkLoanDefaulted(ctx, acct.ID, time.Now())
	assert.ErrorIs(t, err, ledger.ErrLoanTransition)

	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err = l.ApproveLoan(ctx, acct.ID, at)
	require.NoError(t, err)
	_, _, err = l.DisburseLoan(ctx, acct.ID, at)
	require.NoError(t, err)

	acct, err = l.MarkLoanDefaulted(ctx, acct.ID, at.AddDate(0, 6, 0))
	require.NoError(t, err)
	assert.Equal(t, loan.StatusDefaulted, acct.Status)
	assert.True(t, acct.Status.Terminal())
}

// ──────────────────────────────────────────────────
// Savings and time deposits
// ──────────────────────────────────────────────────

func TestSavingsDepositWithdraw(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.OpenSavingsAccount(ctx, p.ID, "coop-main", types.PHP(50000))
	require.NoError(t, err)

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = l.Deposit(ctx, acct.ID, types.PHP(200000), "OR-100", date)
	require.NoError(t, err)

	// Would breach the 500.00 minimum.
	_, err = l.Withdraw(ctx, acct.ID, types.PHP(160000), "WS-1", date)
	assert.ErrorIs(t, err, ledger.ErrBelowMinimumBalance)

	mov, err := l.Withdraw(ctx, acct.ID, types.PHP(150000), "WS-2", date)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(-150000), mov.Amount)
	assert.Equal(t, types.PHP(50000), mov.BalanceAfter)

	movs, err := l.ListMovements(ctx, acct.ID, savings.ListOpts{})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	// Newest first.
	assert.Equal(t, savings.MovementWithdrawal, movs[0].Kind)
	assert.Equal(t, savings.MovementDeposit, movs[1].Kind)

	// Dormancy marks inactivity, not restriction: deposits reactivate,
	// withdrawals still pass the minimum-balance guard.
	acct, err = l.GetSavings(ctx, acct.ID)
	require.NoError(t, err)
	acct.Status = savings.AccountDormant
	require.NoError(t, l.Store().UpdateSavings(ctx, acct))

	_, err = l.Deposit(ctx, acct.ID, types.PHP(100000), "OR-101", date)
	require.NoError(t, err)
	acct, err = l.GetSavings(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, savings.AccountActive, acct.Status)

	acct.Status = savings.AccountDormant
	require.NoError(t, l.Store().UpdateSavings(ctx, acct))
	_, err = l.Withdraw(ctx, acct.ID, types.PHP(100000), "WS-3", date)
	require.NoError(t, err)
}

func depositTerms(placement time.Time) schedule.DepositTerms {
	return schedule.DepositTerms{
		Principal:                  types.PHP(10000000), // 100,000.00
		AnnualRate:                 decimal.RequireFromString("0.04"),
		TermMonths:                 6,
		PlacementDate:              placement,
		Method:                     schedule.InterestSimpleOnMaturity,
		EarlyWithdrawalPenaltyRate: decimal.RequireFromString("0.5"),
	}
}

func TestTimeDepositMaturity(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.OpenSavingsAccount(ctx, p.ID, "coop-main", types.PHP(0))
	require.NoError(t, err)

	placement := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	dep, err := l.PlaceTimeDeposit(ctx, acct.ID, depositTerms(placement))
	require.NoError(t, err)
	assert.Equal(t, savings.DepositActive, dep.Status)

	// Not yet matured.
	_, err = l.MatureTimeDeposit(ctx, dep.ID, placement.AddDate(0, 3, 0))
	assert.ErrorIs(t, err, ledger.ErrDepositNotMatured)

	maturity := dep.Terms.MaturityDate()
	dep, err = l.MatureTimeDeposit(ctx, dep.ID, maturity)
	require.NoError(t, err)
	assert.Equal(t, savings.DepositMatured, dep.Status)
	// 100,000 at 4% for 6 months = 2,000.00 interest.
	assert.Equal(t, types.PHP(200000), dep.InterestEarned)
	assert.Equal(t, types.PHP(10200000), dep.Payout)

	acct, err = l.GetSavings(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(10200000), acct.Balance)

	// Cannot settle twice.
	_, err = l.MatureTimeDeposit(ctx, dep.ID, maturity)
	assert.ErrorIs(t, err, ledger.ErrDepositClosed)
}

func TestTimeDepositPreTermination(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.OpenSavingsAccount(ctx, p.ID, "coop-main", types.PHP(0))
	require.NoError(t, err)

	placement := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	terms := schedule.DepositTerms{
		Principal:                  types.PHP(36500000), // 365,000.00
		AnnualRate:                 decimal.RequireFromString("0.10"),
		TermMonths:                 12,
		PlacementDate:              placement,
		Method:                     schedule.InterestSimpleOnMaturity,
		EarlyWithdrawalPenaltyRate: decimal.RequireFromString("0.5"),
	}
	dep, err := l.PlaceTimeDeposit(ctx, acct.ID, terms)
	require.NoError(t, err)

	// Outside the open window.
	_, err = l.PreTerminateTimeDeposit(ctx, dep.ID, placement)
	assert.ErrorIs(t, err, schedule.ErrNotWithinTerm)

	// 73 days accrues 7,300.00; half is forfeited as penalty.
	dep, err = l.PreTerminateTimeDeposit(ctx, dep.ID, placement.AddDate(0, 0, 73))
	require.NoError(t, err)
	assert.Equal(t, savings.DepositPreTerminated, dep.Status)
	assert.Equal(t, types.PHP(365000), dep.InterestEarned)
	assert.Equal(t, types.PHP(36865000), dep.Payout)

	acct, err = l.GetSavings(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(36865000), acct.Balance)
}

// ──────────────────────────────────────────────────
// Shares and wallets
// ──────────────────────────────────────────────────

func TestShareSubscription(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	// 100 shares at 100.00 par.
	acct, err := l.OpenShareAccount(ctx, p.ID, "coop-main", 100, types.PHP(10000))
	require.NoError(t, err)

	acct, err = l.PaySubscription(ctx, acct.ID, types.PHP(25500))
	require.NoError(t, err)
	// 255.00 paid buys 2 whole shares; 55.00 accumulates.
	assert.Equal(t, int64(2), acct.PaidUpShares())

	// Cannot pay past the subscription.
	_, err = l.PaySubscription(ctx, acct.ID, types.PHP(1000000))
	assert.ErrorIs(t, err, ledger.ErrShareOverpaid)

	acct, err = l.PaySubscription(ctx, acct.ID, acct.Unpaid())
	require.NoError(t, err)
	assert.True(t, acct.FullyPaid())
	assert.Equal(t, int64(100), acct.PaidUpShares())

	_, err = l.PaySubscription(ctx, acct.ID, types.PHP(100))
	assert.ErrorIs(t, err, ledger.ErrShareFullyPaid)
}

func TestWalletCharge(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	w, err := l.CreateWallet(ctx, p.ID, "coop-main", "Rice Subsidy",
		[]string{"groceries", "staples"}, types.PHP(100000))
	require.NoError(t, err)

	// Category refusal wins even with sufficient balance, and the
	// rejection names the wallet, the product and the category.
	_, err = l.ChargeWallet(ctx, w.ID, "Electric Fan", "electronics", types.PHP(5000), "SI-9")
	assert.ErrorIs(t, err, ledger.ErrWalletCategoryNotAllowed)
	assert.Contains(t, err.Error(), `"Rice Subsidy"`)
	assert.Contains(t, err.Error(), `"Electric Fan"`)
	assert.Contains(t, err.Error(), `"electronics"`)

	w, err = l.ChargeWallet(ctx, w.ID, "Cooking Oil 1L", "Groceries", types.PHP(40000), "SI-10")
	require.NoError(t, err)
	assert.Equal(t, types.PHP(60000), w.Balance)

	_, err = l.ChargeWallet(ctx, w.ID, "NFA Rice 25kg", "staples", types.PHP(70000), "SI-11")
	assert.ErrorIs(t, err, ledger.ErrWalletInsufficient)

	// The refused charge left the balance alone.
	w, err = l.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(60000), w.Balance)
}

// ──────────────────────────────────────────────────
// Concurrency
// ──────────────────────────────────────────────────

func TestConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	acct, err := l.OpenSavingsAccount(ctx, p.ID, "coop-main", types.PHP(50000))
	require.NoError(t, err)
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = l.Deposit(ctx, acct.ID, types.PHP(450000), "OR-1", date)
	require.NoError(t, err)

	// Withdrawable is 4,000.00; eight callers race for 1,000.00 each.
	// Exactly four may leave with cash.
	start := make(chan struct{})
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			<-start
			_, err := l.Withdraw(ctx, acct.ID, types.PHP(100000), "WS-race", date)
			errs <- err
		}()
	}
	close(start)

	var succeeded int
	for i := 0; i < 8; i++ {
		if err := <-errs; err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ledger.ErrBelowMinimumBalance)
		}
	}
	assert.Equal(t, 4, succeeded)

	acct, err = l.GetSavings(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(50000), acct.Balance)

	// Every successful movement carries a distinct balance_after; a lost
	// update would duplicate one.
	movs, err := l.ListMovements(ctx, acct.ID, savings.ListOpts{})
	require.NoError(t, err)
	seen := make(map[int64]bool)
	for _, m := range movs {
		if m.Kind != savings.MovementWithdrawal {
			continue
		}
		assert.False(t, seen[m.BalanceAfter.Amount])
		seen[m.BalanceAfter.Amount] = true
	}
	assert.Len(t, seen, 4)
}

func TestConcurrentObligationPostings(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := newCustomer(t, l)

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	start := make(chan struct{})
	results := make(chan *posting.Obligation, 6)
	for i := 0; i < 6; i++ {
		go func(n int) {
			<-start
			o, err := l.PostObligation(ctx, p.ID, types.PHP(1000), due, saleOrigin("SI-race"))
			require.NoError(t, err)
			results <- o
		}(i)
	}
	close(start)

	// Serialized postings produce a strict running-balance chain:
	// 1000, 2000, ... 6000 in some arrival order, no duplicates.
	balances := make(map[int64]bool)
	for i := 0; i < 6; i++ {
		o := <-results
		assert.False(t, balances[o.BalanceAfter.Amount])
		balances[o.BalanceAfter.Amount] = true
	}
	for step := int64(1000); step <= 6000; step += 1000 {
		assert.True(t, balances[step])
	}

	got, err := l.GetParty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PHP(6000), got.OutstandingTotal)
}

// slowMovementHook delays savings-movement handling, which holds the
// account lock for the duration.
type slowMovementHook struct{ delay time.Duration }

func (h slowMovementHook) Name() string { return "slow-movement-hook" }

func (h slowMovementHook) OnSavingsMovement(_ context.Context, _ interface{}) error {
	time.Sleep(h.delay)
	return nil
}

func TestMutationLockTimeout(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(),
		ledger.WithLockTimeout(50*time.Millisecond),
		ledger.WithPlugin(slowMovementHook{delay: 500 * time.Millisecond}),
	)
	require.NoError(t, l.Start(ctx))
	p := newCustomer(t, l)

	acct, err := l.OpenSavingsAccount(ctx, p.ID, "coop-main", types.PHP(0))
	require.NoError(t, err)
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = l.Deposit(ctx, acct.ID, types.PHP(200000), "OR-1", date)
	require.NoError(t, err)

	locked := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(locked)
		_, err := l.Deposit(ctx, acct.ID, types.PHP(1000), "OR-2", date)
		done <- err
	}()
	<-locked
	time.Sleep(100 * time.Millisecond)

	// The goroutine still holds the account lock inside the slow hook.
	_, err = l.Withdraw(ctx, acct.ID, types.PHP(1000), "WS-1", date)
	assert.ErrorIs(t, err, ledger.ErrLockTimeout)

	require.NoError(t, <-done)
}
