// Package schedule generates obligation schedules from product terms:
// diminishing-balance loan amortization and time-deposit interest accrual.
// Everything here is a pure function of its inputs; callers persist the
// results, and re-running with identical terms yields identical schedules.
package schedule

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopcore/ledger/types"
)

// Interval is the payment cadence of a schedule.
type Interval string

const (
	IntervalMonthly     Interval = "monthly"
	IntervalSemiMonthly Interval = "semi_monthly"
	IntervalWeekly      Interval = "weekly"
)

// PerMonth returns how many payments fall in one month for the interval.
func (i Interval) PerMonth() int {
	switch i {
	case IntervalSemiMonthly:
		return 2
	case IntervalWeekly:
		return 4
	default:
		return 1
	}
}

// Fraction returns the interval's share of a month, used to prorate a
// monthly rate onto shorter periods.
func (i Interval) Fraction() decimal.Decimal {
	switch i {
	case IntervalSemiMonthly:
		return decimal.New(5, -1) // 0.5
	case IntervalWeekly:
		return decimal.New(25, -2) // 0.25
	default:
		return decimal.New(1, 0)
	}
}

// Advance moves a due date forward by one period.
func (i Interval) Advance(t time.Time) time.Time {
	switch i {
	case IntervalSemiMonthly:
		return t.AddDate(0, 0, 15)
	case IntervalWeekly:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Valid reports whether the interval is one of the known cadences.
func (i Interval) Valid() bool {
	switch i {
	case IntervalMonthly, IntervalSemiMonthly, IntervalWeekly:
		return true
	}
	return false
}

// Terms are the product terms a loan amortization is generated from.
type Terms struct {
	Principal        types.Money     `json:"principal"`
	MonthlyRate      decimal.Decimal `json:"monthly_rate"`
	TermMonths       int             `json:"term_months"`
	Interval         Interval        `json:"interval"`
	FirstPaymentDate time.Time       `json:"first_payment_date"`
}

// Entry is one row of an amortization schedule. BalanceAfter is the
// outstanding principal immediately after the entry's principal is paid.
type Entry struct {
	Sequence     int         `json:"sequence"`
	DueDate      time.Time   `json:"due_date"`
	Interest     types.Money `json:"interest"`
	Principal    types.Money `json:"principal"`
	BalanceAfter types.Money `json:"balance_after"`
}

var (
	errNoPrincipal = errors.New("schedule: principal must be positive")
	errNoTerm      = errors.New("schedule: term must be at least one month")
	errNegRate     = errors.New("schedule: rate must not be negative")
	errBadInterval = errors.New("schedule: unknown payment interval")
)

// Amortize produces a diminishing-balance schedule. Each entry's interest
// is the periodic rate applied to the outstanding balance before the
// entry (round half up); principal is the level payment minus interest.
// The final entry absorbs the rounding residue so that the summed
// principal equals the original principal exactly: no centavo leaks and
// none is invented.
func Amortize(t Terms) ([]Entry, error) {
	if !t.Principal.IsPositive() {
		return nil, errNoPrincipal
	}
	if t.TermMonths < 1 {
		return nil, errNoTerm
	}
	if t.MonthlyRate.IsNegative() {
		return nil, errNegRate
	}
	if !t.Interval.Valid() {
		return nil, errBadInterval
	}

	periods := t.TermMonths * t.Interval.PerMonth()
	rate := t.MonthlyRate.Mul(t.Interval.Fraction())
	level := levelPayment(t.Principal, rate, periods)

	entries := make([]Entry, 0, periods)
	outstanding := t.Principal
	due := t.FirstPaymentDate

	for seq := 1; seq <= periods; seq++ {
		interest := outstanding.ApplyRate(rate)

		var principal types.Money
		if seq == periods {
			// Final entry absorbs the rounding residue.
			principal = outstanding
		} else {
			principal = level.Subtract(interest)
			if principal.IsNegative() {
				principal = types.Zero(outstanding.Currency)
			}
			principal = principal.Min(outstanding)
		}

		outstanding = outstanding.Subtract(principal)
		entries = append(entries, Entry{
			Sequence:     seq,
			DueDate:      due,
			Interest:     interest,
			Principal:    principal,
			BalanceAfter: outstanding,
		})
		due = t.Interval.Advance(due)
	}

	return entries, nil
}

// LevelPayment returns the constant periodic installment for the terms,
// rounded half up to the nearest unit.
func LevelPayment(t Terms) types.Money {
	periods := t.TermMonths * t.Interval.PerMonth()
	rate := t.MonthlyRate.Mul(t.Interval.Fraction())
	return levelPayment(t.Principal, rate, periods)
}

// levelPayment applies the standard annuity formula
// P*r/(1-(1+r)^-n), computed as P*r*(1+r)^n / ((1+r)^n - 1) to stay in
// positive exponents. Zero-rate loans divide the principal evenly.
func levelPayment(principal types.Money, rate decimal.Decimal, periods int) types.Money {
	if rate.IsZero() {
		return principal.Divide(int64(periods))
	}

	p := decimal.NewFromInt(principal.Amount)
	factor := decimal.New(1, 0).Add(rate).Pow(decimal.NewFromInt(int64(periods)))
	level := p.Mul(rate).Mul(factor).Div(factor.Sub(decimal.New(1, 0)))

	return types.Money{Amount: types.RoundHalfUp(level), Currency: principal.Currency}
}
