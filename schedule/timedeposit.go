package schedule

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopcore/ledger/types"
)

// InterestMethod selects how a time deposit earns interest.
type InterestMethod string

const (
	// InterestSimpleOnMaturity credits principal * rate * term/12 once
	// at maturity.
	InterestSimpleOnMaturity InterestMethod = "simple_on_maturity"
	// InterestPeriodic credits at each payment-frequency boundary using
	// the prorated monthly rate.
	InterestPeriodic InterestMethod = "periodic"
)

// DepositTerms are the product terms of a time deposit placement.
// AnnualRate is a decimal fraction (0.04 = 4% per annum).
type DepositTerms struct {
	Principal                  types.Money     `json:"principal"`
	AnnualRate                 decimal.Decimal `json:"annual_rate"`
	TermMonths                 int             `json:"term_months"`
	PlacementDate              time.Time       `json:"placement_date"`
	Method                     InterestMethod  `json:"interest_method"`
	PaymentFrequency           Interval        `json:"payment_frequency"`
	EarlyWithdrawalPenaltyRate decimal.Decimal `json:"early_withdrawal_penalty_rate"`
}

// Credit is one interest credit event.
type Credit struct {
	Date   time.Time   `json:"date"`
	Amount types.Money `json:"amount"`
}

// ErrNotWithinTerm signals a pre-termination attempted outside the open
// window: it is only valid strictly between placement and maturity.
var ErrNotWithinTerm = errors.New("schedule: pre-termination only valid strictly between placement and maturity")

var daysInYear = decimal.NewFromInt(365)

// MaturityDate returns when the placement matures.
func (t DepositTerms) MaturityDate() time.Time {
	return t.PlacementDate.AddDate(0, t.TermMonths, 0)
}

// Credits generates the deposit's interest credit schedule.
func Credits(t DepositTerms) ([]Credit, error) {
	if !t.Principal.IsPositive() {
		return nil, errNoPrincipal
	}
	if t.TermMonths < 1 {
		return nil, errNoTerm
	}
	if t.AnnualRate.IsNegative() {
		return nil, errNegRate
	}

	if t.Method == InterestSimpleOnMaturity {
		rate := t.AnnualRate.Mul(decimal.NewFromInt(int64(t.TermMonths))).Div(decimal.NewFromInt(12))
		return []Credit{{
			Date:   t.MaturityDate(),
			Amount: t.Principal.ApplyRate(rate),
		}}, nil
	}

	freq := t.PaymentFrequency
	if !freq.Valid() {
		return nil, errBadInterval
	}

	// Periodic: the same proration technique as loan amortization, the
	// monthly rate times the interval's fraction of a month.
	monthly := t.AnnualRate.Div(decimal.NewFromInt(12))
	periodic := monthly.Mul(freq.Fraction())
	maturity := t.MaturityDate()

	var credits []Credit
	for date := freq.Advance(t.PlacementDate); !date.After(maturity); date = freq.Advance(date) {
		credits = append(credits, Credit{Date: date, Amount: t.Principal.ApplyRate(periodic)})
	}
	return credits, nil
}

// AccruedInterest returns the simple interest accrued from placement up
// to asOf, on an actual/365 day count.
func AccruedInterest(t DepositTerms, asOf time.Time) types.Money {
	days := int64(asOf.Sub(t.PlacementDate).Hours() / 24)
	if days <= 0 {
		return types.Zero(t.Principal.Currency)
	}
	rate := t.AnnualRate.Mul(decimal.NewFromInt(days)).Div(daysInYear)
	return t.Principal.ApplyRate(rate)
}

// PreTermination is the outcome of closing a time deposit before maturity.
// The penalty applies to accrued-to-date interest only, never to principal.
type PreTermination struct {
	Accrued  types.Money `json:"accrued"`
	Penalty  types.Money `json:"penalty"`
	Interest types.Money `json:"interest"` // accrued minus penalty, credited on closure
	Payout   types.Money `json:"payout"`   // principal plus credited interest
}

// PreTerminate computes the early-withdrawal settlement as of the given
// date. Fails unless the date lies strictly between placement and maturity.
func PreTerminate(t DepositTerms, asOf time.Time) (*PreTermination, error) {
	if !asOf.After(t.PlacementDate) || !asOf.Before(t.MaturityDate()) {
		return nil, ErrNotWithinTerm
	}

	accrued := AccruedInterest(t, asOf)
	penalty := accrued.ApplyRate(t.EarlyWithdrawalPenaltyRate)
	interest := accrued.Subtract(penalty)

	return &PreTermination{
		Accrued:  accrued,
		Penalty:  penalty,
		Interest: interest,
		Payout:   t.Principal.Add(interest),
	}, nil
}
