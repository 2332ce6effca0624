// Package aging classifies open obligations into overdue buckets.
// Classification is a pure function of the obligations and a reference
// date; nothing here reads the clock.
package aging

import (
	"time"

	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/types"
)

// Bucket is an overdue band.
type Bucket string

const (
	BucketCurrent Bucket = "current" // 0-30 days past due, including not yet due
	Bucket31to60  Bucket = "31_60"   // 31-60 days past due
	Bucket61to90  Bucket = "61_90"   // 61-90 days past due
	BucketOver90  Bucket = "over_90" // more than 90 days past due
)

// Buckets lists the bands in ascending severity.
var Buckets = []Bucket{BucketCurrent, Bucket31to60, Bucket61to90, BucketOver90}

// Classify returns the bucket for a number of days overdue.
func Classify(daysOverdue int) Bucket {
	switch {
	case daysOverdue <= 30:
		return BucketCurrent
	case daysOverdue <= 60:
		return Bucket31to60
	case daysOverdue <= 90:
		return Bucket61to90
	default:
		return BucketOver90
	}
}

// Line is one bucket's aggregate in a report.
type Line struct {
	Bucket  Bucket      `json:"bucket"`
	Count   int         `json:"count"`
	Total   types.Money `json:"total"`
	Parties int         `json:"parties"` // distinct parties with an obligation in the bucket
}

// Report is an aging breakdown of open obligations at a reference date.
type Report struct {
	AsOf     time.Time   `json:"as_of"`
	Currency string      `json:"currency"`
	Lines    []Line      `json:"lines"`
	Total    types.Money `json:"total"`
}

// Line returns the report line for the bucket.
func (r *Report) Line(b Bucket) Line {
	for _, l := range r.Lines {
		if l.Bucket == b {
			return l
		}
	}
	return Line{Bucket: b, Total: types.Zero(r.Currency)}
}

// Build produces an aging report over the open obligations. Closed and
// reversed obligations contribute nothing even if passed in; each open
// obligation contributes its outstanding remainder, not its face amount.
func Build(obls []*posting.Obligation, currency string, asOf time.Time) *Report {
	report := &Report{
		AsOf:     asOf,
		Currency: currency,
		Total:    types.Zero(currency),
	}

	totals := make(map[Bucket]types.Money, len(Buckets))
	counts := make(map[Bucket]int, len(Buckets))
	parties := make(map[Bucket]map[string]struct{}, len(Buckets))
	for _, b := range Buckets {
		totals[b] = types.Zero(currency)
		parties[b] = make(map[string]struct{})
	}

	for _, o := range obls {
		if !o.IsOpen() {
			continue
		}
		outstanding := o.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}

		b := Classify(o.DaysOverdue(asOf))
		totals[b] = totals[b].Add(outstanding)
		counts[b]++
		parties[b][o.PartyID.String()] = struct{}{}
		report.Total = report.Total.Add(outstanding)
	}

	report.Lines = make([]Line, 0, len(Buckets))
	for _, b := range Buckets {
		report.Lines = append(report.Lines, Line{
			Bucket:  b,
			Count:   counts[b],
			Total:   totals[b],
			Parties: len(parties[b]),
		})
	}
	return report
}
