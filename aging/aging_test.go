package aging

import (
	"testing"
	"time"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		days int
		want Bucket
	}{
		{0, BucketCurrent},
		{15, BucketCurrent},
		{30, BucketCurrent},
		{31, Bucket31to60},
		{60, Bucket31to60},
		{61, Bucket61to90},
		{90, Bucket61to90},
		{91, BucketOver90},
		{365, BucketOver90},
	}

	for _, tt := range tests {
		if got := Classify(tt.days); got != tt.want {
			t.Errorf("Classify(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func openObligation(partyID id.PartyID, amount int64, dueDaysAgo int, asOf time.Time) *posting.Obligation {
	return &posting.Obligation{
		ID:             id.NewObligationID(),
		PartyID:        partyID,
		Amount:         types.PHP(amount),
		AllocatedTotal: types.Zero("php"),
		DueDate:        asOf.AddDate(0, 0, -dueDaysAgo),
	}
}

func TestBuild(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	alice := id.NewPartyID()
	bob := id.NewPartyID()

	obls := []*posting.Obligation{
		openObligation(alice, 1000, 10, asOf),  // current
		openObligation(alice, 2000, 45, asOf),  // 31-60
		openObligation(bob, 3000, 45, asOf),    // 31-60
		openObligation(bob, 4000, 75, asOf),    // 61-90
		openObligation(alice, 5000, 120, asOf), // over 90
	}

	report := Build(obls, "php", asOf)

	if got := report.Line(BucketCurrent); got.Count != 1 || got.Total != types.PHP(1000) || got.Parties != 1 {
		t.Errorf("current line = %+v", got)
	}
	if got := report.Line(Bucket31to60); got.Count != 2 || got.Total != types.PHP(5000) || got.Parties != 2 {
		t.Errorf("31-60 line = %+v", got)
	}
	if got := report.Line(Bucket61to90); got.Count != 1 || got.Total != types.PHP(4000) || got.Parties != 1 {
		t.Errorf("61-90 line = %+v", got)
	}
	if got := report.Line(BucketOver90); got.Count != 1 || got.Total != types.PHP(5000) || got.Parties != 1 {
		t.Errorf("over-90 line = %+v", got)
	}
	if report.Total != types.PHP(15000) {
		t.Errorf("report total = %s, want 15000", report.Total)
	}
}

func TestBuildUsesOutstandingNotFace(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	o := openObligation(id.NewPartyID(), 1000, 40, asOf)
	o.AllocatedTotal = types.PHP(600)

	report := Build([]*posting.Obligation{o}, "php", asOf)
	if got := report.Line(Bucket31to60).Total; got != types.PHP(400) {
		t.Errorf("bucket total = %s, want the 400 remainder", got)
	}
}

func TestBuildSkipsClosed(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	paid := openObligation(id.NewPartyID(), 1000, 40, asOf)
	paidDate := asOf.AddDate(0, 0, -5)
	paid.PaidDate = &paidDate

	reversed := openObligation(id.NewPartyID(), 2000, 40, asOf)
	reversed.Reversed = true

	report := Build([]*posting.Obligation{paid, reversed}, "php", asOf)
	if !report.Total.IsZero() {
		t.Errorf("report total = %s, want zero", report.Total)
	}
	for _, b := range Buckets {
		if line := report.Line(b); line.Count != 0 {
			t.Errorf("bucket %s count = %d, want 0", b, line.Count)
		}
	}
}

func TestBuildNotYetDueIsCurrent(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	o := openObligation(id.NewPartyID(), 1000, -20, asOf) // due 20 days from now

	report := Build([]*posting.Obligation{o}, "php", asOf)
	if got := report.Line(BucketCurrent).Count; got != 1 {
		t.Errorf("not-yet-due obligation landed outside current (count = %d)", got)
	}
}
