package allocation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/posting"
	"github.com/coopcore/ledger/types"
)

func open(amount int64, due time.Time) *posting.Obligation {
	return &posting.Obligation{
		ID:             id.NewObligationID(),
		PartyID:        id.NewPartyID(),
		Amount:         types.PHP(amount),
		AllocatedTotal: types.Zero("php"),
		DueDate:        due,
	}
}

func openSet() []*posting.Obligation {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []*posting.Obligation{
		open(1000, base),
		open(2000, base.AddDate(0, 1, 0)),
		open(3000, base.AddDate(0, 2, 0)),
	}
}

func TestFIFOFillsOldestFirst(t *testing.T) {
	obls := openSet()

	// 4500 covers the first two in full and half of the third.
	res, err := FIFO(obls, types.PHP(4500))
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	assert.Equal(t, obls[0].ID, res.Entries[0].ObligationID)
	assert.Equal(t, types.PHP(1000), res.Entries[0].Amount)
	assert.Equal(t, obls[1].ID, res.Entries[1].ObligationID)
	assert.Equal(t, types.PHP(2000), res.Entries[1].Amount)
	assert.Equal(t, obls[2].ID, res.Entries[2].ObligationID)
	assert.Equal(t, types.PHP(1500), res.Entries[2].Amount)

	assert.True(t, res.Leftover.IsZero())
	assert.Equal(t, types.PHP(4500), res.Allocated())
}

func TestFIFOStopsWhenPaymentRunsOut(t *testing.T) {
	obls := openSet()

	res, err := FIFO(obls, types.PHP(500))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, types.PHP(500), res.Entries[0].Amount)
	assert.True(t, res.Leftover.IsZero())
}

func TestFIFOLeftoverOnOverpayment(t *testing.T) {
	obls := openSet()

	// 6000 open in total; the engine absorbs what it can and reports the
	// rest, it does not decide whether the overpayment is acceptable.
	res, err := FIFO(obls, types.PHP(6200))
	require.NoError(t, err)
	assert.Equal(t, types.PHP(6000), res.Allocated())
	assert.Equal(t, types.PHP(200), res.Leftover)
}

func TestFIFOSkipsPartiallyAllocated(t *testing.T) {
	obls := openSet()
	obls[0].AllocatedTotal = types.PHP(600)

	res, err := FIFO(obls, types.PHP(1000))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, types.PHP(400), res.Entries[0].Amount, "only the remainder of the first")
	assert.Equal(t, types.PHP(600), res.Entries[1].Amount)
}

func TestFIFOSkipsClosed(t *testing.T) {
	obls := openSet()
	obls[0].Reversed = true

	res, err := FIFO(obls, types.PHP(1000))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, obls[1].ID, res.Entries[0].ObligationID)
}

func TestFIFORejectsNonPositive(t *testing.T) {
	_, err := FIFO(openSet(), types.PHP(0))
	assert.Error(t, err)
	_, err = FIFO(openSet(), types.PHP(-100))
	assert.Error(t, err)
}

func TestExplicit(t *testing.T) {
	obls := openSet()

	res, err := Explicit(obls, []Entry{
		{ObligationID: obls[2].ID, Amount: types.PHP(3000)},
		{ObligationID: obls[0].ID, Amount: types.PHP(400)},
	}, types.PHP(3400))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.True(t, res.Leftover.IsZero())
}

func TestExplicitLeftover(t *testing.T) {
	obls := openSet()

	res, err := Explicit(obls, []Entry{
		{ObligationID: obls[0].ID, Amount: types.PHP(1000)},
	}, types.PHP(1500))
	require.NoError(t, err)
	assert.Equal(t, types.PHP(500), res.Leftover)
}

func TestExplicitAllOrNothing(t *testing.T) {
	obls := openSet()

	// One request above its obligation's outstanding refuses everything,
	// including the otherwise-valid first request.
	_, err := Explicit(obls, []Entry{
		{ObligationID: obls[0].ID, Amount: types.PHP(500)},
		{ObligationID: obls[1].ID, Amount: types.PHP(2001)},
	}, types.PHP(2501))
	assert.ErrorIs(t, err, ErrOverAllocated)
}

func TestExplicitUnknownTarget(t *testing.T) {
	_, err := Explicit(openSet(), []Entry{
		{ObligationID: id.NewObligationID(), Amount: types.PHP(100)},
	}, types.PHP(100))
	assert.ErrorIs(t, err, ErrUnknownObligation)
}

func TestExplicitClosedTarget(t *testing.T) {
	obls := openSet()
	obls[1].Reversed = true

	_, err := Explicit(obls, []Entry{
		{ObligationID: obls[1].ID, Amount: types.PHP(100)},
	}, types.PHP(100))
	assert.ErrorIs(t, err, ErrUnknownObligation)
}

func TestExplicitDuplicateTarget(t *testing.T) {
	obls := openSet()

	_, err := Explicit(obls, []Entry{
		{ObligationID: obls[0].ID, Amount: types.PHP(100)},
		{ObligationID: obls[0].ID, Amount: types.PHP(100)},
	}, types.PHP(200))
	assert.ErrorIs(t, err, ErrDuplicateTarget)
}

func TestExplicitExceedsPayment(t *testing.T) {
	obls := openSet()

	_, err := Explicit(obls, []Entry{
		{ObligationID: obls[0].ID, Amount: types.PHP(1000)},
		{ObligationID: obls[1].ID, Amount: types.PHP(2000)},
	}, types.PHP(2500))
	assert.ErrorIs(t, err, ErrExceedsPayment)
}
