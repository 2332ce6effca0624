package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSequentialByDefault(t *testing.T) {
	s := &Store{}
	require.False(t, s.txn)

	// Without WithTransactions no session is started; fn runs directly
	// on the caller's context.
	calls := 0
	err := s.run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	err = s.run(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestWithTransactionsOption(t *testing.T) {
	s := &Store{}
	WithTransactions()(s)
	assert.True(t, s.txn)
}
