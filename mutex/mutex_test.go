package mutex

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_LocalRefresh(t *testing.T) {
	b := NewBuilder("")
	ctx := context.Background()

	first := b.Refresh()
	require.NoError(t, first.LockContext(ctx))

	err := b.Refresh().LockContext(ctx)
	assert.True(t, errors.Is(err, ErrTaken))

	ok, err := first.UnlockContext(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, b.Refresh().LockContext(ctx))
}

func TestBuilder_LocalDailyResetPerDay(t *testing.T) {
	b := NewBuilder("")
	ctx := context.Background()

	require.NoError(t, b.DailyReset("2024-05-01").LockContext(ctx))
	assert.Error(t, b.DailyReset("2024-05-01").LockContext(ctx))
	assert.NoError(t, b.DailyReset("2024-05-02").LockContext(ctx))
}

func TestBuilder_LocalExpiry(t *testing.T) {
	b := NewBuilder("")
	now := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	b.local.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, b.Refresh().LockContext(ctx))
	now = now.Add(refreshLockExpiration)

	assert.NoError(t, b.Refresh().LockContext(ctx))
}

func TestBuilder_LocalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewBuilder("").Refresh().LockContext(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
