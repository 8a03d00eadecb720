package turn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryLock(ctx, "c1")
	assert.False(t, ok)

	other, ok, _ := l.TryLock(ctx, "c2")
	assert.True(t, ok)
	other()

	unlock()
	unlock() // idempotent
	again, ok, _ := l.TryLock(ctx, "c1")
	assert.True(t, ok)
	again()
}

func TestCancelRegistry_StopOnlyCurrentTurn(t *testing.T) {
	r := newCancelRegistry()

	ctx1, release1 := r.register(context.Background(), "c1")
	assert.True(t, r.stop("c1"))
	assert.ErrorIs(t, context.Cause(ctx1), ErrStopped)
	release1()
	assert.False(t, r.stop("c1"))

	// a stale release must not drop a newer registration
	_, releaseOld := r.register(context.Background(), "c2")
	ctxNew, releaseNew := r.register(context.Background(), "c2")
	releaseOld()
	assert.True(t, r.stop("c2"))
	assert.Error(t, ctxNew.Err())
	releaseNew()
}
