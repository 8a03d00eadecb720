package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live server: REDIS_TEST_ADDR=localhost:6379 go test ./internal/store/redisstore
func testStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	s, err := New(context.Background(), addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTurnLocker(t *testing.T) {
	s := testStore(t)
	l := s.TurnLocker(time.Minute)
	ctx := context.Background()
	chatID := "test-" + t.Name() + time.Now().Format("150405.000000")

	unlock, ok, err := l.TryLock(ctx, chatID)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, chatID)
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()
	again, ok, err := l.TryLock(ctx, chatID)
	require.NoError(t, err)
	assert.True(t, ok)
	again()
}

func TestStopBus(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	require.NoError(t, s.SubscribeStop(ctx, zerolog.Nop(), func(id string) { got <- id }))
	require.NoError(t, s.PublishStop(ctx, "chat-1"))

	select {
	case id := <-got:
		assert.Equal(t, "chat-1", id)
	case <-time.After(3 * time.Second):
		t.Fatal("stop request not delivered")
	}
}
