package turn

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is the cancellation cause of a turn stopped through Stop.
var ErrStopped = errors.New("generation stopped")

// cancelRegistry holds the cancel func of the in-flight turn of each chat.
type cancelRegistry struct {
	mu   sync.Mutex
	seq  uint64
	byID map[string]cancelEntry
}

type cancelEntry struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{byID: make(map[string]cancelEntry)}
}

// register derives a cancellable context for chatID. The returned release must be called
// when the turn ends; it only removes its own entry.
func (r *cancelRegistry) register(ctx context.Context, chatID string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.byID[chatID] = cancelEntry{seq: seq, cancel: cancel}
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		if e, ok := r.byID[chatID]; ok && e.seq == seq {
			delete(r.byID, chatID)
		}
		r.mu.Unlock()
		cancel(nil)
	}
}

func (r *cancelRegistry) stop(chatID string) bool {
	r.mu.Lock()
	e, ok := r.byID[chatID]
	r.mu.Unlock()
	if ok {
		e.cancel(ErrStopped)
	}
	return ok
}
