package turn

import (
	"context"
	"sync"
)

// Locker serialises turns per chat. TryLock never waits: ok=false means another turn of
// the chat is running.
type Locker interface {
	TryLock(ctx context.Context, chatID string) (unlock func(), ok bool, err error)
}

// LocalLocker is a Locker for a single process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(ctx context.Context, chatID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[chatID]; busy {
		return nil, false, nil
	}
	l.held[chatID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, chatID)
			l.mu.Unlock()
		})
	}, true, nil
}
