package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/outline/pkg/ports"
)

// Locker implements ports.DistributedLocker inside one process.
// A lock that is not released expires after its TTL.
type Locker struct {
	mu    sync.Mutex
	held  map[string]*hold
	clock func() time.Time
	poll  time.Duration
}

type hold struct {
	expires time.Time
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{
		held:  make(map[string]*hold),
		clock: time.Now,
		poll:  5 * time.Millisecond,
	}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		if h, ok := l.tryLock(key, ttl); ok {
			return func(context.Context) error {
				l.mu.Lock()
				defer l.mu.Unlock()
				if l.held[key] == h {
					delete(l.held, key)
				}
				return nil
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Locker) tryLock(key string, ttl time.Duration) (*hold, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[key]; ok && (h.expires.IsZero() || now.Before(h.expires)) {
		return nil, false
	}
	h := &hold{}
	if ttl > 0 {
		h.expires = now.Add(ttl)
	}
	l.held[key] = h
	return h, true
}
