package atom

import (
	"sync"
	"sync/atomic"
)

// Key identifies a subscription on a single cell.
type Key uint64

type subscription[T any] struct {
	key     Key
	fn      func(T)
	removed atomic.Bool
}

// subscribers is the ordered subscriber list shared by every cell kind.
type subscribers[T any] struct {
	subMu sync.Mutex
	next  Key
	subs  []*subscription[T]
}

func (s *subscribers[T]) subscribe(fn func(T)) Key {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.next++
	s.subs = append(s.subs, &subscription[T]{key: s.next, fn: fn})
	return s.next
}

func (s *subscribers[T]) unsubscribe(key Key) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subs {
		if sub.key == key {
			sub.removed.Store(true)
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// snapshot returns the subscribers registered at this moment. Subscribers
// added while a notification pass runs are not part of that pass.
func (s *subscribers[T]) snapshot() []*subscription[T] {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if len(s.subs) == 0 {
		return nil
	}
	out := make([]*subscription[T], len(s.subs))
	copy(out, s.subs)
	return out
}

func (s *subscribers[T]) count() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func notify[T any](subs []*subscription[T], v T) {
	for _, sub := range subs {
		// Unsubscribed earlier in this pass.
		if sub.removed.Load() {
			continue
		}
		sub.fn(v)
	}
}
