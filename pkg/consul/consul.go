// Package consul provides a formts.Watcher that loads initial form values
// from a Consul KV key using blocking queries.
package consul

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/zoobzio/clockz"
)

// DefaultRetryDelay is the pause after a failed blocking query.
const DefaultRetryDelay = time.Second

// KV is the part of *api.KV the watcher needs.
type KV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Watcher watches a Consul KV key holding serialized form values.
type Watcher struct {
	kv          KV
	key         string
	emitMissing bool
	retryDelay  time.Duration
	clock       clockz.Clock
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDefaultsWhenMissing makes the watcher emit "{}" when the key is
// absent or deleted, resetting a bound form to its defaults.
func WithDefaultsWhenMissing() Option {
	return func(w *Watcher) {
		w.emitMissing = true
	}
}

// WithRetryDelay sets the pause after a failed blocking query.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.retryDelay = d
	}
}

// WithClock sets the clock used for retry delays.
func WithClock(clock clockz.Clock) Option {
	return func(w *Watcher) {
		w.clock = clock
	}
}

// New creates a new Watcher for the given key. Pass client.KV().
func New(kv KV, key string, opts ...Option) *Watcher {
	w := &Watcher{
		kv:         kv,
		key:        key,
		retryDelay: DefaultRetryDelay,
		clock:      clockz.RealClock,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) value(pair *api.KVPair) []byte {
	if pair != nil {
		return pair.Value
	}
	if w.emitMissing {
		return []byte("{}")
	}
	return nil
}

// Watch begins watching the key and returns a channel that emits its value
// whenever it changes. The current value is emitted first so a bound form
// loads before Bind returns.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pair, meta, err := w.kv.Get(w.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get initial value: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		send := func(val []byte) bool {
			if val == nil {
				return true
			}
			select {
			case out <- val:
				return true
			case <-ctx.Done():
				return false
			}
		}

		lastIndex := meta.LastIndex
		if !send(w.value(pair)) {
			return
		}

		for ctx.Err() == nil {
			opts := (&api.QueryOptions{WaitIndex: lastIndex}).WithContext(ctx)
			pair, meta, err := w.kv.Get(w.key, opts)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				timer := w.clock.NewTimer(w.retryDelay)
				select {
				case <-timer.C():
				case <-ctx.Done():
					timer.Stop()
					return
				}
				continue
			}

			// Blocking queries may return without a change.
			if meta.LastIndex <= lastIndex {
				continue
			}
			lastIndex = meta.LastIndex
			if !send(w.value(pair)) {
				return
			}
		}
	}()

	return out, nil
}
