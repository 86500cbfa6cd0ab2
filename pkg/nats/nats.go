// Package nats provides a formts.Watcher that loads initial form values
// from a NATS JetStream key-value bucket.
package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Watcher watches a NATS KV key holding serialized form values.
type Watcher struct {
	kv          jetstream.KeyValue
	key         string
	emitMissing bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDefaultsWhenMissing makes the watcher emit "{}" when the key is
// absent, deleted or purged, resetting a bound form to its defaults.
func WithDefaultsWhenMissing() Option {
	return func(w *Watcher) {
		w.emitMissing = true
	}
}

// New creates a new Watcher for the given NATS KV key.
func New(kv jetstream.KeyValue, key string, opts ...Option) *Watcher {
	w := &Watcher{
		kv:  kv,
		key: key,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch begins watching the NATS KV key and returns a channel that emits
// the key's value whenever it changes. The server replays the current
// value first, so a bound form loads before Bind returns.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	watcher, err := w.kv.Watch(ctx, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch key: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Stop() //nolint:errcheck

		seen := false
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}

				var val []byte
				switch {
				case entry == nil:
					// End of the replay. A key with no value yet still
					// has to produce the initial load.
					if seen || !w.emitMissing {
						continue
					}
					val = []byte("{}")
				case entry.Operation() == jetstream.KeyValuePut:
					val = entry.Value()
				case w.emitMissing:
					val = []byte("{}")
				default:
					continue
				}
				seen = true

				select {
				case out <- val:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
