// Package etcd provides a formts.Watcher that loads initial form values
// from an etcd key using the native Watch API.
package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Client is the part of *clientv3.Client the watcher needs.
type Client interface {
	clientv3.KV
	clientv3.Watcher
}

// Watcher watches an etcd key holding serialized form values.
type Watcher struct {
	client      Client
	key         string
	emitMissing bool
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

// New creates a new Watcher for the given etcd key.
func New(client Client, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// payload maps an event to the bytes to emit. ok is false for events
// that must not reach the form.
func (w *Watcher) payload(ev *clientv3.Event) (val []byte, ok bool) {
	switch ev.Type {
	case clientv3.EventTypePut:
		return ev.Kv.Value, true
	case clientv3.EventTypeDelete:
		if w.emitMissing {
			return []byte("{}"), true
		}
	}
	return nil, false
}

// Watch begins watching the etcd key and returns a channel that emits
// the key's value whenever it changes. The current value is emitted
// immediately so a bound form loads before Bind returns.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	resp, err := w.client.Get(ctx, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to get initial value: %w", err)
	}

	var initial []byte
	switch {
	case len(resp.Kvs) > 0:
		initial = resp.Kvs[0].Value
	case w.emitMissing:
		initial = []byte("{}")
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		if initial != nil {
			select {
			case out <- initial:
			case <-ctx.Done():
				return
			}
		}

		// Resume right after the revision the initial read observed.
		changes := w.client.Watch(ctx, w.key, clientv3.WithRev(resp.Header.Revision+1))

		for {
			select {
			case <-ctx.Done():
				return
			case wr, ok := <-changes:
				if !ok {
					return
				}
				if wr.Err() != nil {
					continue
				}
				for _, ev := range wr.Events {
					val, ok := w.payload(ev)
					if !ok {
						continue
					}
					select {
					case out <- val:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}
