// Package redis provides a formts.Watcher that loads initial form values
// from a Redis key using keyspace notifications.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// writeEvents are the keyspace events that replace a string key's value.
var writeEvents = []string{"set", "setex", "psetex", "setnx", "mset", "setrange", "append", "getset"}

// Watcher watches a Redis key holding serialized form values.
// Requires Redis to have keyspace notifications enabled:
//
//	CONFIG SET notify-keyspace-events KEA
//
// Or in redis.conf:
//
//	notify-keyspace-events KEA
type Watcher struct {
	client redis.UniversalClient
	key    string
	db     int
	// emitMissing sends an empty JSON object when the key does not exist,
	// so a bound form loads its schema defaults.
	emitMissing bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDB sets the logical database whose keyspace channel is watched.
// It must match the database the client is connected to. Default 0.
func WithDB(db int) Option {
	return func(w *Watcher) {
		w.db = db
	}
}

// WithDefaultsWhenMissing makes the watcher emit "{}" when the key is
// absent or deleted, resetting a bound form to its defaults.
func WithDefaultsWhenMissing() Option {
	return func(w *Watcher) {
		w.emitMissing = true
	}
}

// New creates a new Watcher for the given Redis key.
func New(client redis.UniversalClient, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Channel returns the keyspace notification channel for the watched key.
func (w *Watcher) Channel() string {
	return fmt.Sprintf("__keyspace@%d__:%s", w.db, w.key)
}

// relevant reports whether a keyspace event should trigger a re-read.
func (w *Watcher) relevant(event string) bool {
	if slices.Contains(writeEvents, event) {
		return true
	}
	return w.emitMissing && (event == "del" || event == "expired")
}

// read returns the current value of the key. ok is false when nothing
// should be emitted.
func (w *Watcher) read(ctx context.Context) (val []byte, ok bool, err error) {
	val, err = w.client.Get(ctx, w.key).Bytes()
	if errors.Is(err, redis.Nil) {
		if w.emitMissing {
			return []byte("{}"), true, nil
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Watch begins watching the Redis key and returns a channel that emits
// the key's value whenever it changes. The current value is emitted
// immediately so a bound form loads before Bind returns.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub := w.client.Subscribe(ctx, w.Channel())

	// Verify subscription worked
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		val, ok, err := w.read(ctx)
		if err != nil {
			return
		}
		if ok {
			select {
			case out <- val:
			case <-ctx.Done():
				return
			}
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, open := <-ch:
				if !open {
					return
				}
				if !w.relevant(msg.Payload) {
					continue
				}
				val, ok, err := w.read(ctx)
				if err != nil || !ok {
					continue
				}
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
