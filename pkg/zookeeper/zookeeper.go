// Package zookeeper provides a formts.Watcher that loads initial form
// values from a ZooKeeper node.
package zookeeper

import (
	"bytes"
	"context"

	"github.com/go-zookeeper/zk"
)

// Conn is the part of *zk.Conn the watcher needs.
type Conn interface {
	GetW(path string) ([]byte, *zk.Stat, <-chan zk.Event, error)
	ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error)
}

// Watcher watches a ZooKeeper node holding serialized form values.
type Watcher struct {
	conn        Conn
	path        string
	emitMissing bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDefaultsWhenMissing makes the watcher emit "{}" while the node does
// not exist, resetting a bound form to its defaults.
func WithDefaultsWhenMissing() Option {
	return func(w *Watcher) {
		w.emitMissing = true
	}
}

// New creates a new Watcher for the given ZooKeeper path.
func New(conn Conn, path string, opts ...Option) *Watcher {
	w := &Watcher{
		conn: conn,
		path: path,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch begins watching the node and returns a channel that emits its
// data whenever it changes. The current data is emitted first so a bound
// form loads before Bind returns. Rewrites with identical data are not
// emitted.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		var last []byte
		emit := func(val []byte) bool {
			if last != nil && bytes.Equal(last, val) {
				return true
			}
			select {
			case out <- val:
				last = val
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			data, _, events, err := w.conn.GetW(w.path)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// The node does not exist yet; wait for its creation.
				exists, _, events, err := w.conn.ExistsW(w.path)
				if err != nil {
					return
				}
				if exists {
					continue
				}
				if w.emitMissing && !emit([]byte("{}")) {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-events:
				}
				continue
			}

			if !emit(data) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-events:
			}
		}
	}()

	return out, nil
}
