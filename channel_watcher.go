package formts

import "context"

// ChannelWatcher adapts a channel of serialized values to a Watcher, for
// sources the application drives itself and for tests.
type ChannelWatcher struct {
	src    <-chan []byte
	direct bool
}

// NewChannelWatcher forwards values from src through its own goroutine,
// stopping when src closes or the watch context ends.
func NewChannelWatcher(src <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{src: src}
}

// NewSyncChannelWatcher hands src to the form as is. Values are delivered
// exactly when the caller sends them.
func NewSyncChannelWatcher(src <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{src: src, direct: true}
}

// Watch returns a channel that emits the values sent on the wrapped one.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	if w.direct {
		return w.src, nil
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			var (
				v  []byte
				ok bool
			)
			select {
			case <-ctx.Done():
				return
			case v, ok = <-w.src:
			}
			if !ok || !send(ctx, out, v) {
				return
			}
		}
	}()
	return out, nil
}

// send delivers v on out unless ctx ends first.
func send(ctx context.Context, out chan<- []byte, v []byte) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
