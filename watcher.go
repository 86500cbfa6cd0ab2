package formts

import "context"

// Watcher is a source of serialized initial values for Bind. The value
// current at Watch time is emitted first, then every later revision. An
// emission of "{}" resets the form to its schema defaults.
type Watcher interface {
	// Watch starts observing. The returned channel closes when ctx ends or
	// the source fails for good.
	Watch(ctx context.Context) (<-chan []byte, error)
}
