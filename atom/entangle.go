package atom

import "sync"

// Entangled is a writable view onto a slice of another cell.
type Entangled[S, T any] struct {
	subscribers[T]

	source Writable[S]
	lens   Lens[S, T]
	key    Key

	mu     sync.Mutex
	cached T
	equal  func(a, b T) bool
}

// Entangle derives a cell from source through lens. The derived cell
// notifies its subscribers only when the focused slice changes. Writes go
// through lens.Update into the source.
func Entangle[S, T any](source Writable[S], lens Lens[S, T]) *Entangled[S, T] {
	e := &Entangled[S, T]{
		source: source,
		lens:   lens,
		equal:  same[T],
	}

	e.mu.Lock()
	e.key = source.Subscribe(func(S) { e.refresh() })
	e.cached = lens.Get(source.Val())
	e.mu.Unlock()

	return e
}

// Equality replaces the test used to decide whether the slice changed.
func (e *Entangled[S, T]) Equality(fn func(a, b T) bool) *Entangled[S, T] {
	e.mu.Lock()
	e.equal = fn
	e.mu.Unlock()
	return e
}

// Val returns the last derived value.
func (e *Entangled[S, T]) Val() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cached
}

// Set writes v into the source through the lens.
func (e *Entangled[S, T]) Set(v T) {
	e.source.Update(func(s S) S {
		return e.lens.Update(s, v)
	})
	// Covers a closed view; a no-op when the source already notified us.
	e.refresh()
}

// Update replaces the focused slice with fn(current) as one source write.
func (e *Entangled[S, T]) Update(fn func(T) T) {
	e.source.Update(func(s S) S {
		return e.lens.Update(s, fn(e.lens.Get(s)))
	})
	e.refresh()
}

// Subscribe registers fn for future changes of the slice.
func (e *Entangled[S, T]) Subscribe(fn func(T)) Key {
	return e.subscribe(fn)
}

// Unsubscribe removes a subscription.
func (e *Entangled[S, T]) Unsubscribe(key Key) {
	e.unsubscribe(key)
}

// Close detaches the view from its source. The view keeps its last value.
func (e *Entangled[S, T]) Close() {
	e.source.Unsubscribe(e.key)
}

func (e *Entangled[S, T]) refresh() {
	e.mu.Lock()
	next := e.lens.Get(e.source.Val())
	if e.equal(e.cached, next) {
		e.mu.Unlock()
		return
	}
	e.cached = next
	subs := e.snapshot()
	e.mu.Unlock()

	notify(subs, next)
}

var (
	_ Writable[int] = (*Entangled[map[string]int, int])(nil)
)
