package atom

import "sync"

// Readable is a cell that can be read and observed.
type Readable[T any] interface {
	// Val returns the current value.
	Val() T

	// Subscribe registers fn to be called with every new value. The same
	// function subscribed twice is called twice.
	Subscribe(fn func(T)) Key

	// Unsubscribe removes the subscription. Unknown keys are ignored.
	Unsubscribe(key Key)
}

// Writable is a cell that can also be written.
type Writable[T any] interface {
	Readable[T]

	// Set stores v and notifies subscribers unless v is the current value.
	Set(v T)

	// Update atomically replaces the value with fn(current). fn runs with
	// the cell locked and must not access the same cell.
	Update(fn func(T) T)
}

// Atom is a mutable cell holding a single value.
type Atom[T any] struct {
	subscribers[T]

	mu    sync.RWMutex
	value T
	equal func(a, b T) bool
}

// Of creates an Atom holding initial.
func Of[T any](initial T) *Atom[T] {
	return &Atom[T]{value: initial, equal: same[T]}
}

// Equality replaces the test used to decide whether a write is a change.
// The default is Same. Must be called before the atom is shared.
func (a *Atom[T]) Equality(fn func(a, b T) bool) *Atom[T] {
	a.equal = fn
	return a
}

// Val returns the current value.
func (a *Atom[T]) Val() T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Set stores v. Subscribers are notified synchronously, in subscription
// order, unless v is the same as the current value.
func (a *Atom[T]) Set(v T) {
	a.Update(func(T) T { return v })
}

// Update replaces the value with fn(current) as a single step.
func (a *Atom[T]) Update(fn func(T) T) {
	a.mu.Lock()
	next := fn(a.value)
	if a.equal(a.value, next) {
		a.mu.Unlock()
		return
	}
	a.value = next
	subs := a.snapshot()
	a.mu.Unlock()

	notify(subs, next)
}

// Subscribe registers fn for future changes.
func (a *Atom[T]) Subscribe(fn func(T)) Key {
	return a.subscribe(fn)
}

// Unsubscribe removes a subscription.
func (a *Atom[T]) Unsubscribe(key Key) {
	a.unsubscribe(key)
}

// Subscribers returns the number of active subscriptions.
func (a *Atom[T]) Subscribers() int {
	return a.count()
}

var (
	_ Writable[int] = (*Atom[int])(nil)
)
