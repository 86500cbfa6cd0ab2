// Package atom provides fine-grained reactive cells and lenses.
//
// An Atom holds one value and a list of subscribers. Set stores a new value
// and notifies every subscriber synchronously, in registration order, when
// the new value is not identical to the old one. Identity follows Same:
// maps, slices, pointers and funcs compare by reference, everything else
// by ==. Nested structures must therefore be replaced immutably to trigger
// propagation; lenses do exactly that.
//
// # Lenses
//
// A Lens is a pure Get/Update pair focusing on part of a larger value:
//
//	street := atom.Focus().Prop("address").Prop("street").Lens()
//	next := street.Update(values, "Main St")
//
// Update copies only the containers on the focused path. Siblings outside
// the path are reused, so subscribers watching them are not notified.
//
// # Derived cells
//
// Entangle exposes a slice of another cell through a lens; writes flow back
// into the source. Fuse combines several cells into a read-only cell that is
// recomputed whenever a source changes and renotifies only when the combined
// value changes:
//
//	values := atom.Of[any](map[string]any{"a": 1.0, "b": 2.0})
//	a := atom.Entangle[any, any](values, atom.Prop("a"))
//	b := atom.Entangle[any, any](values, atom.Prop("b"))
//	sum := atom.Fuse2(func(x, y any) float64 {
//	    return x.(float64) + y.(float64)
//	}, a, b)
//
// Derived cells subscribe to their sources for their whole lifetime. Call
// Close to detach them. Cycles among derived cells are not detected.
//
// # Concurrency
//
// Each cell guards its own value and subscriber list. Notification happens
// outside the lock, so subscribers may read and write any cell, including
// the one notifying them. Concurrent writers to one cell are ordered by the
// cell's lock, but subscribers of concurrent writes may observe the values
// in either order; read Val for the latest.
package atom
