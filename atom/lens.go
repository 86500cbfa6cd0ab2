package atom

// Lens focuses on a part T of a whole S.
//
// Get reads the part. Update returns a new whole with the part replaced,
// leaving the input untouched. Well-formed lenses satisfy
// Get(Update(s, t)) == t, and Update(s, Get(s)) is value-equal to s.
type Lens[S, T any] struct {
	Get    func(S) T
	Update func(S, T) S
}

// Identity returns the lens focusing on the whole value.
func Identity[S any]() Lens[S, S] {
	return Lens[S, S]{
		Get:    func(s S) S { return s },
		Update: func(_ S, t S) S { return t },
	}
}

// Prop focuses on key name of a map[string]any. Get returns nil when the
// state is not a map or lacks the key. Update returns a shallow copy with
// the key replaced, starting from an empty map when the state is not a map.
func Prop(name string) Lens[any, any] {
	return Lens[any, any]{
		Get: func(s any) any {
			m, ok := s.(map[string]any)
			if !ok {
				return nil
			}
			return m[name]
		},
		Update: func(s any, t any) any {
			m, _ := s.(map[string]any)
			out := make(map[string]any, len(m)+1)
			for k, v := range m {
				out[k] = v
			}
			out[name] = t
			return out
		},
	}
}

// Index focuses on position i of a []any. Get returns nil when the state is
// not a slice or i is out of range. Update returns a shallow copy with
// position i replaced, growing the slice with nil holes when i is past the
// end. Negative positions are ignored by Update.
func Index(i int) Lens[any, any] {
	return Lens[any, any]{
		Get: func(s any) any {
			arr, ok := s.([]any)
			if !ok || i < 0 || i >= len(arr) {
				return nil
			}
			return arr[i]
		},
		Update: func(s any, t any) any {
			if i < 0 {
				return s
			}
			arr, _ := s.([]any)
			n := len(arr)
			if i >= n {
				n = i + 1
			}
			out := make([]any, n)
			copy(out, arr)
			out[i] = t
			return out
		},
	}
}

// MapKey focuses on key k of a typed map.
func MapKey[K comparable, V any](k K) Lens[map[K]V, V] {
	return Lens[map[K]V, V]{
		Get: func(m map[K]V) V {
			return m[k]
		},
		Update: func(m map[K]V, v V) map[K]V {
			out := make(map[K]V, len(m)+1)
			for mk, mv := range m {
				out[mk] = mv
			}
			out[k] = v
			return out
		},
	}
}

// At focuses on position i of a typed slice, growing it with zero values
// when i is past the end.
func At[E any](i int) Lens[[]E, E] {
	return Lens[[]E, E]{
		Get: func(s []E) E {
			var zero E
			if i < 0 || i >= len(s) {
				return zero
			}
			return s[i]
		},
		Update: func(s []E, e E) []E {
			if i < 0 {
				return s
			}
			n := len(s)
			if i >= n {
				n = i + 1
			}
			out := make([]E, n)
			copy(out, s)
			out[i] = e
			return out
		},
	}
}

// Compose focuses through outer and then inner.
func Compose[A, B, C any](outer Lens[A, B], inner Lens[B, C]) Lens[A, C] {
	return Lens[A, C]{
		Get: func(a A) C {
			return inner.Get(outer.Get(a))
		},
		Update: func(a A, c C) A {
			return outer.Update(a, inner.Update(outer.Get(a), c))
		},
	}
}

// Chain composes dynamic lenses left to right. Update rebuilds one container
// per level, innermost first, and reuses every container off the path.
// An empty chain is the identity.
func Chain(lenses ...Lens[any, any]) Lens[any, any] {
	ls := make([]Lens[any, any], len(lenses))
	copy(ls, lenses)

	return Lens[any, any]{
		Get: func(s any) any {
			for _, l := range ls {
				s = l.Get(s)
			}
			return s
		},
		Update: func(s any, t any) any {
			return chainUpdate(ls, s, t)
		},
	}
}

func chainUpdate(ls []Lens[any, any], s any, t any) any {
	if len(ls) == 0 {
		return t
	}
	head := ls[0]
	return head.Update(s, chainUpdate(ls[1:], head.Get(s), t))
}

// Builder assembles a chain of dynamic lenses fluently.
//
//	lens := atom.Focus().Prop("coupons").Index(2).Lens()
type Builder struct {
	lenses []Lens[any, any]
}

// Focus starts a lens builder at the root value.
func Focus() Builder {
	return Builder{}
}

// Prop appends a Prop lens.
func (b Builder) Prop(name string) Builder {
	return b.With(Prop(name))
}

// Index appends an Index lens.
func (b Builder) Index(i int) Builder {
	return b.With(Index(i))
}

// With appends an arbitrary dynamic lens.
func (b Builder) With(l Lens[any, any]) Builder {
	next := make([]Lens[any, any], len(b.lenses), len(b.lenses)+1)
	copy(next, b.lenses)
	return Builder{lenses: append(next, l)}
}

// Lens returns the composed lens.
func (b Builder) Lens() Lens[any, any] {
	return Chain(b.lenses...)
}
