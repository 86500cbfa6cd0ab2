package atom

import "sync"

// Fused is a read-only cell computed from one or more source cells.
type Fused[Q any] struct {
	subscribers[Q]

	compute func() Q
	detach  []func()

	mu     sync.Mutex
	cached Q
	equal  func(a, b Q) bool
}

func newFused[Q any](compute func() Q, attach func(f *Fused[Q])) *Fused[Q] {
	f := &Fused[Q]{compute: compute, equal: same[Q]}

	f.mu.Lock()
	attach(f)
	f.cached = compute()
	f.mu.Unlock()

	return f
}

func watch[S, Q any](f *Fused[Q], src Readable[S]) {
	key := src.Subscribe(func(S) { f.refresh() })
	f.detach = append(f.detach, func() { src.Unsubscribe(key) })
}

// Fuse combines sources of one type. The combined value is computed eagerly
// and recomputed whenever any source changes; subscribers are notified only
// when the result differs from the previous one.
func Fuse[S, Q any](fn func(vals ...S) Q, sources ...Readable[S]) *Fused[Q] {
	srcs := make([]Readable[S], len(sources))
	copy(srcs, sources)

	return newFused(func() Q {
		vals := make([]S, len(srcs))
		for i, s := range srcs {
			vals[i] = s.Val()
		}
		return fn(vals...)
	}, func(f *Fused[Q]) {
		for _, s := range srcs {
			watch(f, s)
		}
	})
}

// Derive maps a single source.
func Derive[S, Q any](src Readable[S], fn func(S) Q) *Fused[Q] {
	return newFused(func() Q {
		return fn(src.Val())
	}, func(f *Fused[Q]) {
		watch(f, src)
	})
}

// Fuse2 combines two sources of different types.
func Fuse2[A, B, Q any](fn func(A, B) Q, a Readable[A], b Readable[B]) *Fused[Q] {
	return newFused(func() Q {
		return fn(a.Val(), b.Val())
	}, func(f *Fused[Q]) {
		watch(f, a)
		watch(f, b)
	})
}

// Fuse3 combines three sources of different types.
func Fuse3[A, B, C, Q any](fn func(A, B, C) Q, a Readable[A], b Readable[B], c Readable[C]) *Fused[Q] {
	return newFused(func() Q {
		return fn(a.Val(), b.Val(), c.Val())
	}, func(f *Fused[Q]) {
		watch(f, a)
		watch(f, b)
		watch(f, c)
	})
}

// Fuse4 combines four sources of different types.
func Fuse4[A, B, C, D, Q any](fn func(A, B, C, D) Q, a Readable[A], b Readable[B], c Readable[C], d Readable[D]) *Fused[Q] {
	return newFused(func() Q {
		return fn(a.Val(), b.Val(), c.Val(), d.Val())
	}, func(f *Fused[Q]) {
		watch(f, a)
		watch(f, b)
		watch(f, c)
		watch(f, d)
	})
}

// Equality replaces the test used to decide whether a recomputation is a
// change.
func (f *Fused[Q]) Equality(fn func(a, b Q) bool) *Fused[Q] {
	f.mu.Lock()
	f.equal = fn
	f.mu.Unlock()
	return f
}

// Val returns the last computed value.
func (f *Fused[Q]) Val() Q {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached
}

// Subscribe registers fn for future changes.
func (f *Fused[Q]) Subscribe(fn func(Q)) Key {
	return f.subscribe(fn)
}

// Unsubscribe removes a subscription.
func (f *Fused[Q]) Unsubscribe(key Key) {
	f.unsubscribe(key)
}

// Close detaches the cell from all sources. The cell keeps its last value.
func (f *Fused[Q]) Close() {
	f.mu.Lock()
	detach := f.detach
	f.detach = nil
	f.mu.Unlock()

	for _, d := range detach {
		d()
	}
}

// refresh recomputes from the sources' current values. Reading the sources
// under the lock keeps the last recomputation the freshest one.
func (f *Fused[Q]) refresh() {
	f.mu.Lock()
	next := f.compute()
	if f.equal(f.cached, next) {
		f.mu.Unlock()
		return
	}
	f.cached = next
	subs := f.snapshot()
	f.mu.Unlock()

	notify(subs, next)
}

var (
	_ Readable[int] = (*Fused[int])(nil)
)
