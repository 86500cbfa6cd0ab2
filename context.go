package formts

import "context"

type formKey struct{}

// WithForm returns a context carrying f. Code deep in a call chain can
// then reach the form without it being passed explicitly.
func WithForm(ctx context.Context, f *Form) context.Context {
	return context.WithValue(ctx, formKey{}, f)
}

// FromContext returns the form carried by ctx. It panics with ErrNoForm
// when there is none: reaching for a form that was never provided is a
// wiring bug, not a runtime condition.
func FromContext(ctx context.Context) *Form {
	f, ok := ctx.Value(formKey{}).(*Form)
	if !ok || f == nil {
		panic(ErrNoForm)
	}
	return f
}

// Lookup returns the form carried by ctx, if any.
func Lookup(ctx context.Context) (*Form, bool) {
	f, ok := ctx.Value(formKey{}).(*Form)
	return f, ok && f != nil
}
