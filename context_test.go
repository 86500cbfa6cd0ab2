package formts

import (
	"context"
	"errors"
	"testing"
)

func TestFromContext(t *testing.T) {
	f := New(signupSchema())
	ctx := WithForm(context.Background(), f)

	if got := FromContext(ctx); got != f {
		t.Error("expected the stored form")
	}
	if got, ok := Lookup(ctx); !ok || got != f {
		t.Error("expected Lookup to find the form")
	}
}

func TestFromContext_PanicsWithoutForm(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNoForm) {
			t.Errorf("expected ErrNoForm panic, got %v", r)
		}
	}()
	FromContext(context.Background())
}

func TestLookup_Missing(t *testing.T) {
	if _, ok := Lookup(context.Background()); ok {
		t.Error("expected no form")
	}
}
