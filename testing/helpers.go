// Package testing provides test utilities and helpers for formts forms.
package testing

import (
	"context"
	"testing"
	"time"

	formts "github.com/VirtusLab-Open-Source/formts-sub001"
	"github.com/google/go-cmp/cmp"
)

// SignupSchema is a small fixture schema with a nested object and an
// array of objects.
func SignupSchema() *formts.Schema {
	return formts.NewSchema(
		formts.Prop("name", formts.String()),
		formts.Prop("age", formts.Number()),
		formts.Prop("address", formts.Object(
			formts.Prop("city", formts.String()),
		)),
		formts.Prop("contacts", formts.Array(formts.Object(
			formts.Prop("email", formts.String()),
		))),
	)
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForSettled waits until no validation run is in flight.
func WaitForSettled(t *testing.T, f *formts.Form, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return len(f.State().Validating().Val()) == 0
	})
}

// RequireValue fails the test if the value at path differs from want.
func RequireValue(t *testing.T, f *formts.Form, path string, want any) {
	t.Helper()
	field, err := f.Schema().Field(path)
	if err != nil {
		t.Fatalf("field %s: %v", path, err)
	}
	if diff := cmp.Diff(want, f.Value(field)); diff != "" {
		t.Fatalf("value at %s mismatch (-want +got):\n%s", path, diff)
	}
}

// RequireErrorCode fails the test if the error at path does not carry
// code. An empty code requires no error.
func RequireErrorCode(t *testing.T, f *formts.Form, path, code string) {
	t.Helper()
	got := f.State().Errors().Val()[path]
	switch {
	case code == "" && got != nil:
		t.Fatalf("expected no error at %s, got %v", path, got)
	case code != "" && got == nil:
		t.Fatalf("expected %s at %s, got none", code, path)
	case code != "" && got.Code != code:
		t.Fatalf("expected %s at %s, got %s", code, path, got.Code)
	}
}

// NewBoundForm binds f to a synchronous channel source seeded with
// initial and returns the channel for sending later values.
func NewBoundForm(t *testing.T, ctx context.Context, f *formts.Form, initial []byte) chan<- []byte {
	t.Helper()
	ch := make(chan []byte, 10)
	ch <- initial
	if err := f.Bind(ctx, formts.NewSyncChannelWatcher(ch)); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	return ch
}
