package formts

import (
	"context"
	"testing"
	"time"
)

func TestFieldState_Cached(t *testing.T) {
	f, s := newSignupForm()
	a := f.FieldState(s.MustField("age"))
	b := f.FieldState(s.MustField("age"))
	if a != b {
		t.Error("expected the same cell for the same path")
	}
}

func TestFieldState_Tracks(t *testing.T) {
	ctx := context.Background()
	f, s := newSignupForm()
	name := s.MustField("name")
	cell := f.FieldState(name)

	var seen []FieldState
	key := cell.Subscribe(func(st FieldState) { seen = append(seen, st) })
	defer cell.Unsubscribe(key)

	if st := cell.Val(); st.Changed || st.IsTouched() || st.Submitted || st.Value != "" {
		t.Fatalf("unexpected initial state %+v", st)
	}

	_ = f.SetFieldValue(ctx, name, "Ada")
	st := cell.Val()
	if st.Value != "Ada" || !st.Changed || !st.IsTouched() {
		t.Errorf("unexpected state after write %+v", st)
	}
	if len(seen) == 0 {
		t.Error("expected notifications")
	}

	_ = f.SetFieldValue(ctx, name, "")
	if cell.Val().Changed {
		t.Error("writing the initial value back must clear Changed")
	}
}

func TestFieldState_ChangedIsDeep(t *testing.T) {
	ctx := context.Background()
	s := orderSchema()
	f := New(s)
	address := s.MustField("address")
	cell := f.FieldState(address)

	_ = f.SetFieldValue(ctx, address, map[string]any{"street": "", "city": ""})
	if cell.Val().Changed {
		t.Error("an equal but new object must not count as changed")
	}
}

func TestFieldState_DateChanged(t *testing.T) {
	ctx := context.Background()
	s := orderSchema()
	delivery := s.MustField("delivery")
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	f := New(s)
	if err := f.ResetForm(ctx, map[string]any{"delivery": when}); err != nil {
		t.Fatalf("ResetForm() error = %v", err)
	}
	cell := f.FieldState(delivery)

	_ = f.SetFieldValue(ctx, delivery, when.In(time.FixedZone("X", 3600)).Format(time.RFC3339))
	if cell.Val().Changed {
		t.Error("the same instant in another zone must not count as changed")
	}
}

func TestFieldState_Submitted(t *testing.T) {
	ctx := context.Background()
	f, s := newSignupForm()
	cell := f.FieldState(s.MustField("name"))

	_ = f.SubmitForm(ctx, nil, nil)
	if !cell.Val().Submitted {
		t.Error("expected Submitted after a failed submit")
	}
}

func TestFingerprint(t *testing.T) {
	ctx := context.Background()
	f, s := newSignupForm()
	age := s.MustField("age")
	fp := f.Fingerprint(age)
	namefp := f.Fingerprint(s.MustField("name"))

	before := fp.Val()
	otherBefore := namefp.Val()

	_ = f.SetFieldValue(ctx, age, "10")
	if fp.Val() == before {
		t.Error("expected the fingerprint to change with the error")
	}
	if namefp.Val() != otherBefore {
		t.Error("an unrelated path's fingerprint must not change")
	}
	if f.Fingerprint(age) != fp {
		t.Error("expected the fingerprint cell to be cached")
	}
}

func TestDependencyFingerprint(t *testing.T) {
	ctx := context.Background()
	s := NewSchema(
		Prop("password", String()),
		Prop("confirm", String()),
	)
	password := s.MustField("password")
	confirm := s.MustField("confirm")

	f := New(s).
		Rules(password, MinLength(8)).
		Rules(confirm, Func("match", func(context.Context, Input) (*FieldError, error) {
			return nil, nil
		}).DependsOn("password"))

	dep := f.DependencyFingerprint(confirm)
	before := dep.Val()

	_ = f.SetFieldValue(ctx, password, "short")
	if dep.Val() == before {
		t.Error("expected the dependency fingerprint to follow the password error")
	}

	if got := f.DependencyFingerprint(password).Val(); got != "" {
		t.Errorf("a field without dependencies has an empty fingerprint, got %q", got)
	}
}

func TestDependencyFingerprint_RulesRegisteredLater(t *testing.T) {
	ctx := context.Background()
	s := NewSchema(
		Prop("password", String()),
		Prop("confirm", String()),
	)
	password := s.MustField("password")
	confirm := s.MustField("confirm")

	f := New(s).Rules(password, MinLength(8))
	early := f.DependencyFingerprint(confirm)
	if f.DependencyFingerprint(confirm) != early {
		t.Error("expected the cell to be cached while dependencies are unchanged")
	}

	f.Rules(confirm, Func("match", func(context.Context, Input) (*FieldError, error) {
		return nil, nil
	}).DependsOn("password"))

	dep := f.DependencyFingerprint(confirm)
	if dep == early {
		t.Fatal("expected a new cell after a dependency was registered")
	}
	before := dep.Val()
	_ = f.SetFieldValue(ctx, password, "short")
	if dep.Val() == before {
		t.Error("expected the dependency fingerprint to follow the password error")
	}
}

func TestSerializeSubtree(t *testing.T) {
	e := Errors{
		"coupons[0].code": NewFieldError("required", nil),
		"coupons[1]":      NewFieldError("x", nil),
		"email":           NewFieldError("email", nil),
	}
	got := serializeSubtree("coupons[0]", e, Validating{})
	want := `{"errors":{"coupons[0].code":{"code":"required"}}}`
	if got != want {
		t.Errorf("serializeSubtree() = %s, want %s", got, want)
	}
	if got := serializeSubtree("tags", e, Validating{}); got != "{}" {
		t.Errorf("empty subtree = %s", got)
	}
}
