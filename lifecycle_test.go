package formts

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newSignupForm() (*Form, *Schema) {
	s := signupSchema()
	f := New(s).DiagnosticHistory(10)
	f.Rules(s.MustField("age"),
		Required(),
		MinValue(18).On(TriggerChange, TriggerSubmit),
	)
	return f, s
}

func TestForm_InitialState(t *testing.T) {
	f, _ := newSignupForm()
	want := map[string]any{"name": "", "age": ""}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"name": false, "age": false}, f.State().Touched().Val()); diff != "" {
		t.Errorf("touched mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_EndToEnd_MinValue(t *testing.T) {
	ctx := context.Background()
	f, s := newSignupForm()
	age := s.MustField("age")

	if err := f.SetFieldValue(ctx, age, "17"); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}
	if got := f.Value(age); got != 17.0 {
		t.Errorf("expected decoded 17, got %#v", got)
	}

	want := &FieldError{Code: "minValue", Params: map[string]any{"min": 18.0}}
	if diff := cmp.Diff(want, f.Error(age)); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}

	if err := f.SetFieldValue(ctx, age, "21"); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}
	if e := f.Error(age); e != nil {
		t.Errorf("expected error cleared, got %v", e)
	}
	if _, ok := f.State().Errors().Val()["age"]; ok {
		t.Error("expected the age key to be removed")
	}
	if len(f.State().Validating().Val()) != 0 {
		t.Errorf("expected nothing validating, got %v", f.State().Validating().Val())
	}
}

func TestForm_SetFieldValue_MarksTouched(t *testing.T) {
	ctx := context.Background()
	f, s := newSignupForm()

	if err := f.SetFieldValue(ctx, s.MustField("name"), "Ada"); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}
	touched := f.State().Touched().Val().(map[string]any)
	if touched["name"] != true || touched["age"] != false {
		t.Errorf("unexpected touched %v", touched)
	}
	if !f.State().IsTouched("") {
		t.Error("expected the form to be touched")
	}
}

func TestForm_SetFieldValue_DecodeFailureDropsWrite(t *testing.T) {
	ctx := context.Background()
	f, s := newSignupForm()
	age := s.MustField("age")
	before := f.Values()

	if err := f.SetFieldValue(ctx, age, "seventeen"); err != nil {
		t.Fatalf("decode failure should not be returned, got %v", err)
	}
	if diff := cmp.Diff(before, f.Values()); diff != "" {
		t.Errorf("values changed (-before +after):\n%s", diff)
	}
	if f.State().IsTouched("age") {
		t.Error("a rejected write must not touch the field")
	}

	diags := f.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Path != "age" || !errors.Is(diags[0].Err, ErrDecode) {
		t.Errorf("unexpected diagnostic %+v", diags[0])
	}
}

func TestForm_SetFieldValue_EmptyArrayTouched(t *testing.T) {
	ctx := context.Background()
	s := orderSchema()
	f := New(s)
	tags := s.MustField("tags")

	if err := f.SetFieldValue(ctx, tags, []any{}); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}
	got := f.State().Touched().Val().(map[string]any)["tags"]
	if got != true {
		t.Errorf("expected touched tags == true, got %#v", got)
	}
}

func TestForm_SetFieldValue_ArrayShrinkPurgesErrors(t *testing.T) {
	ctx := context.Background()
	s := orderSchema()
	f := New(s)
	coupons := s.MustField("coupons")

	items := []any{coupon("A", 10), coupon("B", 20), coupon("C", 30)}
	if err := f.SetFieldValue(ctx, coupons, items); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}

	e1 := NewFieldError("E1", nil)
	e2 := NewFieldError("E2", nil)
	f.state.errors.Set(Errors{"coupons[0]": e1, "coupons[2]": e2, "coupons[2].code": e2, "email": e1})

	if err := f.SetFieldValue(ctx, coupons, items[:1]); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}

	got := f.State().Errors().Val()
	want := Errors{"coupons[0]": e1, "email": e1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}

	touched := f.State().Touched().Val().(map[string]any)["coupons"].([]any)
	if len(touched) != 1 {
		t.Errorf("expected touched to follow the array length, got %v", touched)
	}
}

func TestForm_SetFieldValue_ParentWritePurgesNestedElements(t *testing.T) {
	ctx := context.Background()
	s := orderSchema()
	coupons := s.MustField("coupons")

	hasCode := Func("hasCode", func(_ context.Context, in Input) (*FieldError, error) {
		if c, _ := in.Value.(map[string]any); c["code"] == "" {
			return NewFieldError("noCode", nil), nil
		}
		return nil, nil
	})
	f := New(s).RulesEach(coupons, hasCode)

	if err := f.SetFieldValue(ctx, coupons, []any{coupon("A", 10), coupon("B", 20), coupon("", 30)}); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}
	result, err := f.ValidateForm(ctx)
	if err != nil {
		t.Fatalf("ValidateForm() error = %v", err)
	}
	if diff := cmp.Diff([]string{"coupons[2]"}, result.Errors.Paths()); diff != "" {
		t.Fatalf("error paths mismatch (-want +got):\n%s", diff)
	}

	root := map[string]any{"email": "ada@example.com", "coupons": []any{coupon("A", 10)}}
	if err := f.SetFieldValue(ctx, s.Root(), root); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}
	if got := f.State().Errors().Val(); len(got) != 0 {
		t.Errorf("expected removed element errors purged, got %v", got.Paths())
	}

	result, err = f.ValidateForm(ctx)
	if err != nil {
		t.Fatalf("ValidateForm() error = %v", err)
	}
	if !result.Valid() {
		t.Errorf("expected valid form after shrink, got %v", result.Errors.Paths())
	}
}

func TestRemovedElements(t *testing.T) {
	prev := map[string]any{
		"coupons": []any{coupon("A", 1), coupon("B", 2)},
		"nested":  map[string]any{"tags": []any{"x", "y", "z"}},
	}
	next := map[string]any{
		"coupons": []any{coupon("A", 1)},
		"nested":  map[string]any{"tags": []any{"x"}},
	}
	got := removedElements("", prev, next, nil)
	sort.Strings(got)
	want := []string{"coupons[1]", "nested.tags[1]", "nested.tags[2]"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SetFieldValue_ElementGrowsTouchedShape(t *testing.T) {
	ctx := context.Background()
	s := orderSchema()
	f := New(s)

	el := s.MustField("tags[2]")
	if err := f.SetFieldValue(ctx, el, "c"); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}

	values := f.Values().(map[string]any)["tags"]
	if diff := cmp.Diff([]any{nil, nil, "c"}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	touched := f.State().Touched().Val().(map[string]any)["tags"]
	if diff := cmp.Diff([]any{false, false, true}, touched); diff != "" {
		t.Errorf("touched mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_TouchField_RunsBlurRules(t *testing.T) {
	ctx := context.Background()
	s := signupSchema()
	name := s.MustField("name")
	f := New(s).Rules(name, Required().On(TriggerBlur))

	if err := f.SetFieldValue(ctx, name, ""); err != nil {
		t.Fatalf("SetFieldValue() error = %v", err)
	}
	if f.Error(name) != nil {
		t.Fatal("blur-only rule ran on change")
	}

	if err := f.TouchField(ctx, name); err != nil {
		t.Fatalf("TouchField() error = %v", err)
	}
	if e := f.Error(name); e == nil || e.Code != CodeRequired {
		t.Errorf("expected required error, got %v", e)
	}
}

func TestForm_SetFieldTouched_False(t *testing.T) {
	ctx := context.Background()
	s := signupSchema()
	name := s.MustField("name")
	f := New(s).Rules(name, Required())

	_ = f.TouchField(ctx, name)
	f.state.errors.Set(Errors{})

	if err := f.SetFieldTouched(ctx, name, false); err != nil {
		t.Fatalf("SetFieldTouched() error = %v", err)
	}
	if f.State().IsTouched("name") {
		t.Error("expected name untouched")
	}
	if f.Error(name) != nil {
		t.Error("untouching must not validate")
	}
}

func TestForm_ResetForm(t *testing.T) {
	ctx := context.Background()
	s := orderSchema()
	f := New(s)

	_ = f.SetFieldValue(ctx, s.MustField("email"), "a@b.c")
	f.state.errors.Set(Errors{"email": NewFieldError("x", nil)})
	f.state.successfulSubmits.Set(2)
	f.state.isSubmitting.Set(true)

	err := f.ResetForm(ctx, map[string]any{
		"address": map[string]any{"city": "Kraków"},
		"tags":    []any{"x"},
	})
	if err != nil {
		t.Fatalf("ResetForm() error = %v", err)
	}

	want := map[string]any{
		"email":    "",
		"address":  map[string]any{"street": "", "city": "Kraków"},
		"coupons":  []any{},
		"tags":     []any{"x"},
		"delivery": nil,
		"plan":     "basic",
	}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.State().InitialValues().Val()); diff != "" {
		t.Errorf("initial values mismatch (-want +got):\n%s", diff)
	}
	if f.State().IsTouched("") {
		t.Error("expected touched cleared")
	}
	if len(f.State().Errors().Val()) != 0 {
		t.Error("expected errors cleared")
	}
	if f.State().IsSubmitting().Val() {
		t.Error("expected isSubmitting reset")
	}
	if f.State().SuccessfulSubmits().Val() != 2 {
		t.Error("submit counters must survive reset")
	}
}

func TestForm_ResetForm_ArraysReplacedNotMerged(t *testing.T) {
	ctx := context.Background()
	s := NewSchema(Prop("tags", Array(String()).Default([]any{"a", "b", "c"})))
	f := New(s)

	if err := f.ResetForm(ctx, map[string]any{"tags": []any{"z"}}); err != nil {
		t.Fatalf("ResetForm() error = %v", err)
	}
	if diff := cmp.Diff(map[string]any{"tags": []any{"z"}}, f.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_ResetForm_RejectsUndecodable(t *testing.T) {
	f, _ := newSignupForm()
	before := f.Values()
	err := f.ResetForm(context.Background(), map[string]any{"age": "old"})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if diff := cmp.Diff(before, f.Values()); diff != "" {
		t.Errorf("values changed (-before +after):\n%s", diff)
	}
}

func TestMergeDefaults(t *testing.T) {
	def := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": []any{1, 2}, "c": "d"}
	over := map[string]any{"a": map[string]any{"y": 3}, "b": []any{9}}
	want := map[string]any{"a": map[string]any{"x": 1, "y": 3}, "b": []any{9}, "c": "d"}
	if diff := cmp.Diff(want, mergeDefaults(def, over)); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if got := mergeDefaults(def, nil); !cmp.Equal(got, def) {
		t.Error("nil override should return defaults")
	}
}
