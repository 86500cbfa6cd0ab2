package formts

import (
	"context"
	"fmt"

	"github.com/VirtusLab-Open-Source/formts-sub001/atom"
	"github.com/zoobzio/capitan"
)

// SetFieldValue decodes value and writes it to field. The written subtree
// is marked touched and change validation runs against the committed
// values, immediately or after the configured debounce.
//
// A value the decoder rejects is dropped: state is unchanged, a
// FieldDecodeFailed signal and a diagnostic are emitted, and nil is
// returned. Only rule errors are returned.
func (f *Form) SetFieldValue(ctx context.Context, field *Field, value any) error {
	decoded, err := field.Decode(value)
	if err != nil {
		f.emitDecodeFailure(ctx, field, err)
		return nil
	}

	var prev any
	var committed any
	f.state.values.Update(func(v any) any {
		prev = field.lens.Get(v)
		if atom.Same(prev, decoded) {
			committed = v
			return v
		}
		committed = field.lens.Update(v, decoded)
		return committed
	})

	f.markTouched(field, decoded, true, committed)

	if removed := removedElements(field.path, prev, decoded, nil); len(removed) > 0 {
		f.purgeRemoved(removed)
	}

	if f.debounce > 0 {
		f.schedule(ctx, field)
		return nil
	}
	return f.ValidateFieldWith(ctx, field, TriggerChange, func() any { return committed })
}

// markTouched sets every leaf under field to flag and keeps the touched
// tree in the shape of values.
func (f *Form) markTouched(field *Field, value any, flag bool, values any) {
	f.state.touched.Update(func(t any) any {
		next := field.lens.Update(t, mirror(value, flag))
		return conform(next, values)
	})
}

// removedElements appends the paths of array elements present in prev but
// not in next, for every array at or below path.
func removedElements(path string, prev, next any, out []string) []string {
	switch p := prev.(type) {
	case []any:
		n, _ := next.([]any)
		for i, item := range p {
			if i >= len(n) {
				out = append(out, JoinIndex(path, i))
				continue
			}
			out = removedElements(JoinIndex(path, i), item, n[i], out)
		}
	case map[string]any:
		n, _ := next.(map[string]any)
		for k, v := range p {
			out = removedElements(JoinKey(path, k), v, n[k], out)
		}
	}
	return out
}

// purgeRemoved drops errors recorded under the removed element paths.
func (f *Form) purgeRemoved(removed []string) {
	f.state.errors.Update(func(e Errors) Errors {
		return e.without(func(p string) bool {
			for _, r := range removed {
				if IsUnder(p, r) {
					return true
				}
			}
			return false
		})
	})
}

// SetFieldTouched marks the field's value subtree touched or untouched.
// Marking it touched runs blur validation.
func (f *Form) SetFieldTouched(ctx context.Context, field *Field, touched bool) error {
	values := f.state.values.Val()
	f.markTouched(field, field.lens.Get(values), touched, values)
	if !touched {
		return nil
	}
	return f.ValidateField(ctx, field, TriggerBlur)
}

// TouchField marks field touched without changing its value and runs blur
// validation.
func (f *Form) TouchField(ctx context.Context, field *Field) error {
	return f.SetFieldTouched(ctx, field, true)
}

// ResetForm replaces values and initial values with the schema defaults
// overridden by initial, which may be partial or nil. Touched, errors and
// validating are cleared and in-flight runs become stale. Submit counters
// are kept.
func (f *Form) ResetForm(ctx context.Context, initial any) error {
	merged := mergeDefaults(f.schema.Defaults(), initial)
	decoded, err := f.schema.root.Decode(merged)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	f.cancelScheduled()

	f.runsMu.Lock()
	stale := f.latest
	f.latest = make(map[string]*ValidationRun)
	f.runsMu.Unlock()
	if f.cancelStale {
		for _, run := range stale {
			run.cancel()
		}
	}

	f.state.initialValues.Set(decoded)
	f.state.values.Set(decoded)
	f.state.touched.Set(mirror(decoded, false))
	f.state.errors.Update(func(e Errors) Errors {
		if len(e) == 0 {
			return e
		}
		return Errors{}
	})
	f.state.validating.Update(func(v Validating) Validating {
		if len(v) == 0 {
			return v
		}
		return Validating{}
	})
	f.state.isSubmitting.Set(false)

	capitan.Emit(ctx, FormReset)
	return nil
}

// mergeDefaults overlays over onto def. Objects merge key by key; arrays,
// dates and other leaves from over replace the default wholesale.
func mergeDefaults(def, over any) any {
	if over == nil {
		return def
	}
	dm, ok := def.(map[string]any)
	if !ok {
		return over
	}
	om, ok := over.(map[string]any)
	if !ok {
		return over
	}
	out := make(map[string]any, len(dm)+len(om))
	for k, v := range dm {
		out[k] = v
	}
	for k, v := range om {
		out[k] = mergeDefaults(dm[k], v)
	}
	return out
}
