package formts

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"github.com/VirtusLab-Open-Source/formts-sub001/atom"
	"github.com/google/go-cmp/cmp"
)

// FieldState is what a rendered field needs: its value, whether it
// differs from its initial value, its touched subtree and whether the
// form was ever submitted.
type FieldState struct {
	Value     any
	Changed   bool
	Touched   any
	Submitted bool
}

// IsTouched resolves the touched subtree to a single flag.
func (s FieldState) IsTouched() bool {
	return ResolveTouched(s.Touched)
}

func sameFieldState(a, b FieldState) bool {
	return atom.Same(a.Value, b.Value) &&
		a.Changed == b.Changed &&
		atom.Same(a.Touched, b.Touched) &&
		a.Submitted == b.Submitted
}

// FieldState returns the state cell for field. Cells are built on first
// access and cached by path for the life of the form.
func (f *Form) FieldState(field *Field) atom.Readable[FieldState] {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	if c, ok := f.fieldStates[field.path]; ok {
		return c
	}

	value := atom.Entangle(f.state.values, field.lens)
	initial := atom.Entangle(f.state.initialValues, field.lens)
	changed := atom.Fuse2(func(v, i any) bool {
		return !cmp.Equal(v, i)
	}, value, initial)
	touched := atom.Entangle(f.state.touched, field.lens)
	submitted := atom.Fuse2(func(ok, failed int) bool {
		return ok+failed > 0
	}, f.state.successfulSubmits, f.state.failedSubmits)

	c := atom.Fuse4(func(v any, ch bool, t any, s bool) FieldState {
		return FieldState{Value: v, Changed: ch, Touched: t, Submitted: s}
	}, value, changed, touched, submitted).Equality(sameFieldState)

	f.fieldStates[field.path] = c
	return c
}

// Fingerprint returns a cell holding the serialized errors and validating
// entries at or beneath field. It changes exactly when that subtree does.
func (f *Form) Fingerprint(field *Field) atom.Readable[string] {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()
	return f.fingerprint(field.path)
}

func (f *Form) fingerprint(path string) *atom.Fused[string] {
	if c, ok := f.fingerprints[path]; ok {
		return c
	}
	c := atom.Fuse2(func(e Errors, v Validating) string {
		return serializeSubtree(path, e, v)
	}, f.state.errors, f.state.validating)
	f.fingerprints[path] = c
	return c
}

// depFingerprint is a cached dependency cell and the dependency set it
// was built from.
type depFingerprint struct {
	deps string
	cell *atom.Fused[string]
}

// DependencyFingerprint returns a cell combining the fingerprints of every
// path the field's rules depend on. Consumers re-evaluate when it changes.
// Registering rules that add dependencies yields a new cell on the next
// call; cells returned earlier keep their dependency set.
func (f *Form) DependencyFingerprint(field *Field) atom.Readable[string] {
	var deps []string
	for _, r := range f.rulesFor(field.path) {
		deps = append(deps, r.Deps...)
	}
	sort.Strings(deps)
	deps = slices.Compact(deps)
	key := strings.Join(deps, "\x00")

	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	if c, ok := f.depFingerprints[field.path]; ok && c.deps == key {
		return c.cell
	}
	sources := make([]atom.Readable[string], 0, len(deps))
	for _, d := range deps {
		sources = append(sources, f.fingerprint(d))
	}
	c := atom.Fuse(func(prints ...string) string {
		return strings.Join(prints, "|")
	}, sources...)
	f.depFingerprints[field.path] = depFingerprint{deps: key, cell: c}
	return c
}

type subtreeSnapshot struct {
	Errors     map[string]*FieldError `json:"errors,omitempty"`
	Validating map[string][]string    `json:"validating,omitempty"`
}

func serializeSubtree(path string, e Errors, v Validating) string {
	var snap subtreeSnapshot
	for p, fe := range e {
		if !IsUnder(p, path) {
			continue
		}
		if snap.Errors == nil {
			snap.Errors = make(map[string]*FieldError)
		}
		snap.Errors[p] = fe
	}
	for p, runs := range v {
		if !IsUnder(p, path) {
			continue
		}
		if snap.Validating == nil {
			snap.Validating = make(map[string][]string)
		}
		ids := make([]string, 0, len(runs))
		for id := range runs {
			ids = append(ids, id.String())
		}
		sort.Strings(ids)
		snap.Validating[p] = ids
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	return string(data)
}
