package formts

import (
	"sort"

	"github.com/VirtusLab-Open-Source/formts-sub001/atom"
	"github.com/google/uuid"
)

// RunID identifies one validation invocation for one path.
type RunID = uuid.UUID

// Errors maps field paths to their current validation error. A missing
// key means the field has no error. Maps are replaced, never mutated.
type Errors map[string]*FieldError

// Validating maps field paths to the set of runs in flight for them.
type Validating map[string]map[RunID]struct{}

// State is the form state aggregate. Every slot is its own cell, so a
// consumer subscribes only to what it renders. Outside the package the
// slots are reachable read-only.
type State struct {
	initialValues     *atom.Atom[any]
	values            *atom.Atom[any]
	touched           *atom.Atom[any]
	errors            *atom.Atom[Errors]
	validating        *atom.Atom[Validating]
	isSubmitting      *atom.Atom[bool]
	successfulSubmits *atom.Atom[int]
	failedSubmits     *atom.Atom[int]
}

func newState(initial any) *State {
	return &State{
		initialValues:     atom.Of(initial),
		values:            atom.Of(initial),
		touched:           atom.Of(mirror(initial, false)),
		errors:            atom.Of(Errors{}),
		validating:        atom.Of(Validating{}),
		isSubmitting:      atom.Of(false),
		successfulSubmits: atom.Of(0),
		failedSubmits:     atom.Of(0),
	}
}

func (s *State) InitialValues() atom.Readable[any]     { return s.initialValues }
func (s *State) Values() atom.Readable[any]            { return s.values }
func (s *State) Touched() atom.Readable[any]           { return s.touched }
func (s *State) Errors() atom.Readable[Errors]         { return s.errors }
func (s *State) Validating() atom.Readable[Validating] { return s.validating }
func (s *State) IsSubmitting() atom.Readable[bool]     { return s.isSubmitting }
func (s *State) SuccessfulSubmits() atom.Readable[int] { return s.successfulSubmits }
func (s *State) FailedSubmits() atom.Readable[int]     { return s.failedSubmits }

// IsValidating reports whether any run is in flight for path or beneath it.
func (s *State) IsValidating(path string) bool {
	for p := range s.validating.Val() {
		if IsUnder(p, path) {
			return true
		}
	}
	return false
}

// IsTouched reports whether path or anything beneath it was touched.
func (s *State) IsTouched(path string) bool {
	l, err := PathLens(path)
	if err != nil {
		return false
	}
	return ResolveTouched(l.Get(s.touched.Val()))
}

func (e Errors) with(path string, fe *FieldError) Errors {
	prev, had := e[path]
	if fe == nil && !had {
		return e
	}
	if had && prev == fe {
		return e
	}
	out := make(Errors, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	if fe == nil {
		delete(out, path)
	} else {
		out[path] = fe
	}
	return out
}

func (e Errors) without(drop func(path string) bool) Errors {
	var out Errors
	for k := range e {
		if drop(k) {
			out = make(Errors, len(e))
			break
		}
	}
	if out == nil {
		return e
	}
	for k, v := range e {
		if !drop(k) {
			out[k] = v
		}
	}
	return out
}

// Paths returns the paths with errors, sorted.
func (e Errors) Paths() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (v Validating) add(path string, id RunID) Validating {
	out := make(Validating, len(v)+1)
	for k, runs := range v {
		out[k] = runs
	}
	runs := make(map[RunID]struct{}, len(v[path])+1)
	for r := range v[path] {
		runs[r] = struct{}{}
	}
	runs[id] = struct{}{}
	out[path] = runs
	return out
}

func (v Validating) remove(path string, id RunID) Validating {
	if _, ok := v[path][id]; !ok {
		return v
	}
	out := make(Validating, len(v))
	for k, runs := range v {
		out[k] = runs
	}
	if len(v[path]) == 1 {
		delete(out, path)
		return out
	}
	runs := make(map[RunID]struct{}, len(v[path])-1)
	for r := range v[path] {
		if r != id {
			runs[r] = struct{}{}
		}
	}
	out[path] = runs
	return out
}
