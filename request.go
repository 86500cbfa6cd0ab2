package formts

import (
	"context"
	"slices"
	"time"
)

// Input is what a rule sees when it runs.
type Input struct {
	// Path is the field being validated.
	Path string

	// Trigger is the event the run was started for.
	Trigger Trigger

	// Value is the field value read through the run's accessor.
	Value any

	// Deps holds the values of the rule's declared dependencies, by path.
	Deps map[string]any

	// RunID identifies the run this check belongs to.
	RunID RunID

	// StartedAt is when the run began, per the form clock.
	StartedAt time.Time
}

// Dep returns the value of a declared dependency.
func (in Input) Dep(path string) any {
	return in.Deps[path]
}

// Rule is one validator for a field. Check returns a non-nil FieldError
// when the value is invalid and an error when it could not decide.
type Rule struct {
	Name     string
	Triggers []Trigger
	Deps     []string
	Check    func(ctx context.Context, in Input) (*FieldError, error)
}

// On restricts the rule to the given triggers. An explicit validation
// call (TriggerNone) still runs it.
func (r Rule) On(triggers ...Trigger) Rule {
	r.Triggers = append(slices.Clone(r.Triggers), triggers...)
	return r
}

// DependsOn declares field paths whose values the rule reads. Changing
// any of them re-validates the rule's field.
func (r Rule) DependsOn(paths ...string) Rule {
	r.Deps = append(slices.Clone(r.Deps), paths...)
	return r
}

func (r Rule) runsOn(t Trigger) bool {
	if t == TriggerNone || len(r.Triggers) == 0 {
		return true
	}
	return slices.Contains(r.Triggers, t)
}

// Check carries one rule invocation through the rule pipeline. Middleware
// may inspect or replace Input before the rule runs and Result after.
type Check struct {
	Rule   Rule
	Input  Input
	Result *FieldError
}
