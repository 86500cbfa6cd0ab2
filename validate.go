package formts

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"golang.org/x/sync/errgroup"
)

// Accessor supplies the values tree a validation run reads from.
type Accessor func() any

// ValidationRun is one validation invocation for one path.
type ValidationRun struct {
	ID        RunID
	Path      string
	Trigger   Trigger
	StartedAt time.Time

	cancel context.CancelFunc
}

// ValidationResult is the outcome of validating the whole form.
type ValidationResult struct {
	Errors Errors
}

// Issue pairs a path with its error.
type Issue struct {
	Path  string
	Error *FieldError
}

// Valid reports whether no field has an error.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Issues returns the errors sorted by path.
func (r ValidationResult) Issues() []Issue {
	out := make([]Issue, 0, len(r.Errors))
	for _, p := range r.Errors.Paths() {
		out = append(out, Issue{Path: p, Error: r.Errors[p]})
	}
	return out
}

// ValidateField validates field against the current values. Fields whose
// rules depend on field are validated after it.
func (f *Form) ValidateField(ctx context.Context, field *Field, trigger Trigger) error {
	return f.ValidateFieldWith(ctx, field, trigger, f.state.values.Val)
}

// ValidateFieldWith is ValidateField reading values through accessor, so
// a field can be validated against values not yet committed.
func (f *Form) ValidateFieldWith(ctx context.Context, field *Field, trigger Trigger, accessor Accessor) error {
	return f.validate(ctx, field, trigger, accessor, map[string]bool{})
}

func (f *Form) validate(ctx context.Context, field *Field, trigger Trigger, accessor Accessor, visited map[string]bool) error {
	visited[field.path] = true
	if err := f.validateOne(ctx, field, trigger, accessor); err != nil {
		return err
	}

	for _, path := range f.dependentsOf(field.path, accessor()) {
		if visited[path] {
			continue
		}
		dep, err := f.schema.Field(path)
		if err != nil {
			return fmt.Errorf("dependent of %s: %w", field.path, err)
		}
		if err := f.validate(ctx, dep, trigger, accessor, visited); err != nil {
			return err
		}
	}
	return nil
}

// dependentsOf lists the paths to re-validate after path. Element rules
// expand over the elements present in values.
func (f *Form) dependentsOf(path string, values any) []string {
	f.rulesMu.RLock()
	defer f.rulesMu.RUnlock()

	out := slices.Clone(f.dependents[path])
	for _, arr := range f.eachDependents[path] {
		l, err := PathLens(arr)
		if err != nil {
			continue
		}
		items, _ := l.Get(values).([]any)
		for i := range items {
			out = append(out, JoinIndex(arr, i))
		}
	}
	return out
}

// validateOne runs the qualifying rules of a single field as one run.
func (f *Form) validateOne(ctx context.Context, field *Field, trigger Trigger, accessor Accessor) error {
	var rules []Rule
	for _, r := range f.rulesFor(field.path) {
		if r.runsOn(trigger) {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return nil
	}

	values := accessor()
	runCtx, run := f.startRun(ctx, field.path, trigger)
	defer run.cancel()

	result, err := f.runRules(runCtx, rules, Input{
		Path:      field.path,
		Trigger:   trigger,
		Value:     field.lens.Get(values),
		RunID:     run.ID,
		StartedAt: run.StartedAt,
	}, values)

	return f.settle(ctx, run, runCtx, result, err)
}

func (f *Form) startRun(ctx context.Context, path string, trigger Trigger) (context.Context, *ValidationRun) {
	runCtx, cancel := context.WithCancel(ctx)
	run := &ValidationRun{
		ID:        uuid.New(),
		Path:      path,
		Trigger:   trigger,
		StartedAt: f.clock.Now(),
		cancel:    cancel,
	}

	f.runsMu.Lock()
	prev := f.latest[path]
	f.latest[path] = run
	f.runsMu.Unlock()

	if prev != nil && f.cancelStale {
		prev.cancel()
	}

	f.state.validating.Update(func(v Validating) Validating {
		return v.add(path, run.ID)
	})

	capitan.Emit(ctx, ValidationStarted,
		KeyPath.Field(path),
		KeyTrigger.Field(trigger.String()),
		KeyRunID.Field(run.ID.String()),
	)
	if f.metrics != nil {
		f.metrics.OnValidationStarted(path, trigger)
	}
	return runCtx, run
}

// runRules invokes rules in order through the pipeline. The first
// failing rule wins.
func (f *Form) runRules(ctx context.Context, rules []Rule, in Input, values any) (*FieldError, error) {
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deps, err := readDeps(r.Deps, values)
		if err != nil {
			return nil, fmt.Errorf("rule %q on %s: %w", r.Name, in.Path, err)
		}
		in.Deps = deps

		out, err := f.pipeline.Process(ctx, &Check{Rule: r, Input: in})
		if err != nil {
			capitan.Emit(ctx, ValidationFailed,
				KeyPath.Field(in.Path),
				KeyRule.Field(r.Name),
				KeyError.Field(err.Error()),
			)
			return nil, fmt.Errorf("rule %q on %s: %w", r.Name, in.Path, err)
		}
		if out.Result != nil {
			return out.Result, nil
		}
	}
	return nil, nil
}

func readDeps(paths []string, values any) (map[string]any, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	deps := make(map[string]any, len(paths))
	for _, p := range paths {
		l, err := PathLens(p)
		if err != nil {
			return nil, err
		}
		deps[p] = l.Get(values)
	}
	return deps, nil
}

// settle removes the run from the validating set and writes its result,
// unless a newer run for the same path started in the meantime.
func (f *Form) settle(ctx context.Context, run *ValidationRun, runCtx context.Context, result *FieldError, runErr error) error {
	f.state.validating.Update(func(v Validating) Validating {
		return v.remove(run.Path, run.ID)
	})

	discarded := false
	f.state.errors.Update(func(e Errors) Errors {
		f.runsMu.Lock()
		current := f.latest[run.Path] == run
		f.runsMu.Unlock()

		if !current {
			discarded = true
			return e
		}
		if runErr != nil {
			return e
		}
		return e.with(run.Path, result)
	})

	duration := f.clock.Since(run.StartedAt)
	if f.metrics != nil {
		f.metrics.OnValidationSettled(run.Path, duration, discarded)
	}

	if discarded {
		capitan.Emit(ctx, ValidationDiscarded,
			KeyPath.Field(run.Path),
			KeyRunID.Field(run.ID.String()),
			KeyDuration.Field(duration),
		)
		// A run canceled because it was superseded has nothing to report.
		if runErr != nil && f.cancelStale && runCtx.Err() != nil && ctx.Err() == nil {
			return nil
		}
	} else if runErr == nil {
		code := ""
		if result != nil {
			code = result.Code
		}
		capitan.Emit(ctx, ValidationSettled,
			KeyPath.Field(run.Path),
			KeyRunID.Field(run.ID.String()),
			KeyCode.Field(code),
			KeyDuration.Field(duration),
		)
	}

	if runErr != nil {
		f.diagnose(run.Path, runErr)
		return runErr
	}
	return nil
}

// ValidateForm validates every field that has rules, concurrently, with
// the submit trigger. Array element rules apply to the elements present
// in the current values.
func (f *Form) ValidateForm(ctx context.Context) (ValidationResult, error) {
	values := f.state.values.Val()
	accessor := func() any { return values }

	paths := f.rulePaths(values)
	fields := make([]*Field, 0, len(paths))
	for _, p := range paths {
		field, err := f.schema.Field(p)
		if err != nil {
			return ValidationResult{}, fmt.Errorf("validate form: %w", err)
		}
		fields = append(fields, field)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, field := range fields {
		g.Go(func() error {
			return f.validateOne(gctx, field, TriggerSubmit, accessor)
		})
	}
	if err := g.Wait(); err != nil {
		return ValidationResult{}, err
	}
	return ValidationResult{Errors: f.state.errors.Val()}, nil
}

// rulePaths lists every path with registered rules, expanding element
// rules over the current length of their array.
func (f *Form) rulePaths(values any) []string {
	f.rulesMu.RLock()
	defer f.rulesMu.RUnlock()

	seen := make(map[string]bool)
	for p, rules := range f.rules {
		if len(rules) > 0 {
			seen[p] = true
		}
	}
	for p, rules := range f.each {
		if len(rules) == 0 {
			continue
		}
		l, err := PathLens(p)
		if err != nil {
			continue
		}
		items, _ := l.Get(values).([]any)
		for i := range items {
			seen[JoinIndex(p, i)] = true
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SubmitForm validates the whole form and calls onSuccess with the
// values or onFailure with the result. IsSubmitting is true for the
// duration. The matching submit counter is incremented unless a rule
// returned an error, which is returned without counting.
func (f *Form) SubmitForm(
	ctx context.Context,
	onSuccess func(ctx context.Context, values any) error,
	onFailure func(ctx context.Context, result ValidationResult) error,
) error {
	start := f.clock.Now()
	f.state.isSubmitting.Set(true)
	defer f.state.isSubmitting.Set(false)

	capitan.Emit(ctx, SubmitStarted,
		KeySubmitCount.Field(f.state.successfulSubmits.Val()+f.state.failedSubmits.Val()),
	)

	result, err := f.ValidateForm(ctx)
	if err != nil {
		capitan.Emit(ctx, SubmitFailed, KeyError.Field(err.Error()))
		return fmt.Errorf("submit: %w", err)
	}

	if result.Valid() {
		f.state.successfulSubmits.Update(func(n int) int { return n + 1 })
		capitan.Emit(ctx, SubmitSucceeded)
		if f.metrics != nil {
			f.metrics.OnSubmit(true, f.clock.Since(start))
		}
		if onSuccess != nil {
			return onSuccess(ctx, f.state.values.Val())
		}
		return nil
	}

	f.state.failedSubmits.Update(func(n int) int { return n + 1 })
	capitan.Emit(ctx, SubmitFailed, KeyErrorCount.Field(len(result.Errors)))
	if f.metrics != nil {
		f.metrics.OnSubmit(false, f.clock.Since(start))
	}
	if onFailure != nil {
		return onFailure(ctx, result)
	}
	return nil
}

type pendingValidation struct {
	stop chan struct{}
	once sync.Once
}

func (p *pendingValidation) cancel() {
	p.once.Do(func() { close(p.stop) })
}

// schedule runs change validation for field once no further write to it
// happened for the debounce duration.
func (f *Form) schedule(ctx context.Context, field *Field) {
	p := &pendingValidation{stop: make(chan struct{})}

	f.timersMu.Lock()
	if prev, ok := f.timers[field.path]; ok {
		prev.cancel()
	}
	f.timers[field.path] = p
	timer := f.clock.NewTimer(f.debounce)
	f.timersMu.Unlock()

	go func() {
		select {
		case <-timer.C():
			select {
			case <-p.stop:
				return
			default:
			}
			f.timersMu.Lock()
			if f.timers[field.path] == p {
				delete(f.timers, field.path)
			}
			f.timersMu.Unlock()
			// Errors are recorded as diagnostics by settle.
			_ = f.ValidateField(ctx, field, TriggerChange) //nolint:errcheck
		case <-p.stop:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
		}
	}()
}

func (f *Form) cancelScheduled() {
	f.timersMu.Lock()
	defer f.timersMu.Unlock()
	for path, p := range f.timers {
		p.cancel()
		delete(f.timers, path)
	}
}
