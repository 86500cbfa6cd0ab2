package formts

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/VirtusLab-Open-Source/formts-sub001/atom"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultSourceDebounce is the default debounce duration for values
// arriving from a bound source.
const DefaultSourceDebounce = 100 * time.Millisecond

// Form owns a form state aggregate and orchestrates validation over it.
// All operations are safe for concurrent use.
type Form struct {
	schema         *Schema
	state          *State
	pipeline       pipz.Chainable[*Check]
	clock          clockz.Clock
	codec          Codec
	metrics        MetricsProvider
	diagnostics    *diagnosticRing
	debounce       time.Duration
	sourceDebounce time.Duration
	cancelStale    bool

	rulesMu    sync.RWMutex
	rules      map[string][]Rule
	each       map[string][]Rule
	dependents map[string][]string
	// Arrays whose element rules depend on a path.
	eachDependents map[string][]string

	// Lock order: errors cell, then runsMu.
	runsMu sync.Mutex
	latest map[string]*ValidationRun

	cacheMu         sync.Mutex
	fieldStates     map[string]*atom.Fused[FieldState]
	fingerprints    map[string]*atom.Fused[string]
	depFingerprints map[string]depFingerprint

	timersMu sync.Mutex
	timers   map[string]*pendingValidation

	bindMu sync.Mutex
	bound  bool
}

// New creates a Form for schema with values set to the schema defaults.
//
// Pipeline options (With*) wrap every rule check. Instance configuration
// uses chainable methods before the form is shared.
//
// Example:
//
//	schema := formts.NewSchema(
//	    formts.Prop("name", formts.String()),
//	    formts.Prop("age", formts.Number()),
//	)
//	form := formts.New(schema, formts.WithTimeout(time.Second)).
//	    Rules(schema.MustField("age"),
//	        formts.Required(),
//	        formts.MinValue(18).On(formts.TriggerChange, formts.TriggerSubmit),
//	    )
func New(schema *Schema, opts ...Option) *Form {
	terminal := pipz.Apply(checkID, func(ctx context.Context, c *Check) (*Check, error) {
		res, err := c.Rule.Check(ctx, c.Input)
		if err != nil {
			return c, err
		}
		c.Result = res
		return c, nil
	})

	return &Form{
		schema:          schema,
		state:           newState(schema.Defaults()),
		pipeline:        buildPipeline(terminal, opts),
		clock:           clockz.RealClock,
		codec:           JSONCodec{},
		sourceDebounce:  DefaultSourceDebounce,
		rules:           make(map[string][]Rule),
		each:            make(map[string][]Rule),
		dependents:      make(map[string][]string),
		eachDependents:  make(map[string][]string),
		latest:          make(map[string]*ValidationRun),
		fieldStates:     make(map[string]*atom.Fused[FieldState]),
		fingerprints:    make(map[string]*atom.Fused[string]),
		depFingerprints: make(map[string]depFingerprint),
		timers:          make(map[string]*pendingValidation),
	}
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets a custom clock for run timestamps and debounce timers.
// Use this with clockz.FakeClock for deterministic tests.
func (f *Form) Clock(clock clockz.Clock) *Form {
	f.clock = clock
	return f
}

// Debounce delays change-triggered validation until no write to the same
// field happened for d. Default: 0, validate on every write.
func (f *Form) Debounce(d time.Duration) *Form {
	f.debounce = d
	return f
}

// SourceDebounce sets how long Bind waits for a source to settle before
// loading new values. Default: 100ms.
func (f *Form) SourceDebounce(d time.Duration) *Form {
	f.sourceDebounce = d
	return f
}

// Codec sets the codec used by Load and Bind. Default: JSONCodec.
func (f *Form) Codec(codec Codec) *Form {
	f.codec = codec
	return f
}

// Metrics sets a metrics provider for observability integration.
func (f *Form) Metrics(provider MetricsProvider) *Form {
	f.metrics = provider
	return f
}

// DiagnosticHistory sets the number of recent diagnostics to retain.
// Use 0 (default) to disable the history.
func (f *Form) DiagnosticHistory(n int) *Form {
	f.diagnostics = newDiagnosticRing(n)
	return f
}

// CancelSuperseded cancels the context of a run when a newer run for the
// same path starts. Without it, superseded runs finish and their result
// is discarded.
func (f *Form) CancelSuperseded() *Form {
	f.cancelStale = true
	return f
}

// Rules registers rules for field. Rules run in registration order and
// the first failure wins. Declared dependencies make the field
// re-validate when they change.
func (f *Form) Rules(field *Field, rules ...Rule) *Form {
	f.rulesMu.Lock()
	defer f.rulesMu.Unlock()
	f.rules[field.path] = append(f.rules[field.path], rules...)
	linkDependents(f.dependents, field.path, rules)
	return f
}

// RulesEach registers rules for every element of an array field. When a
// declared dependency changes, every element present at that time is
// re-validated.
func (f *Form) RulesEach(field *Field, rules ...Rule) *Form {
	f.rulesMu.Lock()
	defer f.rulesMu.Unlock()
	f.each[field.path] = append(f.each[field.path], rules...)
	linkDependents(f.eachDependents, field.path, rules)
	return f
}

func linkDependents(links map[string][]string, path string, rules []Rule) {
	for _, r := range rules {
		for _, dep := range r.Deps {
			if !slices.Contains(links[dep], path) {
				links[dep] = append(links[dep], path)
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Schema returns the form schema.
func (f *Form) Schema() *Schema {
	return f.schema
}

// State returns the read-only view of the form state aggregate.
func (f *Form) State() *State {
	return f.state
}

// Values returns the current values tree.
func (f *Form) Values() any {
	return f.state.values.Val()
}

// Value returns the current value of field.
func (f *Form) Value(field *Field) any {
	return field.lens.Get(f.state.values.Val())
}

// Error returns the current error of field, or nil.
func (f *Form) Error(field *Field) *FieldError {
	return f.state.errors.Val()[field.path]
}

// Dependents returns the paths whose rules declare field as a dependency.
// An array whose element rules depend on field is listed by its own path.
func (f *Form) Dependents(field *Field) []string {
	f.rulesMu.RLock()
	defer f.rulesMu.RUnlock()
	out := slices.Clone(f.dependents[field.path])
	for _, p := range f.eachDependents[field.path] {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// Diagnostics returns the recent diagnostics, oldest first.
// Returns nil if the history is not enabled (see DiagnosticHistory).
func (f *Form) Diagnostics() []Diagnostic {
	return f.diagnostics.all()
}

// ClearDiagnostics drops the retained diagnostics.
func (f *Form) ClearDiagnostics() {
	f.diagnostics.clear()
}

func (f *Form) diagnose(path string, err error) {
	f.diagnostics.push(Diagnostic{Path: path, Err: err, At: f.clock.Now()})
}

// rulesFor returns the rules registered for path, including rules
// registered for every element of its parent array.
func (f *Form) rulesFor(path string) []Rule {
	f.rulesMu.RLock()
	defer f.rulesMu.RUnlock()
	rules := slices.Clone(f.rules[path])
	if parent, ok := arrayParent(path); ok {
		rules = append(rules, f.each[parent]...)
	}
	return rules
}

// arrayParent returns "items" for "items[3]".
func arrayParent(path string) (string, bool) {
	segs, err := ParsePath(path)
	if err != nil || len(segs) == 0 || !segs[len(segs)-1].IsIndex {
		return "", false
	}
	return FormatPath(segs[:len(segs)-1]), true
}

func (f *Form) emitDecodeFailure(ctx context.Context, field *Field, err error) {
	capitan.Emit(ctx, FieldDecodeFailed,
		KeyPath.Field(field.path),
		KeyError.Field(err.Error()),
	)
	f.diagnose(field.path, err)
	if f.metrics != nil {
		f.metrics.OnDecodeFailure(field.path)
	}
}
