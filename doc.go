/*
Package formts keeps form state in reactive cells and orchestrates
validation over it.

# State

A Form holds its state as a set of independent cells (see package atom):
values, initial values, touched flags, errors keyed by field path, the
runs validating each path, and submission counters. Consumers subscribe to
the cells they render and are notified only when those change:

	form := formts.New(schema)
	key := form.FieldState(schema.MustField("age")).Subscribe(func(s formts.FieldState) {
	    render(s.Value, s.Changed, s.IsTouched())
	})

# Paths

Fields are identified by path strings of the form
segment ("." segment | "[" index "]")*, e.g. "address.street" or
"coupons[2].code". Paths key the errors and validating maps and are the
only serializable field identifier.

# Validation

Rules are registered per field and may be restricted to triggers:

	form.Rules(schema.MustField("age"),
	    formts.Required(),
	    formts.MinValue(18).On(formts.TriggerChange, formts.TriggerSubmit),
	)

Each validation of a field is a run with its own identifier. When a newer
run for the same path starts before an older one settles, the older
result is discarded instead of overwriting the newer one. Rules receive a
context; with CancelSuperseded the older run's context is also canceled.

Rule checks flow through a pipz pipeline, so remote checks can be wrapped
with timeouts, retries and circuit breakers:

	form := formts.New(schema,
	    formts.WithTimeout(2*time.Second),
	    formts.WithRetry(3),
	)

# Lifecycle

SetFieldValue decodes, commits, marks touched and validates on change.
TouchField validates on blur. SubmitForm validates everything and counts
the attempt. ResetForm restores initial values, optionally from a bound
source (Load, Bind).

# Sources

Bind keeps initial values in sync with a Watcher. FileWatcher and
ChannelWatcher live here; the subpackages of pkg provide watchers for
redis, etcd, NATS, consul, zookeeper, kubernetes and postgres. A source
that emits "{}" resets the form to its schema defaults:

	w := formts.NewFileWatcher("signup.yaml", formts.FileDefaultsWhenMissing())
	form := formts.New(schema).Codec(formts.CodecFor("signup.yaml"))
	if err := form.Bind(ctx, w); err != nil {
	    return err
	}

# Observability

Every lifecycle step emits a capitan signal (see signals.go). A
MetricsProvider receives validation and submission callbacks, and
DiagnosticHistory retains recent decode and rule failures.
*/
package formts
