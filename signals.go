package formts

import "github.com/zoobzio/capitan"

// Form lifecycle signals.
var (
	// FormReset is emitted when a form is reset to new initial values.
	FormReset = capitan.NewSignal(
		"formts.form.reset",
		"Form reset to initial values",
	)

	// FieldDecodeFailed is emitted when a written value cannot be decoded
	// to the field's type. The write is dropped.
	FieldDecodeFailed = capitan.NewSignal(
		"formts.field.decode.failed",
		"Field value rejected by decoder",
	)
)

// Validation signals.
var (
	// ValidationStarted is emitted when a validation run begins for a path.
	ValidationStarted = capitan.NewSignal(
		"formts.validation.started",
		"Validation run started",
	)

	// ValidationSettled is emitted when a run's result is written back.
	ValidationSettled = capitan.NewSignal(
		"formts.validation.settled",
		"Validation run settled",
	)

	// ValidationDiscarded is emitted when a run settles after a newer run
	// for the same path started. Its result is dropped.
	ValidationDiscarded = capitan.NewSignal(
		"formts.validation.discarded",
		"Stale validation result discarded",
	)

	// ValidationFailed is emitted when a rule returns an error instead of
	// a verdict.
	ValidationFailed = capitan.NewSignal(
		"formts.validation.failed",
		"Validation rule failed",
	)
)

// Submission signals.
var (
	// SubmitStarted is emitted when a submission begins.
	SubmitStarted = capitan.NewSignal(
		"formts.submit.started",
		"Form submission started",
	)

	// SubmitSucceeded is emitted when a submission passes validation.
	SubmitSucceeded = capitan.NewSignal(
		"formts.submit.succeeded",
		"Form submitted with no errors",
	)

	// SubmitFailed is emitted when a submission ends with validation errors
	// or a rule failure.
	SubmitFailed = capitan.NewSignal(
		"formts.submit.failed",
		"Form submission failed",
	)
)

// Source signals.
var (
	// SourceChanged is emitted when a bound source delivers new initial values.
	SourceChanged = capitan.NewSignal(
		"formts.source.changed",
		"Initial values received from source",
	)

	// SourceFailed is emitted when source data cannot be loaded.
	SourceFailed = capitan.NewSignal(
		"formts.source.failed",
		"Initial values from source rejected",
	)

	// SourceStopped is emitted when a bound source stops delivering.
	SourceStopped = capitan.NewSignal(
		"formts.source.stopped",
		"Source binding stopped",
	)
)
