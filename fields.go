package formts

import "github.com/zoobzio/capitan"

// Field keys for form events.
var (
	// KeyPath is the field path an event refers to.
	KeyPath = capitan.NewStringKey("path")

	// KeyTrigger is the trigger of a validation run.
	KeyTrigger = capitan.NewStringKey("trigger")

	// KeyRunID is the identifier of a validation run.
	KeyRunID = capitan.NewStringKey("run_id")

	// KeyRule is the name of the rule involved.
	KeyRule = capitan.NewStringKey("rule")

	// KeyCode is the error code a run produced, empty when valid.
	KeyCode = capitan.NewStringKey("code")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDuration is how long a run took.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyErrorCount is the number of field errors after validation.
	KeyErrorCount = capitan.NewIntKey("error_count")

	// KeySubmitCount is the lifetime submission attempt count.
	KeySubmitCount = capitan.NewIntKey("submit_count")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyContentType is the codec content type of loaded data.
	KeyContentType = capitan.NewStringKey("content_type")
)
