package formts

// Trigger is the event class a validation run was started for.
type Trigger int32

const (
	// TriggerNone marks an explicit validation call. Every rule runs,
	// whatever its trigger restriction.
	TriggerNone Trigger = iota

	// TriggerChange marks validation following a value write.
	TriggerChange

	// TriggerBlur marks validation following a field losing focus.
	TriggerBlur

	// TriggerSubmit marks validation during form submission.
	TriggerSubmit
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	switch t {
	case TriggerNone:
		return "none"
	case TriggerChange:
		return "change"
	case TriggerBlur:
		return "blur"
	case TriggerSubmit:
		return "submit"
	default:
		return "unknown"
	}
}
