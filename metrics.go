package formts

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key form events.
type MetricsProvider interface {
	// OnValidationStarted is called when a validation run begins.
	OnValidationStarted(path string, trigger Trigger)

	// OnValidationSettled is called when a run completes. Discarded is true
	// when the result was dropped because a newer run superseded it.
	OnValidationSettled(path string, duration time.Duration, discarded bool)

	// OnDecodeFailure is called when a written value is rejected.
	OnDecodeFailure(path string)

	// OnSubmit is called after each submission with its outcome.
	OnSubmit(success bool, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnValidationStarted(_ string, _ Trigger)               {}
func (NoOpMetricsProvider) OnValidationSettled(_ string, _ time.Duration, _ bool) {}
func (NoOpMetricsProvider) OnDecodeFailure(_ string)                              {}
func (NoOpMetricsProvider) OnSubmit(_ bool, _ time.Duration)                      {}
