package formts

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Pipeline identities.
var (
	checkID          = pipz.NewIdentity("formts:check", "Runs a validation rule")
	retryID          = pipz.NewIdentity("formts:retry", "Retries failed rule checks")
	backoffID        = pipz.NewIdentity("formts:backoff", "Retries failed rule checks with backoff")
	timeoutID        = pipz.NewIdentity("formts:timeout", "Bounds rule check duration")
	fallbackID       = pipz.NewIdentity("formts:fallback", "Falls back when a rule check fails")
	circuitBreakerID = pipz.NewIdentity("formts:circuit-breaker", "Stops calling a failing rule backend")
	errorHandlerID   = pipz.NewIdentity("formts:error-handler", "Observes rule check failures")
	middlewareID     = pipz.NewIdentity("formts:middleware", "Rule middleware sequence")
)

// Option configures the rule pipeline of a Form. Pipeline options wrap
// every rule check with middleware for retry, timeout, circuit breaking,
// and other reliability patterns. They matter most for rules that call
// remote services.
//
// Instance configuration (clock, debounce, codec, etc.) is handled via
// chainable methods on the Form.
type Option func(pipz.Chainable[*Check]) pipz.Chainable[*Check]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline(terminal pipz.Chainable[*Check], opts []Option) pipz.Chainable[*Check] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithRetry retries a failing rule check immediately, up to maxAttempts
// attempts in total. A check that returns a FieldError has not failed.
func WithRetry(maxAttempts int) Option {
	return func(p pipz.Chainable[*Check]) pipz.Chainable[*Check] {
		return pipz.NewRetry(retryID, p, maxAttempts)
	}
}

// WithBackoff retries a failing rule check with delays of baseDelay,
// 2*baseDelay, 4*baseDelay and so on.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(p pipz.Chainable[*Check]) pipz.Chainable[*Check] {
		return pipz.NewBackoff(backoffID, p, maxAttempts, baseDelay)
	}
}

// WithTimeout fails a rule check that takes longer than d. The rule's
// context is canceled at the deadline.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[*Check]) pipz.Chainable[*Check] {
		return pipz.NewTimeout(timeoutID, p, d)
	}
}

// WithFallback tries each fallback in order when the rule check fails.
func WithFallback(fallbacks ...pipz.Chainable[*Check]) Option {
	return func(p pipz.Chainable[*Check]) pipz.Chainable[*Check] {
		all := append([]pipz.Chainable[*Check]{p}, fallbacks...)
		return pipz.NewFallback(fallbackID, all...)
	}
}

// WithCircuitBreaker stops invoking rules after failures consecutive
// failures until recovery has passed.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(p pipz.Chainable[*Check]) pipz.Chainable[*Check] {
		return pipz.NewCircuitBreaker(circuitBreakerID, p, failures, recovery)
	}
}

// WithErrorHandler passes rule check failures to handler. The error still
// propagates to the caller of the validation.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*Check]]) Option {
	return func(p pipz.Chainable[*Check]) pipz.Chainable[*Check] {
		return pipz.NewHandle(errorHandlerID, p, handler)
	}
}

// WithMiddleware runs processors in order before every rule check.
//
// Example:
//
//	form := formts.New(schema,
//	    formts.WithMiddleware(
//	        formts.UseEffect(auditID, audit),
//	    ),
//	    formts.WithTimeout(2*time.Second),
//	)
func WithMiddleware(processors ...pipz.Chainable[*Check]) Option {
	return func(p pipz.Chainable[*Check]) pipz.Chainable[*Check] {
		all := make([]pipz.Chainable[*Check], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence(middlewareID, all...)
	}
}

// UseTransform creates a processor that rewrites the check. Cannot fail.
func UseTransform(id pipz.Identity, fn func(context.Context, *Check) *Check) pipz.Chainable[*Check] {
	return pipz.Transform(id, fn)
}

// UseApply creates a processor that can rewrite the check and fail.
func UseApply(id pipz.Identity, fn func(context.Context, *Check) (*Check, error)) pipz.Chainable[*Check] {
	return pipz.Apply(id, fn)
}

// UseEffect creates a processor that performs a side effect. The check
// passes through unchanged.
func UseEffect(id pipz.Identity, fn func(context.Context, *Check) error) pipz.Chainable[*Check] {
	return pipz.Effect(id, fn)
}
