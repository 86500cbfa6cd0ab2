package formts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidPath is returned when a field path does not follow the
	// segment ("." segment | "[" index "]")* grammar.
	ErrInvalidPath = errors.New("invalid field path")

	// ErrUnknownField is returned when a path does not name a schema field.
	ErrUnknownField = errors.New("unknown field")

	// ErrDecode wraps decoder failures.
	ErrDecode = errors.New("decode failed")

	// ErrNoForm is the panic value when a form is required from a context
	// that does not carry one.
	ErrNoForm = errors.New("no form in context")
)

// FieldError is the value recorded for a field that failed validation.
// Code identifies the failing rule; Params carry the rule's parameters.
type FieldError struct {
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Issues  []*FieldError  `json:"issues,omitempty"`
}

// NewFieldError creates a FieldError with the given code and params.
func NewFieldError(code string, params map[string]any) *FieldError {
	return &FieldError{Code: code, Params: params}
}

// WithMessage returns a copy carrying a human-readable message.
func (e *FieldError) WithMessage(msg string) *FieldError {
	c := *e
	c.Message = msg
	return &c
}

// Param returns the named parameter, or nil.
func (e *FieldError) Param(name string) any {
	if e == nil {
		return nil
	}
	return e.Params[name]
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Issues) > 0 {
		codes := make([]string, len(e.Issues))
		for i, issue := range e.Issues {
			codes[i] = issue.Error()
		}
		return fmt.Sprintf("%s: %s", e.Code, strings.Join(codes, "; "))
	}
	if len(e.Params) == 0 {
		return e.Code
	}
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, e.Params[k])
	}
	return fmt.Sprintf("%s(%s)", e.Code, strings.Join(parts, ", "))
}
