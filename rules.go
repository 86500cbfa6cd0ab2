package formts

import (
	"context"
	"math"
	"regexp"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/VirtusLab-Open-Source/formts-sub001/atom"
	"github.com/go-playground/validator/v10"
)

// Error codes produced by the built-in rules.
const (
	CodeRequired  = "required"
	CodeMinValue  = "minValue"
	CodeMaxValue  = "maxValue"
	CodeInteger   = "integer"
	CodeMinLength = "minLength"
	CodeMaxLength = "maxLength"
	CodePattern   = "pattern"
	CodeOneOf     = "oneOf"
	CodeMinDate   = "minDate"
	CodeMaxDate   = "maxDate"
	CodeEmail     = "email"
	CodeURL       = "url"
	CodeCompose   = "compose"
)

var validate = validator.New()

// Func wraps a custom check as a rule.
func Func(name string, fn func(ctx context.Context, in Input) (*FieldError, error)) Rule {
	return Rule{Name: name, Check: fn}
}

// predicate builds a synchronous rule that fails with code and params
// when ok returns false.
func predicate(name string, params map[string]any, ok func(v any) bool) Rule {
	return Rule{
		Name: name,
		Check: func(_ context.Context, in Input) (*FieldError, error) {
			if ok(in.Value) {
				return nil, nil
			}
			return NewFieldError(name, params), nil
		},
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// Required fails for nil, "", false and empty containers.
func Required() Rule {
	return predicate(CodeRequired, nil, func(v any) bool { return !isBlank(v) })
}

// MinValue fails for numbers below min. Non-numbers pass.
func MinValue(min float64) Rule {
	return predicate(CodeMinValue, map[string]any{"min": min}, func(v any) bool {
		n, ok := v.(float64)
		return !ok || n >= min
	})
}

// MaxValue fails for numbers above max. Non-numbers pass.
func MaxValue(max float64) Rule {
	return predicate(CodeMaxValue, map[string]any{"max": max}, func(v any) bool {
		n, ok := v.(float64)
		return !ok || n <= max
	})
}

// Integer fails for numbers with a fractional part.
func Integer() Rule {
	return predicate(CodeInteger, nil, func(v any) bool {
		n, ok := v.(float64)
		return !ok || n == math.Trunc(n)
	})
}

func length(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case []any:
		return len(t), true
	}
	return 0, false
}

// MinLength fails for strings or arrays shorter than min. The empty
// string passes; combine with Required to reject it.
func MinLength(min int) Rule {
	return predicate(CodeMinLength, map[string]any{"min": min}, func(v any) bool {
		if v == "" {
			return true
		}
		n, ok := length(v)
		return !ok || n >= min
	})
}

// MaxLength fails for strings or arrays longer than max.
func MaxLength(max int) Rule {
	return predicate(CodeMaxLength, map[string]any{"max": max}, func(v any) bool {
		n, ok := length(v)
		return !ok || n <= max
	})
}

// Pattern fails for non-empty strings that do not match re.
func Pattern(re *regexp.Regexp) Rule {
	return predicate(CodePattern, map[string]any{"pattern": re.String()}, func(v any) bool {
		s, ok := v.(string)
		return !ok || s == "" || re.MatchString(s)
	})
}

// OneOf fails for values not among the allowed ones. Numbers compare by
// value whatever their type, so OneOf(1, 2) matches a decoded number field.
func OneOf(values ...any) Rule {
	allowed := make([]any, len(values))
	for i, v := range values {
		allowed[i] = asNumber(v)
	}
	return predicate(CodeOneOf, map[string]any{"values": values}, func(v any) bool {
		v = asNumber(v)
		return slices.ContainsFunc(allowed, func(a any) bool {
			return atom.Same(a, v)
		})
	})
}

// asNumber converts numeric values to float64 and returns others as is.
func asNumber(v any) any {
	if _, ok := v.(string); ok {
		return v
	}
	if n, err := decodeNumber(v); err == nil {
		return n
	}
	return v
}

// MinDate fails for dates before min.
func MinDate(min time.Time) Rule {
	return predicate(CodeMinDate, map[string]any{"min": min}, func(v any) bool {
		d, ok := v.(time.Time)
		return !ok || !d.Before(min)
	})
}

// MaxDate fails for dates after max.
func MaxDate(max time.Time) Rule {
	return predicate(CodeMaxDate, map[string]any{"max": max}, func(v any) bool {
		d, ok := v.(time.Time)
		return !ok || !d.After(max)
	})
}

// Tag validates the value against a go-playground/validator tag such as
// "email", "uuid4" or "hexcolor". Blank values pass.
func Tag(code, tag string) Rule {
	return Rule{
		Name: code,
		Check: func(_ context.Context, in Input) (*FieldError, error) {
			if in.Value == nil || in.Value == "" {
				return nil, nil
			}
			if err := validate.Var(in.Value, tag); err != nil {
				if _, ok := err.(validator.ValidationErrors); ok {
					return NewFieldError(code, map[string]any{"tag": tag}), nil
				}
				return nil, err
			}
			return nil, nil
		},
	}
}

// Email fails for strings that are not e-mail addresses.
func Email() Rule {
	return Tag(CodeEmail, "email")
}

// URL fails for strings that are not absolute URLs.
func URL() Rule {
	return Tag(CodeURL, "url")
}
