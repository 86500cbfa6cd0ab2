package formts

import "github.com/VirtusLab-Open-Source/formts-sub001/atom"

// mirror builds the touched shape of v with every leaf set to flag.
// An empty array has no leaves, so it is represented by flag itself.
func mirror(v any, flag bool) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = mirror(c, flag)
		}
		return out
	case []any:
		if len(t) == 0 {
			return flag
		}
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = mirror(c, flag)
		}
		return out
	default:
		return flag
	}
}

// ResolveTouched reduces a touched subtree to a single flag. A leaf is
// touched when it is true; a container is touched when any child is.
func ResolveTouched(subtree any) bool {
	switch t := subtree.(type) {
	case bool:
		return t
	case map[string]any:
		for _, c := range t {
			if ResolveTouched(c) {
				return true
			}
		}
	case []any:
		for _, c := range t {
			if ResolveTouched(c) {
				return true
			}
		}
	}
	return false
}

// conform reshapes touched to follow value: keys and elements missing
// from value are dropped, new ones start untouched, and collapsed
// containers keep their resolved flag. Unchanged subtrees are returned
// as-is so identity holds when nothing moved.
func conform(touched, value any) any {
	switch v := value.(type) {
	case map[string]any:
		t, ok := touched.(map[string]any)
		if !ok {
			return mirror(v, ResolveTouched(touched))
		}
		changed := len(t) != len(v)
		out := make(map[string]any, len(v))
		for k, c := range v {
			prev, had := t[k]
			next := conform(prev, c)
			if !had || !atom.Same(prev, next) {
				changed = true
			}
			out[k] = next
		}
		if !changed {
			return touched
		}
		return out

	case []any:
		if len(v) == 0 {
			if b, ok := touched.(bool); ok {
				return b
			}
			return ResolveTouched(touched)
		}
		t, ok := touched.([]any)
		if !ok {
			return mirror(v, ResolveTouched(touched))
		}
		changed := len(t) != len(v)
		out := make([]any, len(v))
		for i, c := range v {
			var prev any
			if i < len(t) {
				prev = t[i]
			}
			next := conform(prev, c)
			if i >= len(t) || !atom.Same(prev, next) {
				changed = true
			}
			out[i] = next
		}
		if !changed {
			return touched
		}
		return out

	default:
		if b, ok := touched.(bool); ok {
			return b
		}
		return ResolveTouched(touched)
	}
}
