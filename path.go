package formts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/VirtusLab-Open-Source/formts-sub001/atom"
)

// Segment is one step of a field path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// ParsePath splits a field path such as "address.street" or "coupons[2].code"
// into segments. The empty path is the form root.
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, nil
	}

	var segs []Segment
	i := 0
	expectKey := true
	for i < len(path) {
		switch {
		case path[i] == '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 || expectKey {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			digits := path[i+1 : i+end]
			n, err := parseIndex(digits)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
			}
			segs = append(segs, Segment{Index: n, IsIndex: true})
			i += end + 1
			expectKey = false

		case path[i] == '.':
			if expectKey {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			i++
			expectKey = true
			if i == len(path) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}

		default:
			if !expectKey {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			end := strings.IndexAny(path[i:], ".[]")
			if end < 0 {
				end = len(path) - i
			}
			if end == 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			segs = append(segs, Segment{Key: path[i : i+end]})
			i += end
			expectKey = false
		}
	}
	return segs, nil
}

func parseIndex(digits string) (int, error) {
	if digits == "" {
		return 0, fmt.Errorf("empty index")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("index %q is not a non-negative integer", digits)
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("index %q has a leading zero", digits)
	}
	return strconv.Atoi(digits)
}

// FormatPath joins segments back into a path string.
func FormatPath(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// JoinKey appends an object key to a path.
func JoinKey(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// JoinIndex appends an array index to a path.
func JoinIndex(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

// IsUnder reports whether path equals prefix or lies beneath it.
// Every path lies beneath the root path "".
func IsUnder(path, prefix string) bool {
	if prefix == "" || path == prefix {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	next := path[len(prefix)]
	return next == '.' || next == '['
}

func segmentsLens(segs []Segment) atom.Lens[any, any] {
	b := atom.Focus()
	for _, s := range segs {
		if s.IsIndex {
			b = b.Index(s.Index)
		} else {
			b = b.Prop(s.Key)
		}
	}
	return b.Lens()
}

// PathLens returns the lens focusing on path within a values tree.
func PathLens(path string) (atom.Lens[any, any], error) {
	segs, err := ParsePath(path)
	if err != nil {
		return atom.Lens[any, any]{}, err
	}
	return segmentsLens(segs), nil
}
