package common

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrEmptyKey is returned when a metadata or filter key is blank
	ErrEmptyKey = errors.New("metadata key must not be empty")

	// ErrUnsupportedValue is returned for values that are not string, bool or numeric
	ErrUnsupportedValue = errors.New("metadata value must be a string, bool or number")
)

// Metadata holds the scalar attributes attached to a document
type Metadata map[string]any

// Filter is a conjunction of exact-match predicates over metadata.
// An empty filter matches every document.
type Filter map[string]any

// NormalizeValue converts a scalar into its canonical Go type:
// string, bool, int64 or float64.
func NormalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case string, bool, int64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return uintToInt64(uint64(val))
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		return uintToInt64(val)
	case float32:
		return checkFloat(float64(val))
	case float64:
		return checkFloat(val)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedValue, v)
	}
}

func uintToInt64(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, v)
	}
	return int64(v), nil
}

func checkFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v is not finite", ErrUnsupportedValue, f)
	}
	return f, nil
}

// ValueKey returns a canonical string for a normalized value. Numbers that
// compare equal (3 and 3.0) share a key.
func ValueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case bool:
		return "b:" + strconv.FormatBool(val)
	case int64:
		return "n:" + strconv.FormatInt(val, 10)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return "n:" + strconv.FormatInt(int64(val), 10)
		}
		return "n:" + strconv.FormatFloat(val, 'g', -1, 64)
	default:
		normalized, err := NormalizeValue(v)
		if err != nil {
			return fmt.Sprintf("?:%v", v)
		}
		return ValueKey(normalized)
	}
}

// Normalize returns a copy of m with every value in canonical form
func (m Metadata) Normalize() (Metadata, error) {
	out := make(Metadata, len(m))
	for k, v := range m {
		if strings.TrimSpace(k) == "" {
			return nil, ErrEmptyKey
		}
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// Clone returns a shallow copy; values are scalars so this is a full copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether both maps hold the same keys with equal values
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || ValueKey(v) != ValueKey(ov) {
			return false
		}
	}
	return true
}

// Keys returns the metadata keys in sorted order
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the metadata as "k=v, k=v" with sorted keys
func (m Metadata) String() string {
	parts := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

// Normalize returns a copy of f with every value in canonical form
func (f Filter) Normalize() (Filter, error) {
	md, err := Metadata(f).Normalize()
	if err != nil {
		return nil, err
	}
	return Filter(md), nil
}

// Matches reports whether m satisfies every predicate in f
func (f Filter) Matches(m Metadata) bool {
	for k, want := range f {
		got, ok := m[k]
		if !ok || ValueKey(got) != ValueKey(want) {
			return false
		}
	}
	return true
}

// Keys returns the filter keys in sorted order
func (f Filter) Keys() []string {
	return Metadata(f).Keys()
}
