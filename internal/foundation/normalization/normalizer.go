// Package normalization canonicalizes user-supplied enum strings.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EnumNormalizer maps case-insensitive raw strings onto canonical enum values.
type EnumNormalizer[T ~string] struct {
	name   string
	values map[string]T
}

// NewEnumNormalizer builds a normalizer accepting the given canonical values.
func NewEnumNormalizer[T ~string](name string, values ...T) *EnumNormalizer[T] {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[clean(string(v))] = v
	}
	return &EnumNormalizer[T]{name: name, values: m}
}

// Normalize returns the canonical value or an error naming the valid values.
func (e *EnumNormalizer[T]) Normalize(raw string) (T, error) {
	if v, ok := e.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (valid: %s)", e.name, raw, strings.Join(e.ValidValues(), ", "))
}

// NormalizeWithWarning normalizes raw and reports when the spelling changed.
func (e *EnumNormalizer[T]) NormalizeWithWarning(field, raw string) (T, string, error) {
	v, err := e.Normalize(raw)
	if err != nil {
		return v, "", err
	}
	if string(v) != raw {
		return v, fmt.Sprintf("normalized %s from '%s' to '%s'", field, raw, v), nil
	}
	return v, "", nil
}

// ValidValues returns all canonical values, sorted.
func (e *EnumNormalizer[T]) ValidValues() []string {
	out := make([]string, 0, len(e.values))
	for _, v := range e.values {
		out = append(out, string(v))
	}
	sort.Strings(out)
	return out
}
