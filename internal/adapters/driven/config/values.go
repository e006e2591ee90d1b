// Package config holds what the config stores share: settings live under
// flat dotted keys ("pipeline.workers") and every value has the shape TOML
// decodes to, whichever store holds it.
package config

import (
	"fmt"
	"maps"
	"time"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// Values maps dotted keys to normalised values. It is not safe for
// concurrent use; stores guard it.
type Values map[string]any

// Normalize returns v in the shape a TOML round trip would give it:
// integers as int64, floats as float64, durations as their string form
// and string slices as []any.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, int64, float64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case time.Duration:
		return x.String(), nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported config value %T", domain.ErrInvalidInput, v)
	}
}

// Merge returns a copy of vs with updates applied. Nothing is returned
// if any update cannot be normalised.
func (vs Values) Merge(updates map[string]any) (Values, error) {
	merged := maps.Clone(vs)
	if merged == nil {
		merged = make(Values, len(updates))
	}
	for key, value := range updates {
		if key == "" {
			return nil, fmt.Errorf("%w: empty config key", domain.ErrInvalidInput)
		}
		n, err := Normalize(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		merged[key] = n
	}
	return merged, nil
}

// String returns the value at key, or "" if it is missing or not a string.
func (vs Values) String(key string) string {
	s, _ := vs[key].(string)
	return s
}

// Int returns the value at key. Whole floats are accepted.
func (vs Values) Int(key string) int {
	switch v := vs[key].(type) {
	case int64:
		return int(v)
	case float64:
		if v == float64(int64(v)) {
			return int(v)
		}
	}
	return 0
}

// Float returns the value at key, widening integers so that
// `min_relevance = 1` reads as 1.0.
func (vs Values) Float(key string) float64 {
	switch v := vs[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Duration parses a value such as "90s". Unparseable values read as 0.
func (vs Values) Duration(key string) time.Duration {
	d, err := time.ParseDuration(vs.String(key))
	if err != nil {
		return 0
	}
	return d
}

// StringSlice returns the string elements of an array value.
func (vs Values) StringSlice(key string) []string {
	items, ok := vs[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
