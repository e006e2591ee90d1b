package driven

import "time"

// ConfigStore holds settings under flat dotted keys such as
// "retrieval.min_relevance". Values read back in the shapes TOML decodes
// to, so a store may be swapped without changing what callers see.
// Typed getters return the zero value for missing or mistyped keys.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int

	// GetFloat widens integers.
	GetFloat(key string) float64

	// GetDuration parses a string such as "90s".
	GetDuration(key string) time.Duration

	GetStringSlice(key string) []string

	// Set stores and persists one value.
	Set(key string, value any) error

	// Update stores and persists several values at once. If any value is
	// rejected or the write fails, none are kept.
	Update(values map[string]any) error

	// Path is where the settings are kept.
	Path() string
}
