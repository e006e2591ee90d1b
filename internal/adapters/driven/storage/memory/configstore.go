package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/palimpsest/internal/adapters/driven/config"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory. Values are normalised as the
// TOML store would write and re-read them.
type ConfigStore struct {
	mu     sync.RWMutex
	values config.Values
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: config.Values{}}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.String(key)
}

func (s *ConfigStore) GetInt(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Int(key)
}

func (s *ConfigStore) GetFloat(key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Float(key)
}

func (s *ConfigStore) GetDuration(key string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Duration(key)
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.StringSlice(key)
}

func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(map[string]any{key: value})
}

func (s *ConfigStore) Update(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := s.values.Merge(values)
	if err != nil {
		return err
	}
	s.values = merged
	return nil
}

// Path reports ":memory:".
func (s *ConfigStore) Path() string {
	return ":memory:"
}
