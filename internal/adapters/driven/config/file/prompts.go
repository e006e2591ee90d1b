package file

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultFS embed.FS

// PromptStore serves LLM prompts from user-editable files, seeded from the
// built-in defaults on first use. A file is re-read when its modification
// time changes. A file whose format placeholders don't match what callers
// pass is ignored in favour of the default.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	modTime time.Time
	text    string
}

// NewPromptStore creates a store over dir, or ~/.palimpsest/prompts when
// dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Load returns the named prompt. Unknown names are ErrNotFound. I/O
// problems never fail a load; the default is returned instead.
func (s *PromptStore) Load(name string) (string, error) {
	want, known := driven.PromptArgs[name]
	if !known {
		return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
	}
	def, err := defaultPrompt(name)
	if err != nil {
		return "", err
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return def, nil
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return def, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return def, nil
	}
	text := strings.TrimSpace(string(data))
	if got := countVerbs(text); text == "" || got != want {
		logger.Warn("Ignoring %s: expected %d %%s placeholder(s), found %d", path, want, got)
		text = def
	}
	s.cache[name] = cachedPrompt{modTime: info.ModTime(), text: text}
	return text, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// seed writes every default that doesn't already exist on disk. Existing
// files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("Using built-in prompts: %v", s.seedErr)
		return
	}

	entries, err := fs.ReadDir(defaultFS, "defaults")
	if err != nil {
		s.seedErr = err
		return
	}
	for _, e := range entries {
		target := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		data, err := defaultFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			s.seedErr = err
			return
		}
		if err := os.WriteFile(target, data, 0600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", e.Name(), err)
			logger.Warn("Using built-in prompts: %v", s.seedErr)
			return
		}
	}
}

func defaultPrompt(name string) (string, error) {
	data, err := defaultFS.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("%w: no built-in prompt %q", domain.ErrNotFound, name)
	}
	return strings.TrimSpace(string(data)), nil
}

// countVerbs counts %s verbs, skipping escaped %%.
func countVerbs(text string) int {
	n := 0
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '%' {
			continue
		}
		if text[i+1] == 's' {
			n++
		}
		i++
	}
	return n
}
