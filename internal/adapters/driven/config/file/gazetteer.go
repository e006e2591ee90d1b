package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure Gazetteer implements the interface.
var _ driven.Gazetteer = (*Gazetteer)(nil)

// GazetteerFile is the default file name inside the config directory.
const GazetteerFile = "gazetteer.yaml"

// Gazetteer is a read-only list of proper nouns loaded from YAML:
//
//	names:
//	  - name: Thanjavur
//	    translations:
//	      ta: தஞ்சாவூர்
//	      hi: तंजावुर
type Gazetteer struct {
	path    string
	entries []domain.GazetteerEntry
}

type gazetteerDoc struct {
	Names []gazetteerName `yaml:"names"`
}

type gazetteerName struct {
	Name         string            `yaml:"name"`
	Translations map[string]string `yaml:"translations"`
}

// LoadGazetteer reads path, or gazetteer.yaml in DefaultDir when path is
// empty. A missing file yields an empty gazetteer.
func LoadGazetteer(path string) (*Gazetteer, error) {
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, GazetteerFile)
	}

	g := &Gazetteer{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}

	entries, err := parseGazetteer(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.entries = entries
	return g, nil
}

// parseGazetteer decodes and validates the YAML. Language keys may be any
// form domain.ParseLanguage accepts.
func parseGazetteer(data []byte) ([]domain.GazetteerEntry, error) {
	var doc gazetteerDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	seen := make(map[string]bool, len(doc.Names))
	entries := make([]domain.GazetteerEntry, 0, len(doc.Names))
	for i, n := range doc.Names {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", domain.ErrInvalidInput, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q listed twice", domain.ErrInvalidInput, name)
		}
		seen[name] = true

		entry := domain.GazetteerEntry{Name: name, Translations: make(map[domain.Language]string, len(n.Translations))}
		for key, rendering := range n.Translations {
			lang, ok := domain.ParseLanguage(key)
			if !ok {
				return nil, fmt.Errorf("%w: %q has unsupported language %q", domain.ErrInvalidInput, name, key)
			}
			if r := strings.TrimSpace(rendering); r != "" {
				entry.Translations[lang] = r
			}
		}
		entries = append(entries, entry)
	}

	// Longest first so "Thanjavur District" wins over "Thanjavur".
	sort.SliceStable(entries, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(entries[i].Name), utf8.RuneCountInString(entries[j].Name)
		if li != lj {
			return li > lj
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Entries returns all known names, longest first.
func (g *Gazetteer) Entries() []domain.GazetteerEntry {
	return g.entries
}

// Path returns the file the gazetteer was loaded from.
func (g *Gazetteer) Path() string {
	return g.path
}
