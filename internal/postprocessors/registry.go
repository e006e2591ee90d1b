package postprocessors

import (
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// BuilderFunc creates a processor from settings decoded out of the TOML
// config. Numbers may arrive as int, int64 or float64.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Stage names a processor and its settings.
type Stage struct {
	Name   string
	Config map[string]any
}

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder. A second registration under the same name
// replaces the first.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates one processor.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	proc, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("processor %s: %w", name, err)
	}
	return proc, nil
}

// BuildPipeline builds every stage in order.
func (r *Registry) BuildPipeline(stages ...Stage) (*Pipeline, error) {
	p := NewPipeline()
	for _, s := range stages {
		proc, err := r.Build(s.Name, s.Config)
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
