package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/postprocessors/chunker"
	"github.com/custodia-labs/palimpsest/internal/postprocessors/noise"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("noise", buildNoise)
}

// NewIndexingPipeline builds the pipeline the document index runs over
// extracted text: overlapping windows, then OCR noise removal.
func NewIndexingPipeline(settings domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := r.BuildPipeline(
		Stage{Name: "chunker", Config: map[string]any{
			"chunk_size": settings.ChunkSize,
			"overlap":    settings.Overlap,
		}},
		Stage{Name: "noise"},
	)
	if err != nil {
		return nil, fmt.Errorf("build indexing pipeline: %w", err)
	}
	return p, nil
}

// buildChunker reads chunk_size and overlap, both in tokens. An overlap
// that is not smaller than chunk_size is rejected rather than clamped.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	size := getIntFromConfig(cfg, "chunk_size")
	if size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		overlap := getIntFromConfig(cfg, "overlap")
		if size > 0 && overlap >= size {
			return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrInvalidInput, overlap, size)
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...), nil
}

// buildNoise reads min_signal, the fewest letters or digits a chunk keeps.
func buildNoise(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []noise.Option
	if n := getIntFromConfig(cfg, "min_signal"); n > 0 {
		opts = append(opts, noise.WithMinSignal(n))
	}
	return noise.New(opts...), nil
}

func getIntFromConfig(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
