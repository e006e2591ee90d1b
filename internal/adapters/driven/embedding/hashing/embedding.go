// Package hashing provides an offline embedding service based on feature
// hashing. It needs no model download and no network, and its vectors are
// a pure function of the text.
package hashing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.RelevanceScorer  = (*EmbeddingService)(nil)
)

// Default configuration values.
const (
	// ModelName is bumped whenever tokenisation or weighting changes, so
	// stored chunks are re-embedded rather than compared across versions.
	ModelName         = "hashing-v1"
	DefaultDimensions = 1024

	// stemLength is the shared prefix, in runes, at which two words count
	// as the same term for relevance ("ownership" and "owner").
	stemLength = 5
)

// stopwords carry no retrieval signal in administrative English.
var stopwords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "does": true, "for": true, "from": true,
	"has": true, "have": true, "in": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "that": true, "the": true, "this": true,
	"to": true, "was": true, "were": true, "what": true, "which": true,
	"who": true, "with": true,
}

// Config holds configuration for the hashing embedder.
type Config struct {
	// Dimensions is the vector size (default: 1024).
	Dimensions int
}

// EmbeddingService embeds text by hashing its tokens into a fixed number
// of buckets.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Dimensions < 16 {
		return nil, fmt.Errorf("hashing: dimensions must be at least 16, got %d", cfg.Dimensions)
	}
	return &EmbeddingService{dimensions: cfg.Dimensions}, nil
}

// Embed generates the vector for text. Text without tokens embeds to the
// zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[uint64]int)
	for _, tok := range Tokenize(text) {
		counts[xxhash.Sum64String(tok)%uint64(s.dimensions)]++
	}

	vec := make([]float32, s.dimensions)
	var sum float64
	for bucket, tf := range counts {
		w := 1 + math.Log(float64(tf))
		vec[bucket] = float32(w)
		sum += w * w
	}
	if sum == 0 {
		return vec, nil
	}
	n := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / n)
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("hashing: text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelID returns the versioned model identifier, e.g. "hashing-v1/1024".
func (s *EmbeddingService) ModelID() string {
	return fmt.Sprintf("%s/%d", ModelName, s.dimensions)
}

// Relevance is query-term coverage: the share of the question's distinct
// terms that occur in text. Two words match when equal or when both share
// their first five runes. A long chunk dilutes the cosine of a hashed
// vector far below any useful threshold even when it answers the question,
// so hashing-v1 relevance is always this coverage.
func (s *EmbeddingService) Relevance(question, text string) float64 {
	terms := distinct(Tokenize(question))
	if len(terms) == 0 {
		return 0
	}
	present := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		present[tok] = true
		if st, ok := stem(tok); ok {
			present[st] = true
		}
	}
	var hits int
	for _, t := range terms {
		st, ok := stem(t)
		if present[t] || (ok && present[st]) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// stem keys the first stemLength runes of a long word apart from whole
// words. Short words have no stem and only match exactly.
func stem(tok string) (string, bool) {
	r := []rune(tok)
	if len(r) < stemLength {
		return "", false
	}
	return "\x00" + string(r[:stemLength]), true
}

func distinct(toks []string) []string {
	seen := make(map[string]bool, len(toks))
	out := toks[:0]
	for _, t := range toks {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *EmbeddingService) Close() error {
	return nil
}

// Tokenize lowercases NFC text and returns its word tokens, stopwords
// removed. A token is a run of letters, combining marks and digits, so
// Tamil and Devanagari words stay whole.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}
