package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// Verify interface compliance.
var _ driving.QueryService = (*QueryEngine)(nil)

// QueryEngine answers questions from the indexed chunks and cites the
// documents it drew on.
type QueryEngine struct {
	documents    driven.DocumentStore
	vectors      driven.VectorIndex
	embedder     driven.EmbeddingService
	generator    driven.AnswerGenerator
	fallback     driven.AnswerGenerator
	minRelevance float64
}

// NewQueryEngine creates a query engine. A nil generator answers
// extractively. Negative minRelevance selects the default.
func NewQueryEngine(
	documents driven.DocumentStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	generator driven.AnswerGenerator,
	minRelevance float64,
) *QueryEngine {
	fallback := NewExtractiveGenerator()
	if generator == nil {
		generator = fallback
	}
	if minRelevance < 0 {
		minRelevance = domain.DefaultMinRelevance
	}
	return &QueryEngine{
		documents:    documents,
		vectors:      vectors,
		embedder:     embedder,
		generator:    generator,
		fallback:     fallback,
		minRelevance: minRelevance,
	}
}

// Query retrieves the top k chunks for question and composes an answer.
// k larger than the number of chunks is clamped.
func (q *QueryEngine) Query(ctx context.Context, question string, k int) (*domain.QueryResult, error) {
	logger.Section("Query")
	start := time.Now()

	question = norm.NFC.String(strings.TrimSpace(question))
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if q.vectors.Count() == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if q.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := q.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrEmbeddingUnavailable, err)
	}
	hits, err := q.vectors.Search(ctx, vec)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Vector search: %d hit(s)", len(hits))

	retrieved, err := q.hydrate(ctx, hits, k)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	sortRetrieved(retrieved)
	if len(retrieved) > k {
		retrieved = retrieved[:k]
	}
	q.scoreRelevance(question, retrieved)

	result := &domain.QueryResult{
		Question:  question,
		Retrieved: retrieved,
		Citations: []domain.Citation{},
		K:         len(retrieved),
	}

	var relevant []domain.RetrievedChunk
	for _, rc := range retrieved {
		if rc.Relevance >= q.minRelevance {
			relevant = append(relevant, rc)
		}
	}
	if len(relevant) == 0 {
		result.Answer = UncertainAnswer
		result.Uncertain = true
		logger.Debug("Best relevance %.3f below %.2f", bestRelevance(retrieved), q.minRelevance)
		return result, nil
	}

	result.Citations = citations(relevant)
	result.Answer = q.answer(ctx, question, relevant)
	logger.Debug("Answered with %d citation(s) in %s", len(result.Citations), time.Since(start))
	return result, nil
}

// hydrate loads chunks for the hits in similarity order. It stops once k
// chunks are loaded and the next hit scores lower than the last one, so
// every chunk tied with the k-th is available to the tie-break. Hits whose
// chunk or document has gone are skipped.
func (q *QueryEngine) hydrate(ctx context.Context, hits []driven.VectorHit, k int) ([]domain.RetrievedChunk, error) {
	ingested := make(map[string]time.Time)
	missing := make(map[string]bool)
	var out []domain.RetrievedChunk

	for _, h := range hits {
		if len(out) >= k && h.Similarity < out[len(out)-1].Score {
			break
		}
		if missing[h.DocumentID] {
			continue
		}
		if _, ok := ingested[h.DocumentID]; !ok {
			doc, err := q.documents.GetDocument(ctx, h.DocumentID)
			if isNotFound(err) {
				missing[h.DocumentID] = true
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load document %s: %w", h.DocumentID, err)
			}
			ingested[h.DocumentID] = doc.IngestedAt
		}

		chunk, err := q.documents.GetChunk(ctx, h.ChunkID)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load chunk %s: %w", h.ChunkID, err)
		}
		out = append(out, domain.RetrievedChunk{
			Chunk:              *chunk,
			Score:              h.Similarity,
			DocumentIngestedAt: ingested[h.DocumentID],
		})
	}
	return out, nil
}

// scoreRelevance fills in Relevance, from the embedder when it scores
// relevance itself and from the cosine otherwise.
func (q *QueryEngine) scoreRelevance(question string, retrieved []domain.RetrievedChunk) {
	scorer, ok := q.embedder.(driven.RelevanceScorer)
	for i := range retrieved {
		if ok {
			retrieved[i].Relevance = scorer.Relevance(question, retrieved[i].Chunk.Content)
		} else {
			retrieved[i].Relevance = retrieved[i].Score
		}
	}
}

func bestRelevance(retrieved []domain.RetrievedChunk) float64 {
	var best float64
	for _, rc := range retrieved {
		best = max(best, rc.Relevance)
	}
	return best
}

// answer runs the configured generator, falling back to extraction.
func (q *QueryEngine) answer(ctx context.Context, question string, relevant []domain.RetrievedChunk) string {
	answer, err := q.generator.Answer(ctx, question, relevant)
	if err == nil {
		return answer
	}
	logger.Warn("%s answer failed, using extractive answer: %v", q.generator.Name(), err)
	answer, err = q.fallback.Answer(ctx, question, relevant)
	if err != nil {
		return UncertainAnswer
	}
	return answer
}

// sortRetrieved orders by score, then newer document, then document ID,
// then chunk position.
func sortRetrieved(r []domain.RetrievedChunk) {
	sort.SliceStable(r, func(i, j int) bool {
		a, b := r[i], r[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.DocumentIngestedAt.Equal(b.DocumentIngestedAt) {
			return a.DocumentIngestedAt.After(b.DocumentIngestedAt)
		}
		if a.Chunk.DocumentID != b.Chunk.DocumentID {
			return a.Chunk.DocumentID < b.Chunk.DocumentID
		}
		return a.Chunk.Position < b.Chunk.Position
	})
}

// citations lists each document once, in order of its best chunk, with
// the best relevance among its chunks.
func citations(relevant []domain.RetrievedChunk) []domain.Citation {
	index := make(map[string]int)
	out := make([]domain.Citation, 0, len(relevant))
	for _, rc := range relevant {
		if i, ok := index[rc.Chunk.DocumentID]; ok {
			out[i].Score = max(out[i].Score, rc.Relevance)
			continue
		}
		index[rc.Chunk.DocumentID] = len(out)
		out = append(out, domain.Citation{DocumentID: rc.Chunk.DocumentID, Score: rc.Relevance})
	}
	return out
}
