package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// DocumentIndex turns extracted documents into embedded, searchable chunks.
// A document's chunks become visible all at once or not at all.
type DocumentIndex struct {
	documents driven.DocumentStore
	vectors   driven.VectorIndex
	embedder  driven.EmbeddingService
	pipeline  driven.ChunkPipeline
	locks     *keyLock
	now       func() time.Time
}

// NewDocumentIndex creates a document index. The pipeline produces chunks
// from a document's extracted text.
func NewDocumentIndex(
	documents driven.DocumentStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	pipeline driven.ChunkPipeline,
) *DocumentIndex {
	return &DocumentIndex{
		documents: documents,
		vectors:   vectors,
		embedder:  embedder,
		pipeline:  pipeline,
		locks:     newKeyLock(),
		now:       time.Now,
	}
}

// Ingest chunks, embeds and commits an extracted document, moving it to
// StatusIndexed. It returns the chunk IDs in position order. On success
// doc is updated in place.
func (x *DocumentIndex) Ingest(ctx context.Context, doc *domain.Document) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if doc.Status != domain.StatusExtracted {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrDocumentNotExtracted, doc.ID, doc.Status)
	}

	unlock, ok := x.locks.TryLock(doc.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, doc.ID)
	}
	defer unlock()

	start := time.Now()
	chunks, err := x.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
	}

	if err := x.embed(ctx, chunks); err != nil {
		return nil, err
	}

	indexed := *doc
	if err := indexed.Advance(domain.StatusIndexed, x.now()); err != nil {
		return nil, err
	}
	if err := x.commit(ctx, doc, &indexed, chunks); err != nil {
		return nil, err
	}

	*doc = indexed
	logger.Debug("Indexed %s: %d chunk(s) in %s", doc.ID, len(chunks), time.Since(start))
	return chunkIDs(chunks), nil
}

// Reindex re-chunks and re-embeds an indexed document from its stored
// regions under the current model. The document stays indexed and keeps
// its ingestion time. On success doc is updated in place.
func (x *DocumentIndex) Reindex(ctx context.Context, doc *domain.Document) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if doc.Status != domain.StatusIndexed {
		return nil, fmt.Errorf("%w: %s is %s, not indexed", domain.ErrInvalidInput, doc.ID, doc.Status)
	}

	unlock, ok := x.locks.TryLock(doc.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, doc.ID)
	}
	defer unlock()

	chunks, err := x.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
	}
	if err := x.embed(ctx, chunks); err != nil {
		return nil, err
	}

	updated := *doc
	updated.UpdatedAt = x.now()
	if err := x.commit(ctx, doc, &updated, chunks); err != nil {
		return nil, err
	}

	*doc = updated
	logger.Info("Re-embedded %s with %s: %d chunk(s)", doc.ID, x.embedder.ModelID(), len(chunks))
	return chunkIDs(chunks), nil
}

// Stale reports whether any of the document's chunks was embedded by a
// model other than the current one.
func (x *DocumentIndex) Stale(ctx context.Context, id string) (bool, error) {
	chunks, err := x.documents.GetChunks(ctx, id)
	if err != nil {
		return false, fmt.Errorf("read chunks of %s: %w", id, err)
	}
	model := x.modelID()
	for _, c := range chunks {
		if c.EmbeddingModel != model {
			return true, nil
		}
	}
	return false, nil
}

// commit stores next with its chunks and publishes their vectors. If the
// vectors cannot be written, the store is put back to prev and its old
// chunks so no document claims chunks the vector index does not have.
func (x *DocumentIndex) commit(ctx context.Context, prev, next *domain.Document, chunks []domain.Chunk) error {
	previous, err := x.documents.GetChunks(ctx, prev.ID)
	if err != nil {
		return fmt.Errorf("read existing chunks: %w", err)
	}
	if err := x.documents.CommitIndexed(ctx, next, chunks); err != nil {
		return fmt.Errorf("commit %s: %w", prev.ID, err)
	}

	entries := make([]driven.VectorEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = driven.VectorEntry{ChunkID: c.ID, Embedding: c.Embedding}
	}
	if err := x.vectors.PutDocument(ctx, prev.ID, entries); err != nil {
		if rbErr := x.documents.CommitIndexed(context.WithoutCancel(ctx), prev, previous); rbErr != nil {
			logger.Warn("Rollback of %s failed: %v", prev.ID, rbErr)
		}
		return fmt.Errorf("index vectors for %s: %w", prev.ID, err)
	}
	return nil
}

func chunkIDs(chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}

func (x *DocumentIndex) modelID() string {
	if x.embedder == nil {
		return ""
	}
	return x.embedder.ModelID()
}

// embed fills in embeddings and final chunk IDs, which include the model
// so vectors from different models never share an ID.
func (x *DocumentIndex) embed(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if x.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}

	model := x.embedder.ModelID()
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		chunks[i].EmbeddingModel = model
		chunks[i].ID = modelChunkID(chunks[i].ID, model)
	}
	return nil
}

// Delete removes a document, its chunks and its vectors. Vectors go first
// so queries stop returning the document before its chunks disappear.
func (x *DocumentIndex) Delete(ctx context.Context, id string) error {
	unlock, err := x.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := x.documents.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := x.vectors.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete vectors for %s: %w", id, err)
	}
	if err := x.documents.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	logger.Debug("Deleted %s", id)
	return nil
}

// Load rebuilds the vector index from stored chunks and returns the number
// of vectors loaded. Documents whose chunks were embedded by a different
// model are re-embedded from their stored text when reembed is set, and
// skipped with a warning otherwise or when re-embedding fails.
func (x *DocumentIndex) Load(ctx context.Context, reembed bool) (int, error) {
	chunks, err := x.documents.AllChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}

	model := x.modelID()
	byDoc := make(map[string][]driven.VectorEntry)
	var order []string
	stale := make(map[string]bool)
	for _, c := range chunks {
		if _, seen := byDoc[c.DocumentID]; !seen && !stale[c.DocumentID] {
			order = append(order, c.DocumentID)
		}
		if c.EmbeddingModel != model {
			stale[c.DocumentID] = true
			continue
		}
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], driven.VectorEntry{ChunkID: c.ID, Embedding: c.Embedding})
	}

	loaded := 0
	for _, id := range order {
		if stale[id] && !reembed {
			logger.Warn("%s was embedded with another model; it is not searchable under %s", id, model)
			continue
		}
		if stale[id] {
			n, err := x.reembed(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return loaded, ctx.Err()
				}
				logger.Warn("%s was embedded with another model and could not be re-embedded: %v", id, err)
			}
			loaded += n
			continue
		}
		if err := x.vectors.PutDocument(ctx, id, byDoc[id]); err != nil {
			return loaded, fmt.Errorf("load vectors for %s: %w", id, err)
		}
		loaded += len(byDoc[id])
	}
	logger.Debug("Loaded %d vector(s)", loaded)
	return loaded, nil
}

// reembed reindexes a stale document and returns its new vector count.
func (x *DocumentIndex) reembed(ctx context.Context, id string) (int, error) {
	doc, err := x.documents.GetDocument(ctx, id)
	if err != nil {
		return 0, err
	}
	ids, err := x.Reindex(ctx, doc)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Busy reports whether an ingestion of id is in flight.
func (x *DocumentIndex) Busy(id string) bool {
	return x.locks.Held(id)
}

func modelChunkID(positional, model string) string {
	ns, err := uuid.Parse(positional)
	if err != nil {
		ns = uuid.NewSHA1(uuid.NameSpaceOID, []byte(positional))
	}
	return uuid.NewSHA1(ns, []byte(model)).String()
}

// isNotFound reports whether err means a missing record.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
