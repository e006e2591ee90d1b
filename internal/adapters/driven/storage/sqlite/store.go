package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/palimpsest/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// DatabaseFile is the file name inside the data directory.
const DatabaseFile = "palimpsest.db"

// Store owns the database connection and hands out port implementations.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.palimpsest/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".palimpsest", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL so readers never wait on the pipeline's writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const documentColumns = `id, media_ref, filename, mime_type, page_count, language,
	language_confidence, low_confidence, confidence, regions, status,
	failure_stage, failure_message, processing_duration_ns, ingested_at,
	created_at, updated_at`

const chunkColumns = `id, document_id, position, content, start_offset, end_offset,
	embedding, embedding_model`

// NextDocumentSequence reserves the next sequence number for a year.
func (s *documentStore) NextDocumentSequence(ctx context.Context, year int) (int, error) {
	var seq int
	err := s.store.db.QueryRowContext(ctx, `
		INSERT INTO document_sequences (year, seq) VALUES (?, 1)
		ON CONFLICT(year) DO UPDATE SET seq = seq + 1
		RETURNING seq
	`, year).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("allocating document sequence: %w", err)
	}
	return seq, nil
}

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	return saveDocument(ctx, s.store.db, doc)
}

// CommitIndexed saves the document and replaces its chunks in one transaction.
func (s *documentStore) CommitIndexed(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("%w: chunk %s belongs to %s", domain.ErrInvalidInput, c.ID, c.DocumentID)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := saveDocument(ctx, tx, doc); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (`+chunkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Position, c.Content,
			c.StartOffset, c.EndOffset, float32SliceToBytes(c.Embedding), c.EmbeddingModel); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func saveDocument(ctx context.Context, db execer, doc *domain.Document) error {
	regions := doc.Regions
	if regions == nil {
		regions = []domain.TextRegion{}
	}
	regionsJSON, err := json.Marshal(regions)
	if err != nil {
		return fmt.Errorf("marshalling regions: %w", err)
	}

	var failureStage, failureMessage string
	if doc.Failure != nil {
		failureStage, failureMessage = string(doc.Failure.Stage), doc.Failure.Message
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			media_ref = excluded.media_ref,
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			page_count = excluded.page_count,
			language = excluded.language,
			language_confidence = excluded.language_confidence,
			low_confidence = excluded.low_confidence,
			confidence = excluded.confidence,
			regions = excluded.regions,
			status = excluded.status,
			failure_stage = excluded.failure_stage,
			failure_message = excluded.failure_message,
			processing_duration_ns = excluded.processing_duration_ns,
			ingested_at = excluded.ingested_at,
			updated_at = excluded.updated_at
	`, doc.ID, doc.MediaRef, doc.Filename, doc.MIMEType, doc.PageCount, string(doc.Language),
		doc.LanguageConfidence, doc.LowConfidence, doc.Confidence, string(regionsJSON), string(doc.Status),
		failureStage, failureMessage, int64(doc.ProcessingDuration), formatTime(doc.IngestedAt),
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, err
}

// ListDocuments returns all documents, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// GetChunks retrieves all chunks for a document.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE document_id = ? ORDER BY position`, documentID)
}

// AllChunks returns every stored chunk, grouped by document.
func (s *documentStore) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `SELECT `+chunkColumns+` FROM chunks ORDER BY document_id, position`)
}

func (s *documentStore) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	chunk, err := scanChunk(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("chunk %s: %w", id, domain.ErrNotFound)
	}
	return chunk, err
}

// DeleteDocument removes a document; its chunks go with it by cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime stores times as UTC text; the zero time is "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// scanDocument scans a single document row.
func scanDocument(row scanner) (*domain.Document, error) {
	var (
		doc                              domain.Document
		language, regionsJSON, status    string
		failureStage, failureMessage     string
		durationNS                       int64
		ingestedAt, createdAt, updatedAt string
	)

	if err := row.Scan(&doc.ID, &doc.MediaRef, &doc.Filename, &doc.MIMEType, &doc.PageCount, &language,
		&doc.LanguageConfidence, &doc.LowConfidence, &doc.Confidence, &regionsJSON, &status,
		&failureStage, &failureMessage, &durationNS, &ingestedAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Language = domain.Language(language)
	doc.Status = domain.Status(status)
	doc.ProcessingDuration = time.Duration(durationNS)
	if failureStage != "" || failureMessage != "" {
		doc.Failure = &domain.StageFailure{Stage: domain.Stage(failureStage), Message: failureMessage}
	}

	if err := json.Unmarshal([]byte(regionsJSON), &doc.Regions); err != nil {
		return nil, fmt.Errorf("unmarshalling regions: %w", err)
	}
	if len(doc.Regions) == 0 {
		doc.Regions = nil
	}

	var err error
	if doc.IngestedAt, err = parseTime(ingestedAt); err != nil {
		return nil, fmt.Errorf("parsing ingested_at: %w", err)
	}
	if doc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if doc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &doc, nil
}

// scanChunk scans a single chunk row.
func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position, &chunk.Content,
		&chunk.StartOffset, &chunk.EndOffset, &embeddingBlob, &chunk.EmbeddingModel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}
