// Package filesystem watches an inbox directory and submits every scan
// dropped into it.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is submitted.
const DefaultSettle = 500 * time.Millisecond

// Submission reports one file handed to the ingestion service.
type Submission struct {
	Path       string
	DocumentID string
	Err        error
}

// submitter is the part of the ingestion service the watcher needs.
type submitter interface {
	Submit(ctx context.Context, upload driving.Upload) (string, error)
}

// fileState identifies a version of a file.
type fileState struct {
	size    int64
	modTime time.Time
}

// Watcher submits image and PDF files that appear in a directory.
type Watcher struct {
	dir      string
	ingest   submitter
	settle   time.Duration
	existing bool

	mu      sync.Mutex
	seen    map[string]fileState
	pending map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets how long a file must be quiet before it is submitted.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithExisting submits the files already in the directory when Watch starts.
func WithExisting(v bool) Option {
	return func(w *Watcher) { w.existing = v }
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, ingest submitter, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     ResolvePath(dir),
		ingest:  ingest,
		settle:  DefaultSettle,
		seen:    make(map[string]fileState),
		pending: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Validate checks that the directory exists and is readable.
func (w *Watcher) Validate() error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}
	return nil
}

// Watch blocks until ctx ends, calling report for each submitted file.
// report is called from the watcher's goroutines and must be safe for
// concurrent use.
func (w *Watcher) Watch(ctx context.Context, report func(Submission)) error {
	if err := w.Validate(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	if w.existing {
		for _, path := range w.scan() {
			w.schedule(ctx, path, report)
		}
	}

	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleFsEvent(event); ok {
				w.schedule(ctx, path, report)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// scan lists the candidate files already in the directory, sorted.
func (w *Watcher) scan() []string {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("Reading %s: %v", w.dir, err)
		return nil
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.IsDir() && accepts(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// handleFsEvent returns the path to submit for an event, if any.
// Only creates and writes of visible image or PDF files count.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil || isHidden(rel) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	if !accepts(event.Name) {
		logger.Debug("Ignoring %s: not an image or PDF", event.Name)
		return "", false
	}
	return event.Name, true
}

func accepts(path string) bool {
	return !isHidden(filepath.Base(path)) && domain.IsAcceptedMIME(DetectMIMEType(path))
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, report func(Submission)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if sub, ok := w.submit(ctx, path); ok && report != nil {
			report(sub)
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// submit sends path to the ingestion service unless this version of the
// file was already submitted.
func (w *Watcher) submit(ctx context.Context, path string) (Submission, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Submission{}, false
		}
		return Submission{Path: path, Err: err}, true
	}
	state := fileState{size: info.Size(), modTime: info.ModTime()}

	w.mu.Lock()
	if prev, ok := w.seen[path]; ok && prev == state {
		w.mu.Unlock()
		return Submission{}, false
	}
	w.seen[path] = state
	w.mu.Unlock()

	sub := Submission{Path: path}
	if info.Size() > domain.MaxUploadBytes {
		sub.Err = fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrInvalidInput, path, info.Size(), domain.MaxUploadBytes)
		return sub, true
	}

	content, err := os.ReadFile(path)
	if err != nil {
		sub.Err = fmt.Errorf("reading %s: %w", path, err)
		return sub, true
	}

	sub.DocumentID, sub.Err = w.ingest.Submit(ctx, driving.Upload{
		Filename: filepath.Base(path),
		MIMEType: DetectMIMEType(path),
		Content:  content,
	})
	if sub.Err == nil {
		logger.Debug("Submitted %s as %s", path, sub.DocumentID)
	}
	return sub, true
}
