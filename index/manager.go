// Package index coordinates the document lifecycle: extraction, persistence
// in the chunk store, and the retrieval handle queries run against.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/afs"

	"github.com/docsight/docsight/docstore"
	"github.com/docsight/docsight/extractor"
	"github.com/docsight/docsight/schema"
)

// ErrNotReady reports that the index has not been loaded yet.
var ErrNotReady = errors.New("index: not ready")

// Logf logs a formatted message; a nil Logf discards output.
type Logf func(format string, args ...any)

func nopLogf(string, ...any) {}

// Retriever is a query-ready handle over the current index state. Handles
// are replaced wholesale after every mutation; in-flight searches keep the
// handle they started with.
type Retriever interface {
	Search(ctx context.Context, question string, k int) ([]schema.Document, error)
}

type storeRetriever struct {
	store   *docstore.Store
	builtAt time.Time
}

func (r *storeRetriever) Search(ctx context.Context, question string, k int) ([]schema.Document, error) {
	return r.store.Search(ctx, question, k)
}

// Manager owns the chunk store and serializes every mutation. Retrieval is
// lock-free: readers load the current handle atomically.
type Manager struct {
	store     *docstore.Store
	factory   *extractor.Factory
	uploadDir string
	fs        afs.Service
	logf      Logf

	mu        sync.Mutex // serializes mutations
	rebuildMu sync.Mutex // serializes whole-corpus rebuilds
	retriever atomic.Value
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogf sets the logger.
func WithLogf(logf Logf) Option {
	return func(m *Manager) {
		if logf != nil {
			m.logf = logf
		}
	}
}

// New creates a Manager over the given store and extractor factory.
// uploadDir is the directory rebuilds re-ingest from.
func New(store *docstore.Store, factory *extractor.Factory, uploadDir string, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		factory:   factory,
		uploadDir: uploadDir,
		fs:        afs.New(),
		logf:      nopLogf,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadOrCreate binds the index to whatever the store already holds and
// publishes the first retrieval handle. Until it succeeds every operation
// fails with ErrNotReady.
func (m *Manager) LoadOrCreate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.MkdirAll(m.uploadDir, 0o755); err != nil {
		return fmt.Errorf("index: create upload dir: %w", err)
	}
	count, err := m.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("index: inspect store: %w", err)
	}
	if count > 0 {
		m.logf("index: loaded existing index with %d chunks", count)
	} else {
		m.logf("index: starting with an empty index")
	}
	m.publishRetriever()
	return nil
}

// Retriever returns the current retrieval handle.
func (m *Manager) Retriever() (Retriever, error) {
	r, _ := m.retriever.Load().(Retriever)
	if r == nil {
		return nil, ErrNotReady
	}
	return r, nil
}

// publishRetriever swaps in a freshly built handle. Callers hold m.mu.
func (m *Manager) publishRetriever() {
	m.retriever.Store(Retriever(&storeRetriever{store: m.store, builtAt: time.Now()}))
}

func (m *Manager) ready() bool {
	r, _ := m.retriever.Load().(Retriever)
	return r != nil
}

// AddDocument extracts, embeds and indexes the file at path. It reports
// false when the file yields no usable chunks; the index is unchanged in
// that case. Unsupported extensions fail with extractor.ErrUnsupportedType.
func (m *Manager) AddDocument(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready() {
		return false, ErrNotReady
	}
	return m.addDocumentLocked(ctx, path)
}

func (m *Manager) addDocumentLocked(ctx context.Context, path string) (bool, error) {
	data, err := m.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return false, fmt.Errorf("index: read %s: %w", path, err)
	}
	filename := filepath.Base(path)
	docs, err := m.factory.Extract(data, filename)
	if err != nil {
		return false, err
	}
	if len(docs) == 0 {
		m.logf("index: %s produced no chunks, skipping", filename)
		return false, nil
	}
	if err := m.store.Upsert(ctx, docs); err != nil {
		return false, err
	}
	m.logf("index: added %s with %d chunks", filename, len(docs))
	m.publishRetriever()
	return true, nil
}

// DeleteDocument removes every chunk of the named file. It reports whether
// anything was removed.
func (m *Manager) DeleteDocument(ctx context.Context, filename string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready() {
		return false, ErrNotReady
	}
	deleted, err := m.store.DeleteByFilename(ctx, filename)
	if err != nil {
		return false, err
	}
	if deleted {
		m.logf("index: deleted chunks of %s", filename)
		m.publishRetriever()
	}
	return deleted, nil
}

// RebuildFromUploads clears the index and re-ingests every supported file in
// the upload directory. Rebuilds are serialized against each other but take
// the mutation lock per document, so adds and deletes interleave instead of
// waiting for the whole rebuild. Per-file failures are logged and skipped.
func (m *Manager) RebuildFromUploads(ctx context.Context) error {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	m.mu.Lock()
	if !m.ready() {
		m.mu.Unlock()
		return ErrNotReady
	}
	if err := m.store.Clear(ctx); err != nil {
		m.mu.Unlock()
		return err
	}
	m.publishRetriever()
	m.mu.Unlock()

	files, err := m.listUploads(ctx)
	if err != nil {
		return err
	}
	indexed := 0
	for _, path := range files {
		m.mu.Lock()
		ok, err := m.addDocumentLocked(ctx, path)
		m.mu.Unlock()
		if err != nil {
			m.logf("index: rebuild skipping %s: %v", filepath.Base(path), err)
			continue
		}
		if ok {
			indexed++
		}
	}
	m.logf("index: rebuild complete, %d of %d files indexed", indexed, len(files))
	return nil
}

func (m *Manager) listUploads(ctx context.Context) ([]string, error) {
	objects, err := m.fs.List(ctx, m.uploadDir)
	if err != nil {
		return nil, fmt.Errorf("index: list uploads: %w", err)
	}
	var files []string
	for _, object := range objects {
		if object.IsDir() || !m.factory.Supported(object.Name()) {
			continue
		}
		files = append(files, filepath.Join(m.uploadDir, object.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Stats summarizes the index state for diagnostics.
type Stats struct {
	TotalChunks    int                      `json:"total_chunks"`
	IndexLoaded    bool                     `json:"index_loaded"`
	Ready          bool                     `json:"query_engine_ready"`
	SampleMetadata []map[string]interface{} `json:"sample_metadata,omitempty"`
}

// Stats reports chunk counts and a small metadata sample.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	count, err := m.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalChunks: count,
		IndexLoaded: m.ready(),
		Ready:       m.ready(),
	}
	sample, err := m.store.Peek(ctx, 3)
	if err != nil {
		return nil, err
	}
	for _, doc := range sample {
		stats.SampleMetadata = append(stats.SampleMetadata, doc.Metadata)
	}
	return stats, nil
}

// Backup snapshots the store to target.
func (m *Manager) Backup(ctx context.Context, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready() {
		return ErrNotReady
	}
	return m.store.Backup(ctx, target)
}

// Restore replaces the store with the snapshot at source and publishes a
// handle over the restored data.
func (m *Manager) Restore(ctx context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready() {
		return ErrNotReady
	}
	if err := m.store.Restore(ctx, source); err != nil {
		return err
	}
	m.publishRetriever()
	return nil
}

// Supported reports whether the filename has an indexable extension.
func (m *Manager) Supported(filename string) bool {
	return m.factory.Supported(filename)
}

// Extensions returns the indexable file extensions.
func (m *Manager) Extensions() []string {
	return m.factory.Extensions()
}
