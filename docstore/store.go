// Package docstore persists document chunks and their embeddings in a
// sqlite-vec backed table and serves similarity searches over them.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/sqlite-vec/vector"
	_ "modernc.org/sqlite"

	"github.com/docsight/docsight/embeddings"
	"github.com/docsight/docsight/schema"
)

const defaultDataset = "documents"

// ErrClosed is returned by operations on a store whose database is closed,
// either via Close or after a failed Restore could not reopen it.
var ErrClosed = errors.New("docstore: store is closed")

// Logf logs a formatted message; a nil Logf discards output.
type Logf func(format string, args ...any)

func nopLogf(string, ...any) {}

// Store is a sqlite-vec backed chunk store. Reads and writes may run
// concurrently; Backup and Restore take the write lock because they close
// and reopen the database underneath.
type Store struct {
	mu           sync.RWMutex
	db           *sql.DB
	dsn          string
	vtable       string
	shadow       string
	dataset      string
	embedder     embeddings.Embedder
	embedBatch   int
	embedModel   string
	vecAvailable bool
	logf         Logf
}

// Option configures the Store.
type Option func(*Store)

// WithDSN sets the SQLite database path.
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithEmbedder sets the embedder used for documents and queries.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithVTable sets the vec virtual table name (default: doc_chunks).
func WithVTable(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.vtable = name
		}
	}
}

// WithDataset sets the dataset rows are scoped to (default: documents).
func WithDataset(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.dataset = name
		}
	}
}

// WithEmbedBatchSize sets the embedding batch size for Upsert.
func WithEmbedBatchSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.embedBatch = size
		}
	}
}

// WithEmbeddingModel sets the embedding_model stored with rows.
func WithEmbeddingModel(model string) Option {
	return func(s *Store) { s.embedModel = model }
}

// WithLogf sets the logger.
func WithLogf(logf Logf) Option {
	return func(s *Store) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// New opens and initializes a Store.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		vtable:     "doc_chunks",
		dataset:    defaultDataset,
		embedBatch: 64,
		logf:       nopLogf,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shadow = "_vec_" + s.vtable
	if s.dsn == "" {
		return nil, fmt.Errorf("docstore: dsn required")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("docstore: embedder required")
	}
	if err := s.open(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open(ctx context.Context) error {
	db, err := engine.Open(s.dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if err := vec.Register(db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	s.vecAvailable = true
	return s.ensureSchema(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id       TEXT NOT NULL,
			id               TEXT NOT NULL,
			asset_id         TEXT NOT NULL,
			content          TEXT,
			meta             TEXT,
			embedding        BLOB,
			embedding_model  TEXT,
			scn              INTEGER NOT NULL DEFAULT 0,
			archived         INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (dataset_id, id)
		);`, s.shadow),
		`CREATE TABLE IF NOT EXISTS vector_storage (
			shadow_table_name TEXT NOT NULL,
			dataset_id        TEXT NOT NULL DEFAULT '',
			"index"           BLOB,
			PRIMARY KEY (shadow_table_name, dataset_id)
		);`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(doc_id);`, s.vtable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_asset ON %s(dataset_id, asset_id);`, s.vtable, s.shadow),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_archived ON %s(dataset_id, archived);`, s.vtable, s.shadow),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "no such module: vec") && strings.Contains(stmt, "VIRTUAL TABLE") {
				s.vecAvailable = false
				s.logf("docstore: vec module unavailable, using linear scan search")
				continue
			}
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Store) closeLocked() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Count returns the number of active chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE dataset_id = ? AND archived = 0`, s.shadow),
		s.dataset).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("docstore: count: %w", err)
	}
	return count, nil
}

// Upsert embeds the documents and writes them to the shadow table. Rows are
// keyed by a content hash so re-adding the same chunk overwrites in place.
func (s *Store) Upsert(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	vecs, err := s.embedAll(ctx, docs)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	stmt, err := s.db.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(dataset_id, id, asset_id, content, meta, embedding, embedding_model, scn, archived)
VALUES(?,?,?,?,?,?,?,0,0)
ON CONFLICT(dataset_id, id) DO UPDATE SET
	asset_id=excluded.asset_id,
	content=excluded.content,
	meta=excluded.meta,
	embedding=excluded.embedding,
	embedding_model=excluded.embedding_model,
	archived=0`, s.shadow))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, doc := range docs {
		id := chunkID(doc)
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("docstore: encode meta: %w", err)
		}
		blob, err := vector.EncodeEmbedding(vecs[i])
		if err != nil {
			return fmt.Errorf("docstore: encode embedding: %w", err)
		}
		filename := doc.Filename()
		if filename == "" {
			filename = id
		}
		if _, err := stmt.ExecContext(ctx, s.dataset, id, filename, doc.PageContent, string(metaJSON), blob, s.embedModel); err != nil {
			return fmt.Errorf("docstore: upsert chunk %s: %w", id, err)
		}
	}
	return nil
}

func (s *Store) embedAll(ctx context.Context, docs []schema.Document) ([][]float32, error) {
	out := make([][]float32, 0, len(docs))
	for i := 0; i < len(docs); i += s.embedBatch {
		end := i + s.embedBatch
		if end > len(docs) {
			end = len(docs)
		}
		texts := make([]string, end-i)
		for j := range texts {
			texts[j] = docs[i+j].PageContent
		}
		vecs, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("docstore: embed batch: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("docstore: embedder returned %d vectors for %d chunks", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// DeleteByFilename soft-deletes every chunk belonging to the file. It
// reports whether any chunk was removed.
func (s *Store) DeleteByFilename(ctx context.Context, filename string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return false, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET archived = 1 WHERE dataset_id = ? AND asset_id = ? AND archived = 0`, s.shadow),
		s.dataset, filename)
	if err != nil {
		return false, fmt.Errorf("docstore: delete %s: %w", filename, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every chunk in the dataset.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE dataset_id = ?`, s.shadow), s.dataset); err != nil {
		return fmt.Errorf("docstore: clear: %w", err)
	}
	return nil
}

// Search embeds the query and returns up to k active chunks ranked by
// similarity. When the vec module is unavailable it scans embeddings with a
// Go-side cosine ranking instead.
func (s *Store) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	if k <= 0 {
		k = 10
	}
	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("docstore: embed query: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if s.vecAvailable {
		docs, err := s.matchSearch(ctx, qvec, k)
		if err == nil {
			return docs, nil
		}
		s.logf("docstore: match search failed, falling back to linear scan: %v", err)
	}
	return s.scanSearch(ctx, qvec, k)
}

func (s *Store) matchSearch(ctx context.Context, qvec []float32, k int) ([]schema.Document, error) {
	blob, err := vector.EncodeEmbedding(qvec)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT d.content, d.meta, v.match_score
FROM %s v
JOIN %s d ON d.dataset_id = v.dataset_id AND d.id = v.doc_id
WHERE v.dataset_id = ?
  AND v.doc_id MATCH ?
  AND d.archived = 0
ORDER BY v.match_score DESC
LIMIT ?`, s.vtable, s.shadow)
	rows, err := s.db.QueryContext(ctx, query, s.dataset, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows, true)
}

func (s *Store) scanSearch(ctx context.Context, qvec []float32, k int) ([]schema.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT content, meta, embedding FROM %s WHERE dataset_id = ? AND archived = 0`, s.shadow),
		s.dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		var content, metaJSON string
		var emb []byte
		if err := rows.Scan(&content, &metaJSON, &emb); err != nil {
			return nil, err
		}
		dvec, err := vector.DecodeEmbedding(emb)
		if err != nil {
			continue
		}
		metaMap, err := decodeMeta(metaJSON)
		if err != nil {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: content,
			Metadata:    metaMap,
			Score:       cosine(qvec, dvec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

// Peek returns up to n active chunks in storage order, for diagnostics.
func (s *Store) Peek(ctx context.Context, n int) ([]schema.Document, error) {
	if n <= 0 {
		n = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT content, meta FROM %s WHERE dataset_id = ? AND archived = 0 LIMIT ?`, s.shadow),
		s.dataset, n)
	if err != nil {
		return nil, fmt.Errorf("docstore: peek: %w", err)
	}
	defer rows.Close()
	return scanDocumentRows(rows, false)
}

func scanDocumentRows(rows *sql.Rows, withScore bool) ([]schema.Document, error) {
	var docs []schema.Document
	for rows.Next() {
		var content, metaJSON string
		var score float64
		var err error
		if withScore {
			err = rows.Scan(&content, &metaJSON, &score)
		} else {
			err = rows.Scan(&content, &metaJSON)
		}
		if err != nil {
			return nil, err
		}
		metaMap, err := decodeMeta(metaJSON)
		if err != nil {
			return nil, err
		}
		docs = append(docs, schema.Document{PageContent: content, Metadata: metaMap, Score: float32(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func decodeMeta(metaJSON string) (map[string]interface{}, error) {
	metaMap := map[string]interface{}{}
	if metaJSON == "" {
		return metaMap, nil
	}
	if err := json.Unmarshal([]byte(metaJSON), &metaMap); err != nil {
		return nil, err
	}
	return metaMap, nil
}

func cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float32
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}
