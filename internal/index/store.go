// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists embedded chunks in named collections and answers
// similarity queries over them.
package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/learning-engine/internal/embed"
	"github.com/pdiddy/learning-engine/pkg/types"
)

const (
	dbFile         = "index.db"
	embedBatchSize = 64
)

// ErrUnavailable marks failures of the underlying database (open, disk,
// connection). Callers treat it as fatal for the current request.
var ErrUnavailable = errors.New("index unavailable")

// ErrEmbedderMismatch is returned when a collection built with one
// embedder is written or queried with another.
var ErrEmbedderMismatch = errors.New("collection was built with a different embedder")

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Store manages the SQLite vector store.
type Store struct {
	db       *sql.DB
	embedder embed.Embedder
	logger   *zap.Logger

	// locks serialises writers per collection.
	locks sync.Map
}

// Open opens or creates the store at cfg.DataDir/index.db.
func Open(cfg types.IndexConfig, e embed.Embedder, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, unavailable("creating index directory", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, unavailable("opening database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("connecting to database", err)
	}

	s := &Store{db: db, embedder: e, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, unavailable("creating schema", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Embedder returns the embedder used for writes and queries.
func (s *Store) Embedder() embed.Embedder {
	return s.embedder
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			embedder TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
			id TEXT NOT NULL,
			source TEXT NOT NULL,
			doc_key TEXT,
			ordinal INTEGER NOT NULL,
			title TEXT,
			url TEXT,
			text TEXT NOT NULL,
			vector BLOB NOT NULL,
			UNIQUE(collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) lock(collection string) func() {
	m, _ := s.locks.LoadOrStore(collection, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Upsert embeds chunks and writes them to collection, creating it if needed.
// A chunk whose ID already exists in the collection replaces the stored row
// in place, keeping its original insertion position.
func (s *Store) Upsert(ctx context.Context, collection string, chunks []types.Chunk) error {
	if collection == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(chunks) == 0 {
		return nil
	}

	if err := s.checkEmbedder(ctx, collection); err != nil {
		return err
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}
		vs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks: %w", err)
		}
		vectors = append(vectors, vs...)
	}

	unlock := s.lock(collection)
	defer unlock()

	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(collection, id, source, doc_key, ordinal, title, url, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			source=excluded.source, doc_key=excluded.doc_key, ordinal=excluded.ordinal,
			title=excluded.title, url=excluded.url, text=excluded.text, vector=excluded.vector`)
	if err != nil {
		return unavailable("preparing upsert", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, collection, c.ID, string(c.Source), c.DocumentKey,
			c.Ordinal, c.Title, c.URL, c.Text, encodeVector(vectors[i])); err != nil {
			return unavailable("upserting chunk "+c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("committing upsert", err)
	}

	s.logger.Debug("upserted chunks",
		zap.String("collection", collection),
		zap.Int("chunks", len(chunks)))
	return nil
}

// checkEmbedder fails with ErrEmbedderMismatch when collection is already
// registered to a different embedder. An unknown collection passes.
func (s *Store) checkEmbedder(ctx context.Context, collection string) error {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT embedder FROM collections WHERE name = ?`, collection).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return unavailable("looking up collection", err)
	case name != s.embedder.Name():
		return fmt.Errorf("%w: %s uses %s, store uses %s", ErrEmbedderMismatch, collection, name, s.embedder.Name())
	}
	return nil
}

// ensureCollection registers collection with the current embedder, or
// checks that an existing registration matches it.
func (s *Store) ensureCollection(ctx context.Context, collection string) error {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT embedder FROM collections WHERE name = ?`, collection).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO collections (name, embedder, dimensions, created_at) VALUES (?, ?, ?, ?)`,
			collection, s.embedder.Name(), s.embedder.Dimensions(), time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return unavailable("registering collection", err)
		}
		return nil
	case err != nil:
		return unavailable("looking up collection", err)
	case name != s.embedder.Name():
		return fmt.Errorf("%w: %s uses %s, store uses %s", ErrEmbedderMismatch, collection, name, s.embedder.Name())
	}
	return nil
}

// Count returns the number of chunks in collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, unavailable("counting chunks", err)
	}
	return n, nil
}

// CollectionInfo summarises one collection.
type CollectionInfo struct {
	Name      string `json:"name" yaml:"name"`
	Embedder  string `json:"embedder" yaml:"embedder"`
	Chunks    int    `json:"chunks" yaml:"chunks"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

// Collections lists all collections ordered by name.
func (s *Store) Collections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.name, c.embedder, c.created_at,
			(SELECT count(*) FROM chunks WHERE chunks.collection = c.name)
		FROM collections c ORDER BY c.name`)
	if err != nil {
		return nil, unavailable("listing collections", err)
	}
	defer rows.Close()

	var out []CollectionInfo
	for rows.Next() {
		var ci CollectionInfo
		if err := rows.Scan(&ci.Name, &ci.Embedder, &ci.CreatedAt, &ci.Chunks); err != nil {
			return nil, unavailable("scanning collection", err)
		}
		out = append(out, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing collections", err)
	}
	return out, nil
}

// Drop deletes collection and its chunks. Dropping an unknown collection is
// not an error.
func (s *Store) Drop(ctx context.Context, collection string) error {
	unlock := s.lock(collection)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, collection); err != nil {
		return unavailable("deleting chunks", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection); err != nil {
		return unavailable("deleting collection", err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("committing drop", err)
	}
	return nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
