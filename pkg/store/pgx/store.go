package pgx

import (
	"context"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"
	"github.com/OFFIS-RIT/pomelo/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

const insertBatchSize = 1000

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// SnapshotStorage implements store.Store on PostgreSQL with pgvector
// for the chunk embeddings. Saves replace the previous snapshot inside
// one transaction, so a concurrent load sees either the old or the new
// snapshot, never a mix.
type SnapshotStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewPool opens a pgxpool that registers the pgvector types on every
// connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

// NewSnapshotStorage creates a SnapshotStorage on an existing
// connection or pool and ensures the schema exists.
func NewSnapshotStorage(ctx context.Context, conn pgxIConn) (*SnapshotStorage, error) {
	s := &SnapshotStorage{conn: conn}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return s, nil
}

func (s *SnapshotStorage) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL,
			institution TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector
		)`,
		`CREATE TABLE IF NOT EXISTS triples (
			id BIGSERIAL PRIMARY KEY,
			subject TEXT NOT NULL,
			relation TEXT NOT NULL,
			object TEXT NOT NULL,
			chunk_id TEXT NOT NULL REFERENCES chunks(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS triples_chunk_id_idx ON triples (chunk_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot replaces the persisted snapshot with the given chunks
// and triples.
func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, chunks []common.Chunk, triples []common.Triple) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	logger.Debug("[Store][SaveSnapshot] Replacing snapshot",
		"chunks", len(chunks), "triples", len(triples))

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM triples`); err != nil {
		return fmt.Errorf("failed to clear triples: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	err = store.ChunkRange(len(chunks), insertBatchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, c := range chunks[start:end] {
			var emb any
			if len(c.Embedding) > 0 {
				emb = pgvector.NewVector(c.Embedding)
			}
			batch.Queue(
				`INSERT INTO chunks (id, doc_id, institution, content, embedding)
				 VALUES ($1, $2, $3, $4, $5)`,
				c.ID, c.DocID, c.Institution, c.Text, emb,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	err = store.ChunkRange(len(triples), insertBatchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, t := range triples[start:end] {
			batch.Queue(
				`INSERT INTO triples (subject, relation, object, chunk_id)
				 VALUES ($1, $2, $3, $4)`,
				t.Subject, t.Relation, t.Object, t.ChunkID,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert triples: %w", err)
	}

	return tx.Commit(ctx)
}

// LoadSnapshot reads the persisted chunks and triples.
func (s *SnapshotStorage) LoadSnapshot(ctx context.Context) ([]common.Chunk, []common.Triple, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT id, doc_id, institution, content, embedding FROM chunks ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []common.Chunk
	for rows.Next() {
		var c common.Chunk
		var emb *pgvector.Vector
		if err := rows.Scan(&c.ID, &c.DocID, &c.Institution, &c.Text, &emb); err != nil {
			return nil, nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if emb != nil {
			c.Embedding = emb.Slice()
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	tripleRows, err := s.conn.Query(ctx,
		`SELECT subject, relation, object, chunk_id FROM triples ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query triples: %w", err)
	}
	defer tripleRows.Close()

	var triples []common.Triple
	for tripleRows.Next() {
		var t common.Triple
		if err := tripleRows.Scan(&t.Subject, &t.Relation, &t.Object, &t.ChunkID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan triple: %w", err)
		}
		triples = append(triples, t)
	}
	if err := tripleRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read triples: %w", err)
	}

	logger.Debug("[Store][LoadSnapshot] Loaded snapshot",
		"chunks", len(chunks), "triples", len(triples))
	return chunks, triples, nil
}
