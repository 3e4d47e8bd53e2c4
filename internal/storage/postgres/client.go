package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/pkg/logger"
)

// Client keeps documents as JSONB rows in a single table. A bigserial seq
// column gives GetAll first-insertion order.
type Client struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Client)(nil)

func NewClient(ctx context.Context, connString string) (*Client, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logger.Info("Postgres client initialized",
		zap.String("host", pool.Config().ConnConfig.Host),
		zap.String("database", pool.Config().ConnConfig.Database),
	)

	return &Client{pool: pool}, nil
}

func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq BIGSERIAL PRIMARY KEY,
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
	`

	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Postgres schema initialized")
	return nil
}

func (c *Client) GetAll(ctx context.Context, collection string) ([]storage.Document, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, data FROM documents WHERE collection = $1 ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []storage.Document{}
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		fields, err := storage.DecodeFields(data)
		if err != nil {
			return nil, fmt.Errorf("document %s/%s: %w", collection, id, err)
		}
		docs = append(docs, storage.Document{ID: id, Fields: fields})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}

	return docs, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (c *Client) Get(ctx context.Context, collection, id string) (storage.Document, bool, error) {
	return getDocument(ctx, c.pool, collection, id, false)
}

func (c *Client) Set(ctx context.Context, collection, id string, fields storage.Fields) error {
	return setDocument(ctx, c.pool, collection, id, fields)
}

// Update merges fields into the stored document with the jsonb || operator.
func (c *Client) Update(ctx context.Context, collection, id string, fields storage.Fields) error {
	return updateDocument(ctx, c.pool, collection, id, fields)
}

func (c *Client) Increment(ctx context.Context, collection, id string, deltas map[string]int64) error {
	return c.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Increment(ctx, collection, id, deltas)
	})
}

// RunInTransaction reads with SELECT ... FOR UPDATE, so a second
// transaction on the same document waits for the first to commit and then
// sees its writes.
func (c *Client) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txn{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

type txn struct {
	tx pgx.Tx
}

func (t *txn) Get(ctx context.Context, collection, id string) (storage.Document, bool, error) {
	return getDocument(ctx, t.tx, collection, id, true)
}

func (t *txn) Set(ctx context.Context, collection, id string, fields storage.Fields) error {
	return setDocument(ctx, t.tx, collection, id, fields)
}

// Create relies on the (collection, id) unique index: a concurrent insert of
// the same id blocks until the other transaction ends, then does nothing.
func (t *txn) Create(ctx context.Context, collection, id string, fields storage.Fields) error {
	data, err := storage.EncodeFields(fields)
	if err != nil {
		return err
	}

	tag, err := t.tx.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

func (t *txn) Update(ctx context.Context, collection, id string, fields storage.Fields) error {
	return updateDocument(ctx, t.tx, collection, id, fields)
}

func (t *txn) Increment(ctx context.Context, collection, id string, deltas map[string]int64) error {
	doc, found, err := getDocument(ctx, t.tx, collection, id, true)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	storage.ApplyIncrements(doc.Fields, deltas)

	updated, err := storage.EncodeFields(doc.Fields)
	if err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx,
		`UPDATE documents SET data = $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		collection, id, string(updated),
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func getDocument(ctx context.Context, q querier, collection, id string, lock bool) (storage.Document, bool, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if lock {
		query += ` FOR UPDATE`
	}

	var data []byte
	err := q.QueryRow(ctx, query, collection, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Document{}, false, nil
	}
	if err != nil {
		return storage.Document{}, false, fmt.Errorf("failed to get document: %w", err)
	}

	fields, err := storage.DecodeFields(data)
	if err != nil {
		return storage.Document{}, false, err
	}

	return storage.Document{ID: id, Fields: fields}, true, nil
}

func setDocument(ctx context.Context, q querier, collection, id string, fields storage.Fields) error {
	data, err := storage.EncodeFields(fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
	`

	if _, err := q.Exec(ctx, query, collection, id, string(data)); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

func updateDocument(ctx context.Context, q querier, collection, id string, fields storage.Fields) error {
	data, err := storage.EncodeFields(fields)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		collection, id, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
