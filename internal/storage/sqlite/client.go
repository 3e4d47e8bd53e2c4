package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/pkg/logger"
)

// Client stores every collection in a single documents table keyed by
// (collection, id). The autoincrement seq column gives GetAll a stable
// first-insertion order.
type Client struct {
	db *sql.DB
}

var _ storage.Store = (*Client)(nil)

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) GetAll(ctx context.Context, collection string) ([]storage.Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = ? ORDER BY seq`

	rows, err := c.db.QueryContext(ctx, query, collection)
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

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (c *Client) Get(ctx context.Context, collection, id string) (storage.Document, bool, error) {
	return getDocument(ctx, c.db, collection, id)
}

func (c *Client) Set(ctx context.Context, collection, id string, fields storage.Fields) error {
	if err := setDocument(ctx, c.db, collection, id, fields); err != nil {
		return err
	}

	logger.Debug("Document stored", zap.String("collection", collection), zap.String("id", id))
	return nil
}

func (c *Client) Update(ctx context.Context, collection, id string, fields storage.Fields) error {
	return c.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Update(ctx, collection, id, fields)
	})
}

func (c *Client) Increment(ctx context.Context, collection, id string, deltas map[string]int64) error {
	return c.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Increment(ctx, collection, id, deltas)
	})
}

// RunInTransaction opens an IMMEDIATE transaction (see the _txlock DSN
// option), so concurrent transactions serialize on the database write lock.
func (c *Client) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &txn{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

type txn struct {
	tx *sql.Tx
}

func (t *txn) Get(ctx context.Context, collection, id string) (storage.Document, bool, error) {
	return getDocument(ctx, t.tx, collection, id)
}

func (t *txn) Set(ctx context.Context, collection, id string, fields storage.Fields) error {
	return setDocument(ctx, t.tx, collection, id, fields)
}

func (t *txn) Create(ctx context.Context, collection, id string, fields storage.Fields) error {
	data, err := storage.EncodeFields(fields)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO NOTHING`,
		collection, id, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

func (t *txn) Update(ctx context.Context, collection, id string, fields storage.Fields) error {
	return modifyDocument(ctx, t.tx, collection, id, mergeFields(fields))
}

func (t *txn) Increment(ctx context.Context, collection, id string, deltas map[string]int64) error {
	return modifyDocument(ctx, t.tx, collection, id, func(existing storage.Fields) {
		storage.ApplyIncrements(existing, deltas)
	})
}

func getDocument(ctx context.Context, q querier, collection, id string) (storage.Document, bool, error) {
	var data []byte
	err := q.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`

	now := time.Now().Unix()
	if _, err := q.ExecContext(ctx, query, collection, id, string(data), now, now); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

func modifyDocument(ctx context.Context, q querier, collection, id string, mutate func(storage.Fields)) error {
	doc, found, err := getDocument(ctx, q, collection, id)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	mutate(doc.Fields)

	updated, err := storage.EncodeFields(doc.Fields)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(updated), time.Now().Unix(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func mergeFields(fields storage.Fields) func(storage.Fields) {
	return func(existing storage.Fields) {
		for k, v := range fields {
			existing[k] = v
		}
	}
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
