// Package storage defines the collection-oriented document store the service
// persists everything in: the law catalogue, bookings, lawyers, chats, users
// and the question history.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	CollectionLegalDataset = "legal_dataset"
	CollectionBookings     = "bookings"
	CollectionLawyers      = "lawyers"
	CollectionChats        = "chats"
	CollectionUsers        = "users"
	CollectionClients      = "clients"
	CollectionLawFirms     = "lawfirms"
	CollectionUsernames    = "usernames"
	CollectionQueryHistory = "query_history"
)

// ChatMessagesCollection names the per-chat message collection.
func ChatMessagesCollection(chatID string) string {
	return CollectionChats + "/" + chatID + "/messages"
}

// ErrNotFound is returned by Update and Increment when the target document
// does not exist. Get reports absence through its boolean result instead.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned by Tx.Create when the id is taken.
var ErrAlreadyExists = errors.New("document already exists")

type Fields map[string]interface{}

type Document struct {
	ID     string
	Fields Fields
}

// Store is implemented by the sqlite, postgres and memory backends. GetAll
// returns documents in the backend's native enumeration order, which for all
// implementations is first-insertion order.
type Store interface {
	GetAll(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, bool, error)
	Set(ctx context.Context, collection, id string, fields Fields) error
	Update(ctx context.Context, collection, id string, fields Fields) error
	Increment(ctx context.Context, collection, id string, deltas map[string]int64) error
	Delete(ctx context.Context, collection, id string) error
	// RunInTransaction runs fn against a consistent view of the store. Writes
	// made through tx are applied together when fn returns nil and discarded
	// otherwise; fn's error is returned unchanged. Concurrent transactions
	// touching the same documents are serialized. fn must only use tx, never
	// the Store itself.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Tx is the store as seen from inside RunInTransaction.
type Tx interface {
	Get(ctx context.Context, collection, id string) (Document, bool, error)
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Create is Set that fails with ErrAlreadyExists instead of overwriting.
	Create(ctx context.Context, collection, id string, fields Fields) error
	Update(ctx context.Context, collection, id string, fields Fields) error
	Increment(ctx context.Context, collection, id string, deltas map[string]int64) error
}

// String returns the string form of a field, "" when absent or null.
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the integer value of a numeric field, 0 when absent.
func (f Fields) Int64(key string) int64 {
	switch v := f[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(math.Round(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if fl, err := v.Float64(); err == nil {
			return int64(math.Round(fl))
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Strings returns a string list field, skipping non-string elements.
func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone copies the map and any list values so callers cannot alias stored
// state.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	out := make(Fields, len(f))
	for k, v := range f {
		switch list := v.(type) {
		case []string:
			out[k] = append([]string(nil), list...)
		case []interface{}:
			out[k] = append([]interface{}(nil), list...)
		default:
			out[k] = v
		}
	}
	return out
}

// ApplyIncrements adds deltas to the numeric fields of f in place.
func ApplyIncrements(f Fields, deltas map[string]int64) {
	for key, delta := range deltas {
		f[key] = f.Int64(key) + delta
	}
}

// EncodeFields and DecodeFields are the JSON codec the SQL backends store
// documents with. Decoding keeps numbers as json.Number so counters survive
// the round trip without float rounding.
func EncodeFields(f Fields) ([]byte, error) {
	if f == nil {
		f = Fields{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

func DecodeFields(data []byte) (Fields, error) {
	var f Fields
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if f == nil {
		f = Fields{}
	}
	return f, nil
}
