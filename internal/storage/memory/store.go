// Package memory is an in-process document store used by tests and by the
// "memory" driver for local runs without a database file.
package memory

import (
	"context"
	"sync"

	"github.com/legalease/backend/internal/storage"
)

type collection struct {
	order []string
	docs  map[string]storage.Fields
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) GetAll(ctx context.Context, name string) ([]storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return []storage.Document{}, nil
	}

	docs := make([]storage.Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, storage.Document{ID: id, Fields: c.docs[id].Clone()})
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, name, id string) (storage.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Document{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return storage.Document{}, false, nil
	}
	fields, ok := c.docs[id]
	if !ok {
		return storage.Document{}, false, nil
	}
	return storage.Document{ID: id, Fields: fields.Clone()}, true, nil
}

func (s *Store) Set(ctx context.Context, name, id string, fields storage.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(name)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = fields.Clone()
	return nil
}

func (s *Store) Update(ctx context.Context, name, id string, fields storage.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lookup(name, id)
	if !ok {
		return storage.ErrNotFound
	}
	for k, v := range fields.Clone() {
		existing[k] = v
	}
	return nil
}

func (s *Store) Increment(ctx context.Context, name, id string, deltas map[string]int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lookup(name, id)
	if !ok {
		return storage.ErrNotFound
	}
	storage.ApplyIncrements(existing, deltas)
	return nil
}

func (s *Store) Delete(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	if _, exists := c.docs[id]; !exists {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) collection(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]storage.Fields)}
		s.collections[name] = c
	}
	return c
}

func (s *Store) lookup(name, id string) (storage.Fields, bool) {
	c, ok := s.collections[name]
	if !ok {
		return nil, false
	}
	fields, ok := c.docs[id]
	return fields, ok
}

// RunInTransaction holds the store's write lock for the whole of fn and
// stages writes until fn succeeds.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{store: s, staged: make(map[docKey]storage.Fields)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for _, key := range tx.order {
		c := s.collection(key.collection)
		if _, exists := c.docs[key.id]; !exists {
			c.order = append(c.order, key.id)
		}
		c.docs[key.id] = tx.staged[key]
	}
	return nil
}

type docKey struct {
	collection string
	id         string
}

type txn struct {
	store  *Store
	staged map[docKey]storage.Fields
	order  []docKey
}

func (t *txn) current(name, id string) (storage.Fields, bool) {
	if fields, ok := t.staged[docKey{name, id}]; ok {
		return fields, true
	}
	fields, ok := t.store.lookup(name, id)
	if !ok {
		return nil, false
	}
	return fields.Clone(), true
}

func (t *txn) stage(name, id string, fields storage.Fields) {
	key := docKey{name, id}
	if _, ok := t.staged[key]; !ok {
		t.order = append(t.order, key)
	}
	t.staged[key] = fields
}

func (t *txn) Get(ctx context.Context, name, id string) (storage.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Document{}, false, err
	}
	fields, ok := t.current(name, id)
	if !ok {
		return storage.Document{}, false, nil
	}
	return storage.Document{ID: id, Fields: fields.Clone()}, true, nil
}

func (t *txn) Set(ctx context.Context, name, id string, fields storage.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.stage(name, id, fields.Clone())
	return nil
}

func (t *txn) Create(ctx context.Context, name, id string, fields storage.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := t.current(name, id); exists {
		return storage.ErrAlreadyExists
	}
	t.stage(name, id, fields.Clone())
	return nil
}

func (t *txn) Update(ctx context.Context, name, id string, fields storage.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	existing, ok := t.current(name, id)
	if !ok {
		return storage.ErrNotFound
	}
	for k, v := range fields.Clone() {
		existing[k] = v
	}
	t.stage(name, id, existing)
	return nil
}

func (t *txn) Increment(ctx context.Context, name, id string, deltas map[string]int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	existing, ok := t.current(name, id)
	if !ok {
		return storage.ErrNotFound
	}
	storage.ApplyIncrements(existing, deltas)
	t.stage(name, id, existing)
	return nil
}
