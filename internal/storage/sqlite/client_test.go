package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/storagetest"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := NewClient(filepath.Join(t.TempDir(), "legalease.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newTestClient(t)
	})
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	c := newTestClient(t)
	assert.NoError(t, c.InitSchema())
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "legalease.db")
	ctx := context.Background()

	c, err := NewClient(path)
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	require.NoError(t, c.Set(ctx, storage.CollectionLegalDataset, "theft", storage.Fields{"category": "Theft"}))
	require.NoError(t, c.Close())

	reopened, err := NewClient(path)
	require.NoError(t, err)
	defer reopened.Close()

	doc, found, err := reopened.Get(ctx, storage.CollectionLegalDataset, "theft")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Theft", doc.Fields.String("category"))
}
