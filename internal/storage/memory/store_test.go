package memory

import (
	"testing"

	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return NewStore()
	})
}
