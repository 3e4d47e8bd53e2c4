// Package ingestion loads law catalogue records into the document store.
package ingestion

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/legalease/backend/internal/legal"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/logger"
)

type Processor struct {
	store storage.Store
}

func NewProcessor(store storage.Store) *Processor {
	return &Processor{store: store}
}

type Result struct {
	Uploaded int
	Skipped  int
	Failed   []string
}

// Ingest writes every record under its id. A record that fails to store is
// logged and reported in Result.Failed; the rest still go in.
func (p *Processor) Ingest(ctx context.Context, records []models.LegalRecord) (*Result, error) {
	result := &Result{}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if isBlank(record) {
			result.Skipped++
			continue
		}

		id := record.ID
		if id == "" {
			id = legal.RecordID(record)
		}

		if err := p.store.Set(ctx, storage.CollectionLegalDataset, id, record.Fields()); err != nil {
			logger.Error("Failed to store record", zap.String("id", id), zap.Error(err))
			result.Failed = append(result.Failed, id)
			continue
		}

		logger.Debug("Record stored", zap.String("id", id), zap.String("category", record.Category))
		result.Uploaded++
	}

	logger.Info("Catalogue ingested",
		zap.Int("uploaded", result.Uploaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)),
	)

	return result, nil
}

// SeedIfEmpty loads the built-in catalogue when the collection has no
// records. It reports whether anything was written.
func (p *Processor) SeedIfEmpty(ctx context.Context) (bool, error) {
	docs, err := p.store.GetAll(ctx, storage.CollectionLegalDataset)
	if err != nil {
		return false, fmt.Errorf("failed to read catalogue: %w", err)
	}
	if len(docs) > 0 {
		return false, nil
	}

	records, err := legal.DefaultCatalogue()
	if err != nil {
		return false, err
	}

	result, err := p.Ingest(ctx, records)
	if err != nil {
		return false, err
	}
	if len(result.Failed) > 0 {
		return true, fmt.Errorf("failed to seed %d records", len(result.Failed))
	}
	return true, nil
}

func isBlank(r models.LegalRecord) bool {
	return strings.TrimSpace(r.Category+r.Act+r.Section+r.Description+r.Punishment) == ""
}
