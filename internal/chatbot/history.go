package chatbot

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/apperr"
	"github.com/legalease/backend/pkg/logger"
)

func (e *Engine) saveHistory(ctx context.Context, question string, resp *Response) {
	if !e.recordHistory {
		return
	}

	record := models.QueryRecord{
		ID:        resp.ID,
		Question:  question,
		Answer:    resp.Answer.Answer,
		Context:   resp.Context,
		Matched:   resp.Matched,
		Score:     resp.Score,
		CreatedAt: e.now(),
	}

	if err := e.store.Set(ctx, storage.CollectionQueryHistory, record.ID, record.Fields()); err != nil {
		logger.Warn("Failed to record question history",
			zap.String("query_id", record.ID),
			zap.Error(err),
		)
	}
}

// History returns answered questions, newest first, at most limit entries
// when limit is positive.
func (e *Engine) History(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	docs, err := e.store.GetAll(ctx, storage.CollectionQueryHistory)
	if err != nil {
		return nil, apperr.Internal("Failed to read question history.", err)
	}

	history := make([]models.QueryRecord, 0, len(docs))
	for _, doc := range docs {
		history = append(history, models.QueryRecordFromDocument(doc))
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})

	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// ClearHistory deletes every stored question and returns how many went.
func (e *Engine) ClearHistory(ctx context.Context) (int, error) {
	docs, err := e.store.GetAll(ctx, storage.CollectionQueryHistory)
	if err != nil {
		return 0, apperr.Internal("Failed to read question history.", err)
	}

	for _, doc := range docs {
		if err := e.store.Delete(ctx, storage.CollectionQueryHistory, doc.ID); err != nil {
			return 0, apperr.Internal("Failed to clear question history.", err)
		}
	}

	logger.Info("Question history cleared", zap.Int("deleted", len(docs)))
	return len(docs), nil
}
