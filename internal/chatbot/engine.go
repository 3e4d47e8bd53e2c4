// Package chatbot answers legal questions: it reads the catalogue, picks the
// best record, prompts the provider and shapes the reply.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalease/backend/internal/legal"
	"github.com/legalease/backend/internal/llm"
	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/apperr"
	"github.com/legalease/backend/pkg/logger"
)

const (
	QuestionRequiredMessage = "A valid question is required."
	UnauthorizedMessage     = "Invalid or unauthorized provider API key. Please verify the API key configuration."

	// NotConfiguredAnswer is returned in place of a generated answer when no
	// provider credential is set.
	NotConfiguredAnswer = "The AI assistant is not configured on this server. The most relevant law from the dataset is included as context."
)

type Engine struct {
	store             storage.Store
	provider          llm.Provider
	maxTokens         int
	maxQuestionLength int
	recordHistory     bool
	now               func() time.Time
}

type Option func(*Engine)

func WithMaxTokens(n int) Option {
	return func(e *Engine) { e.maxTokens = n }
}

// WithMaxQuestionLength rejects longer questions as invalid. Zero disables the check.
func WithMaxQuestionLength(n int) Option {
	return func(e *Engine) { e.maxQuestionLength = n }
}

func WithHistory(enabled bool) Option {
	return func(e *Engine) { e.recordHistory = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the store and provider. A nil provider means no credential
// is configured; Ask then answers with the context only.
func NewEngine(store storage.Store, provider llm.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		provider:      provider,
		maxTokens:     500,
		recordHistory: true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Response is an answer plus the bookkeeping the transports report.
type Response struct {
	legal.Answer
	ID        string
	Matched   bool
	Score     int
	LatencyMS int
}

func (e *Engine) ProviderConfigured() bool {
	return e.provider != nil
}

// Ask runs one question through validation, matching, prompting and
// formatting. Errors are *apperr.Error values.
func (e *Engine) Ask(ctx context.Context, question string) (*Response, error) {
	startTime := e.now()

	question = strings.TrimSpace(question)
	if question == "" {
		metrics.QuestionTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.InvalidArgument(QuestionRequiredMessage)
	}
	if e.maxQuestionLength > 0 && len([]rune(question)) > e.maxQuestionLength {
		metrics.QuestionTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.InvalidArgument(fmt.Sprintf("Question must be at most %d characters.", e.maxQuestionLength))
	}

	queryID := uuid.New().String()
	logger.Info("Processing question",
		zap.String("query_id", queryID),
		zap.Int("length", len(question)),
	)

	records := e.loadRecords(ctx)
	match := legal.Match(question, records)
	if match.Matched() {
		metrics.MatchTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.MatchTotal.WithLabelValues("miss").Inc()
	}
	metrics.MatchScore.Observe(float64(match.Score))

	prompt := legal.BuildPrompt(match, question)

	var answer legal.Answer
	if e.provider == nil {
		logger.Warn("Provider not configured, returning context only", zap.String("query_id", queryID))
		answer = legal.Answer{Answer: NotConfiguredAnswer, Context: prompt.Context}
		metrics.QuestionTotal.WithLabelValues("not_configured").Inc()
	} else {
		reply, err := e.complete(ctx, prompt)
		if err != nil {
			return nil, e.classify(queryID, err)
		}
		answer = legal.FormatAnswer(reply, prompt.Context)
		metrics.QuestionTotal.WithLabelValues("answered").Inc()
	}

	latency := int(e.now().Sub(startTime).Milliseconds())

	resp := &Response{
		Answer:    answer,
		ID:        queryID,
		Matched:   match.Matched(),
		Score:     match.Score,
		LatencyMS: latency,
	}

	e.saveHistory(ctx, question, resp)

	logger.Info("Question answered",
		zap.String("query_id", queryID),
		zap.Bool("matched", resp.Matched),
		zap.Int("score", resp.Score),
		zap.Int("latency_ms", latency),
	)

	return resp, nil
}

// loadRecords reads the full catalogue. A failed read is logged and treated
// as an empty catalogue so the request still gets the no-match context.
func (e *Engine) loadRecords(ctx context.Context) []models.LegalRecord {
	docs, err := e.store.GetAll(ctx, storage.CollectionLegalDataset)
	if err != nil {
		logger.Warn("Catalogue read failed, continuing without records", zap.Error(err))
		metrics.StoreReadFailures.WithLabelValues(storage.CollectionLegalDataset).Inc()
		return nil
	}

	records := make([]models.LegalRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, models.LegalRecordFromDocument(doc))
	}
	metrics.CatalogueRecords.Set(float64(len(records)))
	return records
}

func (e *Engine) complete(ctx context.Context, prompt legal.Prompt) (string, error) {
	start := time.Now()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
		MaxTokens:    e.maxTokens,
	})
	metrics.ProviderDuration.WithLabelValues(e.provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "completion").Add(float64(resp.Usage.CompletionTokens))
	return resp.Content, nil
}

func (e *Engine) classify(queryID string, err error) error {
	if errors.Is(err, llm.ErrUnauthorized) {
		logger.Error("Provider rejected credentials",
			zap.String("query_id", queryID),
			zap.String("provider", e.provider.Name()),
			zap.Error(err),
		)
		metrics.QuestionTotal.WithLabelValues("unauthorized").Inc()
		return apperr.Unauthorized(UnauthorizedMessage, err)
	}

	logger.Error("Provider call failed",
		zap.String("query_id", queryID),
		zap.String("provider", e.provider.Name()),
		zap.Error(err),
	)
	metrics.QuestionTotal.WithLabelValues("error").Inc()
	return apperr.Internal(fmt.Sprintf("Failed to get response from %s: %v", e.provider.Name(), err), err)
}

// Records returns the catalogue in store order. Unlike Ask, a read failure
// is an error here.
func (e *Engine) Records(ctx context.Context) ([]models.LegalRecord, error) {
	docs, err := e.store.GetAll(ctx, storage.CollectionLegalDataset)
	if err != nil {
		return nil, apperr.Internal("Failed to read the legal dataset.", err)
	}

	records := make([]models.LegalRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, models.LegalRecordFromDocument(doc))
	}
	return records, nil
}
