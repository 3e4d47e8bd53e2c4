package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalease/backend/pkg/logger"
)

type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// SendResult reports per-token delivery. A token in Failed did not reach the
// delivery queue; the rest did.
type SendResult struct {
	SuccessCount int
	FailureCount int
	Failed       []string
}

// Sender delivers a payload to device tokens.
type Sender interface {
	Send(ctx context.Context, tokens []string, payload Payload) (SendResult, error)
}

// StreamWriter is the subset of the redis client RedisSender needs.
type StreamWriter interface {
	AddToStream(ctx context.Context, stream string, values map[string]interface{}) (string, error)
}

// RedisSender enqueues one stream entry per token for a push gateway worker
// to deliver.
type RedisSender struct {
	writer StreamWriter
	stream string
}

func NewRedisSender(writer StreamWriter, stream string) *RedisSender {
	return &RedisSender{writer: writer, stream: stream}
}

func (s *RedisSender) Send(ctx context.Context, tokens []string, payload Payload) (SendResult, error) {
	var result SendResult

	data, err := json.Marshal(payload.Data)
	if err != nil {
		return result, fmt.Errorf("failed to marshal payload data: %w", err)
	}

	for _, token := range tokens {
		_, err := s.writer.AddToStream(ctx, s.stream, map[string]interface{}{
			"token": token,
			"title": payload.Title,
			"body":  payload.Body,
			"data":  string(data),
		})
		if err != nil {
			logger.Warn("Failed to enqueue notification", zap.String("stream", s.stream), zap.Error(err))
			result.FailureCount++
			result.Failed = append(result.Failed, token)
			continue
		}
		result.SuccessCount++
	}

	return result, nil
}

// LogSender only logs. It is used when redis is disabled.
type LogSender struct{}

func (LogSender) Send(_ context.Context, tokens []string, payload Payload) (SendResult, error) {
	logger.Info("Notification",
		zap.Int("tokens", len(tokens)),
		zap.String("title", payload.Title),
		zap.String("body", payload.Body),
	)
	return SendResult{SuccessCount: len(tokens)}, nil
}
