package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/pkg/circuitbreaker"
	"github.com/legalease/backend/pkg/config"
	"github.com/legalease/backend/pkg/logger"
	"github.com/legalease/backend/pkg/retry"
)

// ErrUnauthorized marks a provider rejecting the configured credential.
var ErrUnauthorized = errors.New("provider rejected credentials")

// Provider is a text-generation backend. An empty Content in the response
// means the provider produced no usable text; that is not an error.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewProvider builds the provider named in cfg. It returns (nil, nil) when no
// API key is configured, which callers treat as "answer without a model".
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	if !cfg.Configured() {
		logger.Warn("No LLM API key configured; answers will contain context only",
			zap.String("provider", cfg.Provider),
		)
		return nil, nil
	}

	switch cfg.Provider {
	case "openai":
		return NewClient(cfg), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// guard is the retry and circuit-breaker envelope every provider call runs in.
// Credential failures are neither retried nor counted against the breaker.
type guard struct {
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	timeout     time.Duration
}

func newGuard(name string, timeoutSec int) guard {
	countable := func(err error) bool {
		return err != nil &&
			!errors.Is(err, ErrUnauthorized) &&
			!errors.Is(err, context.Canceled)
	}

	cb := circuitbreaker.NewCircuitBreaker(name, circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		IsFailure:        countable,
		OnStateChange:    recordState,
		Logger:           logger.GetLogger(),
	})
	metrics.CircuitState.WithLabelValues(name).Set(float64(circuitbreaker.StateClosed))

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		ShouldRetry:    func(err error) bool { return !errors.Is(err, ErrUnauthorized) },
		Logger:         logger.GetLogger(),
	}

	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	return guard{
		cb:          cb,
		retryConfig: retryConfig,
		timeout:     time.Duration(timeoutSec) * time.Second,
	}
}

func recordState(name string, _, to circuitbreaker.State) {
	metrics.CircuitState.WithLabelValues(name).Set(float64(to))
}

func (g guard) run(ctx context.Context, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.cb.Execute(ctx, func() error {
		return retry.Do(ctx, g.retryConfig, func() error {
			return call(ctx)
		})
	})
}

func unauthorized(provider string, err error) error {
	return fmt.Errorf("%s: %w: %v", provider, ErrUnauthorized, err)
}

func looksLikeCredentialError(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "incorrect api key") ||
		strings.Contains(msg, "unauthenticated")
}
