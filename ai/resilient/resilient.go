// Package resilient wraps completion services with circuit breaker and
// retry policies.
package resilient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/poiesic/aikernel/ai"
	"github.com/tmc/langchaingo/llms"
)

// Config holds the resilience settings.
type Config struct {
	// EnableCircuitBreaker enables circuit breaker pattern
	EnableCircuitBreaker bool

	// EnableRetry enables retry with backoff
	EnableRetry bool

	// FailureThreshold is the number of consecutive failures that opens the
	// circuit (default: 3)
	FailureThreshold int

	// OpenTimeout is how long the circuit stays open (default: 60s)
	OpenTimeout time.Duration

	// MaxAttempts for retry (default: 3)
	MaxAttempts int

	// InitialDelay is the first retry delay (default: 2s)
	InitialDelay time.Duration

	// MaxDelay caps the retry delay (default: 60s)
	MaxDelay time.Duration

	// MaxConcurrent limits in-flight calls when positive. Further calls wait
	// up to QueueTimeout for a slot.
	MaxConcurrent int

	// QueueTimeout bounds the wait for a slot (default: 30s)
	QueueTimeout time.Duration

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults for remote model calls.
func DefaultConfig() Config {
	return Config{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		FailureThreshold:     3,
		OpenTimeout:          60 * time.Second,
		MaxAttempts:          3,
		InitialDelay:         2 * time.Second,
		MaxDelay:             60 * time.Second,
	}
}

// FromOptions returns DefaultConfig adjusted by registration options.
func FromOptions(o *ai.ServiceOptions) Config {
	cfg := DefaultConfig()
	cfg.MaxConcurrent = o.MaxConcurrent
	return cfg
}

// policy applies the configured circuit breaker and retry to string calls.
type policy struct {
	circuitBreaker circuitbreaker.CircuitBreaker[string]
	retrier        retry.Retry[string]
	bulkhead       bulkhead.Bulkhead[string]
}

func newPolicy(name string, cfg Config) *policy {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "resilient", "service", name)

	p := &policy{}
	if cfg.EnableCircuitBreaker {
		threshold := cfg.FailureThreshold
		if threshold <= 0 {
			threshold = 3
		}
		timeout := cfg.OpenTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		p.circuitBreaker = circuitbreaker.New[string](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    10 * time.Second,
			Timeout:     timeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= threshold
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn("circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	if cfg.EnableRetry {
		attempts := cfg.MaxAttempts
		if attempts <= 0 {
			attempts = 3
		}
		p.retrier = retry.New[string](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      cfg.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   IsRetryable,
		})
	}
	if cfg.MaxConcurrent > 0 {
		queueTimeout := cfg.QueueTimeout
		if queueTimeout <= 0 {
			queueTimeout = 30 * time.Second
		}
		p.bulkhead = bulkhead.New[string](bulkhead.Config{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxQueue:      cfg.MaxConcurrent * 2,
			QueueTimeout:  queueTimeout,
		})
	}
	return p
}

func (p *policy) execute(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	operation := call
	if p.bulkhead != nil {
		operation = func(ctx context.Context) (string, error) {
			return p.bulkhead.Execute(ctx, call)
		}
	}
	if p.circuitBreaker != nil && p.retrier != nil {
		return p.circuitBreaker.Execute(ctx, func(ctx context.Context) (string, error) {
			return p.retrier.Do(ctx, operation)
		})
	}
	if p.circuitBreaker != nil {
		return p.circuitBreaker.Execute(ctx, operation)
	}
	if p.retrier != nil {
		return p.retrier.Do(ctx, operation)
	}
	return operation(ctx)
}

// statusPattern finds the HTTP status in vendor error messages such as
// "API returned unexpected status code: 401" or "API error (status 503)".
var statusPattern = regexp.MustCompile(`(?i)status(?: code)?:?\s*(\d{3})`)

// statusCode returns the HTTP status carried by err, or 0.
func statusCode(err error) int {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// IsRetryable reports whether err is worth another attempt: rate limits,
// server errors and failures that carry no status, such as network errors.
// Cancellation and other client errors fail fast.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var llmErr *llms.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Code {
		case llms.ErrCodeRateLimit, llms.ErrCodeProviderUnavailable, llms.ErrCodeTimeout, llms.ErrCodeUnknown:
			return true
		}
		return false
	}
	if code := statusCode(err); code != 0 {
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	return true
}

// TextCompletion is a resilient ai.TextCompletionService.
type TextCompletion struct {
	inner  ai.TextCompletionService
	policy *policy
}

var _ ai.TextCompletionService = (*TextCompletion)(nil)

// WrapTextCompletion wraps svc with the policies in cfg.
func WrapTextCompletion(svc ai.TextCompletionService, cfg Config) *TextCompletion {
	return &TextCompletion{inner: svc, policy: newPolicy("text-completion", cfg)}
}

// Complete calls the wrapped service under the configured policies.
func (t *TextCompletion) Complete(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error) {
	return t.policy.execute(ctx, func(ctx context.Context) (string, error) {
		return t.inner.Complete(ctx, prompt, settings)
	})
}

// ChatCompletion is a resilient ai.ChatCompletionService. It also satisfies
// ai.TextCompletionService so chat registrations can still fan out.
type ChatCompletion struct {
	inner  ai.ChatCompletionService
	policy *policy
}

var (
	_ ai.ChatCompletionService = (*ChatCompletion)(nil)
	_ ai.TextCompletionService = (*ChatCompletion)(nil)
)

// WrapChatCompletion wraps svc with the policies in cfg.
func WrapChatCompletion(svc ai.ChatCompletionService, cfg Config) *ChatCompletion {
	return &ChatCompletion{inner: svc, policy: newPolicy("chat-completion", cfg)}
}

// NewChat delegates to the wrapped service.
func (c *ChatCompletion) NewChat(instructions string) *ai.ChatHistory {
	return c.inner.NewChat(instructions)
}

// GenerateMessage calls the wrapped service under the configured policies.
func (c *ChatCompletion) GenerateMessage(ctx context.Context, history *ai.ChatHistory, settings *ai.CompletionSettings) (string, error) {
	return c.policy.execute(ctx, func(ctx context.Context) (string, error) {
		return c.inner.GenerateMessage(ctx, history, settings)
	})
}

// Complete sends prompt as a single user message.
func (c *ChatCompletion) Complete(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error) {
	if text, ok := c.inner.(ai.TextCompletionService); ok {
		return c.policy.execute(ctx, func(ctx context.Context) (string, error) {
			return text.Complete(ctx, prompt, settings)
		})
	}
	history := c.inner.NewChat("")
	history.AddUserMessage(prompt)
	return c.GenerateMessage(ctx, history, settings)
}
