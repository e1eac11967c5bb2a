package limiter

import (
	"context"
	"log/slog"
	"time"
)

// FailurePolicy decide o veredito quando o armazenamento falha
type FailurePolicy int

const (
	// FailOpen admite a requisição quando o armazenamento está indisponível
	FailOpen FailurePolicy = iota
	// FailClosed nega a requisição quando o armazenamento está indisponível
	FailClosed
)

func (p FailurePolicy) String() string {
	if p == FailClosed {
		return "closed"
	}
	return "open"
}

type RateLimiter struct {
	store         Store
	clock         Clock
	metrics       Metrics
	logger        *slog.Logger
	failurePolicy FailurePolicy
}

type Option func(*RateLimiter)

func WithClock(clock Clock) Option {
	return func(rl *RateLimiter) {
		rl.clock = clock
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(rl *RateLimiter) {
		rl.metrics = metrics
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(rl *RateLimiter) {
		rl.failurePolicy = policy
	}
}

func NewRateLimiter(store Store, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		store:         store,
		clock:         SystemClock{},
		metrics:       NoopMetrics{},
		logger:        slog.Default(),
		failurePolicy: FailOpen,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

type Result struct {
	Key       string
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// Verifica se uma requisição para a chave é permitida pela política, usando o relógio do limiter
func (rl *RateLimiter) Check(ctx context.Context, key string, policy Policy) Result {
	return rl.CheckAt(ctx, key, policy, rl.clock.Now())
}

// CheckAt decide admitir ou negar em now. Falhas do armazenamento nunca chegam ao chamador:
// são convertidas em veredito pela FailurePolicy.
func (rl *RateLimiter) CheckAt(ctx context.Context, key string, policy Policy, now time.Time) Result {
	purpose := Purpose(key)

	entry, admitted, err := rl.store.Take(ctx, key, policy, now)
	if err != nil {
		rl.metrics.RecordStoreError(purpose)
		result := rl.onStoreFailure(key, policy, now)
		rl.logger.Warn("rate limit store failed",
			slog.String("key", key),
			slog.String("failure_policy", rl.failurePolicy.String()),
			slog.Bool("allowed", result.Allowed),
			slog.Any("error", err))
		rl.metrics.RecordDecision(purpose, result.Allowed)
		return result
	}

	result := Result{
		Key:     key,
		Allowed: admitted,
		ResetAt: entry.ResetAt,
		Limit:   policy.MaxRequests,
	}
	if admitted {
		result.Remaining = policy.MaxRequests - entry.Count
	}

	rl.metrics.RecordDecision(purpose, admitted)
	return result
}

func (rl *RateLimiter) onStoreFailure(key string, policy Policy, now time.Time) Result {
	result := Result{
		Key:     key,
		ResetAt: now.Add(policy.Interval),
		Limit:   policy.MaxRequests,
	}
	if rl.failurePolicy == FailOpen {
		result.Allowed = true
		result.Remaining = policy.MaxRequests
	}
	return result
}

func (rl *RateLimiter) Close() error {
	return rl.store.Close()
}
