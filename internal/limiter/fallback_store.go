package limiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// FallbackStore consulta o armazenamento primário através de um circuit breaker e recorre ao
// secundário (normalmente em memória) quando o primário falha ou o circuito está aberto.
//
// Com o secundário em memória cada processo passa a contar sozinho: o limite global fica mais
// fraco entre réplicas, mas as requisições continuam sendo atendidas.
type FallbackStore struct {
	primary   Store
	secondary Store
	breaker   *gobreaker.CircuitBreaker
	metrics   Metrics
	logger    *slog.Logger
}

var _ Store = (*FallbackStore)(nil)

// Marca falhas causadas pelo próprio chamador (contexto cancelado ou expirado antes do primário responder)
var errCallerGone = errors.New("caller context done")

type BreakerConfig struct {
	Name string
	// Máximo de requisições de teste no estado half-open
	MaxRequests uint32
	// Período em que as contagens do estado fechado são zeradas
	Interval time.Duration
	// Quanto tempo o circuito fica aberto antes de tentar novamente
	Timeout time.Duration
	// Falhas consecutivas para abrir o circuito
	ConsecutiveFailures uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "ratelimit-store",
		MaxRequests:         1,
		Interval:            30 * time.Second,
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
	}
}

func NewFallbackStore(primary, secondary Store, cfg BreakerConfig, metrics Metrics, logger *slog.Logger) *FallbackStore {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		// Cancelamento do chamador não diz nada sobre a saúde do primário
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		metrics:   metrics,
		logger:    logger,
	}
}

type takeResult struct {
	entry    Entry
	admitted bool
}

func (f *FallbackStore) Take(ctx context.Context, key string, policy Policy, now time.Time) (Entry, bool, error) {
	out, err := f.breaker.Execute(func() (interface{}, error) {
		entry, admitted, err := f.primary.Take(ctx, key, policy, now)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errCallerGone, err)
			}
			return nil, err
		}
		return takeResult{entry: entry, admitted: admitted}, nil
	})
	if err == nil {
		res := out.(takeResult)
		return res.entry, res.admitted, nil
	}

	// Circuito aberto não é uma nova falha do primário, apenas registra em debug
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		f.logger.Debug("primary store bypassed", slog.String("key", key), slog.Any("error", err))
	case errors.Is(err, errCallerGone):
		f.logger.Debug("request context done before primary store answered",
			slog.String("key", key),
			slog.Any("error", err))
	default:
		f.metrics.RecordStoreError(Purpose(key))
		f.logger.Warn("primary store failed, using fallback store",
			slog.String("key", key),
			slog.Any("error", err))
	}

	return f.secondary.Take(ctx, key, policy, now)
}

func (f *FallbackStore) State() gobreaker.State {
	return f.breaker.State()
}

func (f *FallbackStore) Close() error {
	return errors.Join(f.primary.Close(), f.secondary.Close())
}
