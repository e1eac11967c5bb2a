// Package sweeper libera periodicamente a memória ocupada por janelas expiradas.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolio-rate-limiter/internal/limiter"

	"github.com/robfig/cron/v3"
)

// Sweepable é o armazenamento que pode descartar entradas expiradas
type Sweepable interface {
	Sweep(now time.Time) int
	Len() int
}

type Sweeper struct {
	store    Sweepable
	interval time.Duration
	clock    limiter.Clock
	metrics  limiter.Metrics
	logger   *slog.Logger
	cron     *cron.Cron
}

type Option func(*Sweeper)

func WithClock(clock limiter.Clock) Option {
	return func(s *Sweeper) {
		s.clock = clock
	}
}

func WithMetrics(metrics limiter.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = metrics
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func New(store Sweepable, interval time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: interval,
		clock:    limiter.SystemClock{},
		metrics:  limiter.NoopMetrics{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start agenda a varredura a cada intervalo. Chamar Start duas vezes é um erro.
func (s *Sweeper) Start() error {
	if s.cron != nil {
		return fmt.Errorf("sweeper already started")
	}
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.interval)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("rate limit sweeper started", slog.Duration("interval", s.interval))
	return nil
}

// Stop interrompe o agendamento e espera a varredura em andamento ou o fim de ctx
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	done := s.cron.Stop()
	s.cron = nil

	select {
	case <-done.Done():
		s.logger.Info("rate limit sweeper stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for sweeper to stop: %w", ctx.Err())
	}
}

// RunOnce executa uma varredura e retorna quantas entradas foram removidas
func (s *Sweeper) RunOnce() int {
	removed := s.store.Sweep(s.clock.Now())
	active := s.store.Len()

	s.metrics.RecordSweep(removed, active)
	s.logger.Debug("rate limit sweep finished",
		slog.Int("removed", removed),
		slog.Int("active_keys", active))

	return removed
}
