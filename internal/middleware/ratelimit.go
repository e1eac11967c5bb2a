package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"portfolio-rate-limiter/internal/limiter"
	"portfolio-rate-limiter/pkg/response"
)

// Define um tipo personalizado para chaves de contexto
type contextKey string

const (
	rateLimitInfoKey contextKey = "rate_limit_info"
)

// Checker é o que o middleware precisa do limiter
type Checker interface {
	Check(ctx context.Context, key string, policy limiter.Policy) limiter.Result
}

// Cria um middleware de rate limiting para um propósito e política
func RateLimit(rateLimiter Checker, clock limiter.Clock, purpose string, policy limiter.Policy, logger *slog.Logger) func(http.Handler) http.Handler {
	if clock == nil {
		clock = limiter.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := Key(purpose, r.Header)

			result := rateLimiter.Check(ctx, key, policy)

			if !result.Allowed {
				logger.Info("request rate limited",
					slog.String("key", key),
					slog.String("path", r.URL.Path),
					slog.Int("limit", result.Limit))
				response.WriteRateLimitError(w, result, clock.Now(), r.Header.Get("Accept-Language"))
				return
			}

			response.SetRateLimitHeaders(w, result)

			// Adiciona informações de rate limit ao contexto para potencial uso por handlers
			ctx = context.WithValue(ctx, rateLimitInfoKey, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRateLimitInfo(ctx context.Context) (limiter.Result, bool) {
	info, ok := ctx.Value(rateLimitInfoKey).(limiter.Result)
	return info, ok
}
