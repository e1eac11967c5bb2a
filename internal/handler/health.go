package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portfolio-rate-limiter/pkg/response"
)

// Pinger é implementado por armazenamentos remotos (ex.: Redis)
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandler cria o handler; store pode ser nil quando o armazenamento é em memória
func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{store: store, logger: logger, now: time.Now}
}

// @Summary Verificação de saúde
// @Description Verifica se o serviço está funcionando. O armazenamento degradado não derruba o serviço.
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	storeStatus := "memory"
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		storeStatus = "ok"
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("rate limit store ping failed", slog.Any("error", err))
			storeStatus = "degraded"
		}
	}

	response.WriteSuccess(w, http.StatusOK, "Service is healthy", map[string]interface{}{
		"status":    "ok",
		"store":     storeStatus,
		"timestamp": h.now(),
		"service":   "rate-limiter",
	})
}

// @Summary Recurso de exemplo
// @Description Retorna um recurso de leitura de baixo risco protegido pela política relaxed
// @Tags resource
// @Accept json
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 429 {object} response.RateLimitBody
// @Header 200 {string} X-RateLimit-Limit "Limite de requisições por janela"
// @Header 200 {string} X-RateLimit-Remaining "Requisições restantes na janela atual"
// @Header 200 {string} X-RateLimit-Reset "Fim da janela atual em milissegundos epoch"
// @Router /api/v1/resource [get]
func (h *HealthHandler) Resource(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, http.StatusOK, "Resource accessed successfully", map[string]interface{}{
		"resource":  "sample-resource",
		"timestamp": h.now(),
		"message":   "This is a sample resource for testing rate limiting",
	})
}
