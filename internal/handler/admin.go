package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"portfolio-rate-limiter/pkg/response"
)

type LoginRequest struct {
	Password string `json:"password"`
}

type AdminHandler struct {
	password []byte
	logger   *slog.Logger
}

func NewAdminHandler(password string, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{password: []byte(password), logger: logger}
}

// @Summary Login administrativo
// @Description Verifica a senha administrativa. Protegido pela política strict.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credenciais"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 429 {object} response.RateLimitBody
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/admin/login [post]
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if len(h.password) == 0 {
		response.WriteError(w, http.StatusServiceUnavailable, "admin login is not configured")
		return
	}

	var req LoginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), h.password) != 1 {
		h.logger.Warn("admin login failed", slog.String("path", r.URL.Path))
		response.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.logger.Info("admin login succeeded")
	response.WriteSuccess(w, http.StatusOK, "Login successful", nil)
}
