package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"portfolio-rate-limiter/pkg/response"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 64 << 10

// Mensagem fixa para corpos inválidos; o detalhe do decoder só vai para o log
var errInvalidBody = errors.New("invalid JSON body")

type ContactRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Message    string `json:"message" validate:"required,max=5000"`
	BetaTester bool   `json:"betaTester"`
}

type NewsletterRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// FormsHandler recebe os formulários públicos do portfólio. As submissões não são persistidas.
type FormsHandler struct {
	validate *validator.Validate
	logger   *slog.Logger
}

func NewFormsHandler(logger *slog.Logger) *FormsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormsHandler{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// @Summary Formulário de contato
// @Description Recebe uma mensagem de contato ou inscrição de beta tester
// @Tags forms
// @Accept json
// @Produce json
// @Param request body ContactRequest true "Dados do contato"
// @Success 202 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 429 {object} response.RateLimitBody
// @Router /api/v1/contact [post]
func (h *FormsHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := h.decode(w, r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// O corpo da mensagem não vai para o log
	h.logger.Info("contact form accepted",
		slog.String("email_domain", emailDomain(req.Email)),
		slog.Bool("beta_tester", req.BetaTester),
		slog.Int("message_length", len(req.Message)))

	response.WriteSuccess(w, http.StatusAccepted, "Message received", nil)
}

// @Summary Inscrição na newsletter
// @Description Inscreve um email na newsletter
// @Tags forms
// @Accept json
// @Produce json
// @Param request body NewsletterRequest true "Email para inscrição"
// @Success 202 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 429 {object} response.RateLimitBody
// @Router /api/v1/newsletter [post]
func (h *FormsHandler) Newsletter(w http.ResponseWriter, r *http.Request) {
	var req NewsletterRequest
	if err := h.decode(w, r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("newsletter signup accepted", slog.String("email_domain", emailDomain(req.Email)))

	response.WriteSuccess(w, http.StatusAccepted, "Subscription received", nil)
}

// decode lê o JSON do corpo e valida as tags do struct
func (h *FormsHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.Debug("request body rejected",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		return errInvalidBody
	}

	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return validationMessage(validationErrors)
		}
		h.logger.Debug("request validation failed", slog.Any("error", err))
		return errInvalidBody
	}
	return nil
}

func validationMessage(errs validator.ValidationErrors) error {
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(fields, "; "))
}

func emailDomain(email string) string {
	if _, domain, ok := strings.Cut(email, "@"); ok {
		return domain
	}
	return ""
}
