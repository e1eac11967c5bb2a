package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"portfolio-rate-limiter/internal/limiter"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// O corpo do 429 é um formato fixo para os clientes: a ordem dos campos importa
type RateLimitBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

type RateLimitResponse struct {
	Status  int
	Body    RateLimitBody
	Headers map[string]string
}

// RetryAfterSeconds arredonda para cima o tempo até resetAt em segundos inteiros, nunca menos que 1
func RetryAfterSeconds(resetAt, now time.Time) int {
	wait := resetAt.Sub(now)
	if wait <= 0 {
		return 1
	}
	return int((wait + time.Second - 1) / time.Second)
}

// Monta a resposta 429 para um resultado negado. acceptLanguage escolhe o idioma da mensagem.
func NewRateLimitResponse(result limiter.Result, now time.Time, acceptLanguage string) RateLimitResponse {
	retryAfter := RetryAfterSeconds(result.ResetAt, now)

	return RateLimitResponse{
		Status: http.StatusTooManyRequests,
		Body: RateLimitBody{
			Error:      "Too Many Requests",
			Message:    RateLimitMessage(acceptLanguage),
			RetryAfter: retryAfter,
		},
		Headers: map[string]string{
			HeaderLimit:      strconv.Itoa(result.Limit),
			HeaderRemaining:  strconv.Itoa(result.Remaining),
			HeaderReset:      strconv.FormatInt(result.ResetAt.UnixMilli(), 10),
			HeaderRetryAfter: strconv.Itoa(retryAfter),
		},
	}
}

// Escreve o 429 com os headers de cota e o corpo JSON sem newline final
func WriteRateLimitError(w http.ResponseWriter, result limiter.Result, now time.Time, acceptLanguage string) {
	resp := NewRateLimitResponse(result, now, acceptLanguage)

	body, err := json.Marshal(resp.Body)
	if err != nil {
		slog.Default().Error("failed to encode rate limit response", slog.Any("error", err))
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(body)
}

// Headers de cota para requisições admitidas
func SetRateLimitHeaders(w http.ResponseWriter, result limiter.Result) {
	w.Header().Set(HeaderLimit, strconv.Itoa(result.Limit))
	w.Header().Set(HeaderRemaining, strconv.Itoa(result.Remaining))
	w.Header().Set(HeaderReset, strconv.FormatInt(result.ResetAt.UnixMilli(), 10))
}
