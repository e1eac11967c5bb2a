package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Timestamp: time.Now(),
	})
}

func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, SuccessResponse{
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", statusCode),
			slog.Any("error", err))
	}
}
