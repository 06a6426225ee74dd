package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bus-pricing/internal/apperror"
)

// Подписи ошибок в ответе
const (
	errValidationFailed = "Validation failed"
	errValidation       = "Validation error"
	errUnexpected       = "Unexpected error"
	errMethodNotAllowed = "Method not allowed"
	errInvalidBody      = "Invalid request body"
	errInvalidPath      = "Invalid path"
	errRateLimited      = "Rate limit exceeded"
)

const timestampLayout = "2006-01-02 15:04:05"

// maxBodyBytes ограничивает размер тела запроса
const maxBodyBytes = 1 << 16

// now подменяется в тестах
var now = time.Now

// ApiError представляет структуру ответа с ошибкой
type ApiError struct {
	Timestamp string                `json:"timestamp"`
	Status    int                   `json:"status"`
	Error     string                `json:"error"`
	Path      string                `json:"path"`
	Errors    []apperror.FieldError `json:"errors,omitempty"`
}

// writeJSONResponse отправляет JSON ответ
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse отправляет ответ с ошибкой
func writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, label string, fields []apperror.FieldError) {
	response := ApiError{
		Timestamp: now().Format(timestampLayout),
		Status:    statusCode,
		Error:     label,
		Path:      r.URL.Path,
		Errors:    fields,
	}
	writeJSONResponse(w, statusCode, response)
}

// decodeJSONBody читает тело запроса в dst
func decodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("empty body")
	}
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

// extractNameFromPath извлекает имя (с URL-декодированием) из пути после prefix
func extractNameFromPath(path, prefix string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("invalid path format")
	}

	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return "", fmt.Errorf("missing name in path")
	}

	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid name encoding: %w", err)
	}
	return name, nil
}
