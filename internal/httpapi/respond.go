package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"EmotionalDiary/internal/domain"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// user-facing messages per error kind
const (
	msgDuplicate    = "Solo se permite una entrada de diario por día."
	msgBlank        = "El contenido del diario no puede estar vacío."
	msgNotFound     = "Entrada de diario no encontrada."
	msgForbidden    = "No tienes permiso para editar esta entrada."
	msgExternal     = "El servicio de análisis de IA no está disponible."
	msgInternal     = "Ocurrió un error inesperado en el servidor."
	msgUnauthorized = "Usuario no autenticado."
	msgRateLimited  = "Demasiadas solicitudes, inténtalo de nuevo en unos segundos."
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		Message:   message,
		Status:    status,
		Error:     http.StatusText(status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps an error kind onto its HTTP status and message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, msgBlank
	case errors.Is(err, domain.ErrDuplicateEntry):
		return http.StatusConflict, msgDuplicate
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, domain.ErrExternalService):
		return http.StatusServiceUnavailable, msgExternal
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeError(w, status, message)
}
