package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Rule  string `json:"rule,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// errorStatus сопоставляет ошибку домена HTTP-ответу.
// Forbidden и NotFound дают одинаковый ответ, чтобы не раскрывать существование записи.
func errorStatus(err error) (int, errorResponse) {
	var (
		ve *model.ValidationError
		te *model.TransitionError
	)

	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "unauthenticated"}
	case model.IsHidden(err):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Field: ve.Field, Rule: ve.Rule}
	case errors.As(err, &te):
		return http.StatusConflict, errorResponse{Error: "invalid status transition", From: string(te.From), To: string(te.To)}
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, errorResponse{Error: "invalid status transition"}
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

// writeError логирует и отправляет ошибку клиенту
func (c *Controller) writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status, body := errorStatus(err)

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if p := PrincipalFrom(r.Context()); p != nil {
		fields = append(fields, zap.String("actor_id", p.ID.String()))
	}

	if status >= http.StatusInternalServerError {
		c.logger.Error("Operation failed", fields...)
	} else {
		c.logger.Debug("Operation refused", fields...)
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
