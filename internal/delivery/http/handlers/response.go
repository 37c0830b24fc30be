package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-payout-service/internal/delivery/http/dto"
	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, dto.ErrorResponse{Code: code, Message: message})
}

// respondDomainError переводит доменные ошибки в HTTP-статусы
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		RespondJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Code:    "validation",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})
	case errors.Is(err, domain.ErrValidation):
		RespondError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrStaleState):
		RespondError(w, http.StatusConflict, "stale_state", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		RespondError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		RespondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		RespondError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrLimitExceeded):
		RespondError(w, http.StatusTooManyRequests, "limit_exceeded", err.Error())
	case errors.Is(err, domain.ErrPayoutExpired):
		RespondError(w, http.StatusGone, "expired", err.Error())
	default:
		logger.Error("request failed", "error", err)
		RespondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
