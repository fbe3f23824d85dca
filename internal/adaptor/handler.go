// Package adaptor holds the HTTP handlers. Handlers decode and validate
// request DTOs, call a service, and translate errors to the JSON envelope.
package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"retreat-booking/internal/usecase"
	"retreat-booking/pkg/utils"

	"go.uber.org/zap"
)

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	if errs := utils.ValidateStruct(dst); errs != nil {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return false
	}
	return true
}

// handleServiceError maps service errors onto HTTP statuses: the capacity
// sentinel to 409, business-rule rejections to 400/404, everything else 500
// with the detail kept in the logs.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, usecase.ErrRoomUnavailable) {
		utils.ResponseConflict(w, "No capacity available for the requested room")
		return
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		utils.ResponseNotFound(w, msg)
	case strings.Contains(msg, "invalid"),
		strings.Contains(msg, "cannot"),
		strings.Contains(msg, "already"),
		strings.Contains(msg, "expired"),
		strings.Contains(msg, "exhausted"),
		strings.Contains(msg, "no longer"),
		strings.Contains(msg, "not accepted"),
		strings.Contains(msg, "no payment method"):
		utils.ResponseBadRequest(w, msg, nil)
	default:
		log.Error("Unhandled service error", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// actorFrom identifies the admin performing an operation for the audit trail.
func actorFrom(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return userID.String()
	}
	return "system"
}
