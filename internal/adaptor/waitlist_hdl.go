package adaptor

import (
	"net/http"

	"retreat-booking/internal/dto/request"
	"retreat-booking/internal/usecase"
	"retreat-booking/pkg/utils"

	"go.uber.org/zap"
)

type WaitlistHandler struct {
	service usecase.WaitlistService
	log     *zap.Logger
}

func NewWaitlistHandler(service usecase.WaitlistService, log *zap.Logger) *WaitlistHandler {
	return &WaitlistHandler{
		service: service,
		log:     log.With(zap.String("handler", "waitlist")),
	}
}

func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinWaitlistRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Join(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseCreated(w, "Added to waitlist", resp)
}

func (h *WaitlistHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req request.WaitlistDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Accept(r.Context(), req.Token)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Offer accepted, complete your booking to keep the spot", resp)
}

func (h *WaitlistHandler) Decline(w http.ResponseWriter, r *http.Request) {
	var req request.WaitlistDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.Decline(r.Context(), req.Token); err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Offer declined", nil)
}
