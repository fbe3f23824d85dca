package adaptor

import (
	"net/http"

	"retreat-booking/internal/dto/request"
	"retreat-booking/internal/usecase"
	"retreat-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Retry triggers an immediate charge attempt on a schedule row. With force
// the attempt ceiling is bypassed for a one-off manual run.
func (h *PaymentHandler) Retry(w http.ResponseWriter, r *http.Request) {
	var req request.RetryPaymentRequest
	if r.ContentLength > 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	if err := h.service.RetrySchedule(r.Context(), chi.URLParam(r, "id"), req.Force); err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Charge attempt completed", nil)
}
