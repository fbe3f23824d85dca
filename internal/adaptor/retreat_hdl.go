package adaptor

import (
	"net/http"

	"retreat-booking/internal/usecase"
	"retreat-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RetreatHandler struct {
	service usecase.RetreatService
	log     *zap.Logger
}

func NewRetreatHandler(service usecase.RetreatService, log *zap.Logger) *RetreatHandler {
	return &RetreatHandler{
		service: service,
		log:     log.With(zap.String("handler", "retreat")),
	}
}

func (h *RetreatHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListUpcoming(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Upcoming retreats", resp)
}

func (h *RetreatHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetRetreat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Retreat detail", resp)
}
