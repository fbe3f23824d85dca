package adaptor

import (
	"net/http"

	"retreat-booking/internal/dto/request"
	"retreat-booking/internal/usecase"
	"retreat-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

func (h *BookingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req request.CheckoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseCreated(w, "Booking created", resp)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Booking detail", resp)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	page := utils.ParseInt(r.URL.Query().Get("page"), 1)
	limit := utils.ParseInt(r.URL.Query().Get("limit"), 20)

	resp, err := h.service.ListBookings(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Bookings", resp)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req request.CancelBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason, actorFrom(r)); err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", nil)
}

func (h *BookingHandler) Restore(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Restore(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Booking restored", resp)
}

func (h *BookingHandler) MoveRoom(w http.ResponseWriter, r *http.Request) {
	var req request.MoveRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.MoveRoom(r.Context(), chi.URLParam(r, "id"), req.NewRoomID, actorFrom(r)); err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Booking moved to new room", nil)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Complete(r.Context(), chi.URLParam(r, "id"), actorFrom(r)); err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "Booking completed", nil)
}
