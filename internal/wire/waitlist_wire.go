package wire

import (
	"retreat-booking/internal/adaptor"
	"retreat-booking/internal/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func waitlistWiring(r chi.Router, service usecase.WaitlistService, log *zap.Logger) {
	handler := adaptor.NewWaitlistHandler(service, log)

	r.Route("/api/waitlist", func(r chi.Router) {
		r.Post("/", handler.Join)
		r.Post("/accept", handler.Accept)
		r.Post("/decline", handler.Decline)
	})
}
