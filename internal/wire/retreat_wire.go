package wire

import (
	"retreat-booking/internal/adaptor"
	"retreat-booking/internal/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func retreatWiring(r chi.Router, service usecase.RetreatService, log *zap.Logger) {
	handler := adaptor.NewRetreatHandler(service, log)

	r.Route("/api/retreats", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/{id}", handler.Get)
	})
}
