package wire

import (
	"retreat-booking/internal/adaptor"
	"retreat-booking/internal/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func authWiring(r chi.Router, service usecase.AuthService, log *zap.Logger) {
	handler := adaptor.NewAuthHandler(service, log)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", handler.Login)
		r.Post("/logout", handler.Logout)
	})
}
