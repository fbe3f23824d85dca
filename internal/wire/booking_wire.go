package wire

import (
	"retreat-booking/internal/adaptor"
	"retreat-booking/internal/data/repository"
	"retreat-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func bookingWiring(r chi.Router, repo *repository.Repository, services *Services, log *zap.Logger) {
	bookingHandler := adaptor.NewBookingHandler(services.Booking, log)
	paymentHandler := adaptor.NewPaymentHandler(services.Payment, log)

	// Public storefront surface.
	r.Route("/api/bookings", func(r chi.Router) {
		r.Post("/", bookingHandler.Checkout)
		r.Get("/{id}", bookingHandler.Get)
	})

	// Admin console surface.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		r.Get("/bookings", bookingHandler.List)
		r.Get("/bookings/{id}", bookingHandler.Get)
		r.Post("/bookings/{id}/cancel", bookingHandler.Cancel)
		r.Post("/bookings/{id}/restore", bookingHandler.Restore)
		r.Post("/bookings/{id}/move-room", bookingHandler.MoveRoom)
		r.Post("/bookings/{id}/complete", bookingHandler.Complete)

		r.Post("/schedules/{id}/retry", paymentHandler.Retry)
	})
}
