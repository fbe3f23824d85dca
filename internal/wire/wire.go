// Package wire does manual dependency wiring: services over the repository,
// handlers over the services, and routes onto the chi router.
package wire

import (
	"retreat-booking/internal/data/repository"
	"retreat-booking/internal/usecase"
	"retreat-booking/pkg/gateway"
	"retreat-booking/pkg/middleware"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Services struct {
	Auth     usecase.AuthService
	Retreat  usecase.RetreatService
	Booking  usecase.BookingService
	Payment  usecase.PaymentService
	Waitlist usecase.WaitlistService
	Reminder usecase.ReminderService
}

// NewServices builds the service graph. The payment and waitlist services
// come first because checkout depends on both.
func NewServices(repo *repository.Repository, gw gateway.Client, notify notifier.Sender, tokens usecase.OfferTokenStore, config *utils.Config, log *zap.Logger) *Services {
	payment := usecase.NewPaymentService(repo, gw, notify, config, log)
	waitlist := usecase.NewWaitlistService(repo, notify, tokens, config, log)

	return &Services{
		Auth:     usecase.NewAuthService(repo, config, log),
		Retreat:  usecase.NewRetreatService(repo, log),
		Booking:  usecase.NewBookingService(repo, gw, notify, payment, waitlist, config, log),
		Payment:  payment,
		Waitlist: waitlist,
		Reminder: usecase.NewReminderService(repo, notify, log),
	}
}

// NewRouter assembles the HTTP surface. Public routes cover the storefront
// flows; /api/admin is gated by session auth plus the admin role.
func NewRouter(repo *repository.Repository, services *Services, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recover(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS())

	authWiring(r, services.Auth, log)
	retreatWiring(r, services.Retreat, log)
	bookingWiring(r, repo, services, log)
	waitlistWiring(r, services.Waitlist, log)

	return r
}
