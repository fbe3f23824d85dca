package repository

import (
	"retreat-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User            UserRepository
	Session         SessionRepository
	Retreat         RetreatRepository
	Room            RoomRepository
	Booking         BookingRepository
	PaymentSchedule PaymentScheduleRepository
	Payment         PaymentRepository
	Waitlist        WaitlistRepository
	PromoCode       PromoCodeRepository
	Audit           AuditRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:            NewUserRepository(db, log),
		Session:         NewSessionRepository(db, log),
		Retreat:         NewRetreatRepository(db, log),
		Room:            NewRoomRepository(db, log),
		Booking:         NewBookingRepository(db, log),
		PaymentSchedule: NewPaymentScheduleRepository(db, log),
		Payment:         NewPaymentRepository(db, log),
		Waitlist:        NewWaitlistRepository(db, log),
		PromoCode:       NewPromoCodeRepository(db, log),
		Audit:           NewAuditRepository(db, log),
	}
}
