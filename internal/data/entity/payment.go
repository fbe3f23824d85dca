package entity

import (
	"github.com/google/uuid"
)

// Payment is the record of a settled gateway charge.
type Payment struct {
	BaseSimple
	BookingID       uuid.UUID `db:"booking_id"`
	ScheduleID      uuid.UUID `db:"schedule_id"`
	Amount          int64     `db:"amount"`
	Currency        string    `db:"currency"`
	GatewayChargeID string    `db:"gateway_charge_id"`
}
