package entity

import "github.com/google/uuid"

type AuditLog struct {
	BaseSimple
	BookingID *uuid.UUID `db:"booking_id"`
	Action    string     `db:"action"`
	Detail    string     `db:"detail"`
	Actor     string     `db:"actor"`
}
