package entity

import (
	"time"

	"github.com/google/uuid"
)

type PromoCode struct {
	BaseNoDelete
	Code        string     `db:"code"`
	DiscountPct int        `db:"discount_pct"`
	MaxUses     int        `db:"max_uses"`
	UsageCount  int        `db:"usage_count"`
	ExpiresAt   *time.Time `db:"expires_at"`
}

// Usable reports whether the code may still be redeemed at the given time.
func (p *PromoCode) Usable(at time.Time) bool {
	if p.ExpiresAt != nil && at.After(*p.ExpiresAt) {
		return false
	}
	return p.MaxUses == 0 || p.UsageCount < p.MaxUses
}

// PromoCodeRedemption links a booking to the promo code it used. The row is
// hard-deleted on cancellation together with a usage-counter decrement.
type PromoCodeRedemption struct {
	BaseSimple
	BookingID   uuid.UUID `db:"booking_id"`
	PromoCodeID uuid.UUID `db:"promo_code_id"`
}
