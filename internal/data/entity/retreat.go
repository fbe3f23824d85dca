package entity

import "time"

type Retreat struct {
	Base
	Name                 string     `db:"name"`
	Location             string     `db:"location"`
	Description          string     `db:"description"`
	StartDate            time.Time  `db:"start_date"`
	EndDate              time.Time  `db:"end_date"`
	BasePrice            int64      `db:"base_price"` // minor units per guest
	EarlyBirdDiscountPct int        `db:"early_bird_discount_pct"`
	EarlyBirdDeadline    *time.Time `db:"early_bird_deadline"`
}

// HasStarted reports whether the retreat start date has passed.
func (r *Retreat) HasStarted(now time.Time) bool {
	return !now.Before(r.StartDate)
}

// EarlyBirdEligible reports whether a booking made at the given time
// still falls inside the early-bird window.
func (r *Retreat) EarlyBirdEligible(at time.Time) bool {
	return r.EarlyBirdDeadline != nil && at.Before(*r.EarlyBirdDeadline)
}
