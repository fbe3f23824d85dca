package entity

import (
	"time"

	"github.com/google/uuid"
)

type WaitlistStatus string

const (
	WaitlistStatusWaiting  WaitlistStatus = "waiting"
	WaitlistStatusNotified WaitlistStatus = "notified"
	WaitlistStatusAccepted WaitlistStatus = "accepted"
	WaitlistStatusDeclined WaitlistStatus = "declined"
	WaitlistStatusExpired  WaitlistStatus = "expired"
	WaitlistStatusBooked   WaitlistStatus = "booked"
)

// At most one entry per (retreat, room) may be notified at a time; the offer
// is exclusive until accepted, declined, or expired.
var waitlistTransitions = map[WaitlistStatus][]WaitlistStatus{
	WaitlistStatusWaiting:  {WaitlistStatusNotified},
	WaitlistStatusNotified: {WaitlistStatusAccepted, WaitlistStatusDeclined, WaitlistStatusExpired},
	WaitlistStatusAccepted: {WaitlistStatusBooked},
	WaitlistStatusDeclined: {},
	WaitlistStatusExpired:  {},
	WaitlistStatusBooked:   {},
}

func (s WaitlistStatus) CanTransitionTo(next WaitlistStatus) bool {
	for _, allowed := range waitlistTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type WaitlistEntry struct {
	BaseNoDelete
	RetreatID             uuid.UUID      `db:"retreat_id"`
	RoomID                *uuid.UUID     `db:"room_id"`
	GuestName             string         `db:"guest_name"`
	GuestEmail            string         `db:"guest_email"`
	GuestsCount           int            `db:"guests_count"`
	Position              int            `db:"position"`
	Status                WaitlistStatus `db:"status"`
	NotificationExpiresAt *time.Time     `db:"notification_expires_at"`
}

// OfferExpired reports whether a notified entry's hold window has lapsed.
func (w *WaitlistEntry) OfferExpired(now time.Time) bool {
	return w.Status == WaitlistStatusNotified &&
		w.NotificationExpiresAt != nil &&
		now.After(*w.NotificationExpiresAt)
}
