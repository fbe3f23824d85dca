package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentState string

const (
	PaymentStateUnpaid  PaymentState = "unpaid"
	PaymentStatePartial PaymentState = "partial"
	PaymentStatePaid    PaymentState = "paid"
)

// bookingTransitions is the full set of legal status edges. Anything not
// listed here is rejected, including cancelled -> confirmed. The admin
// restore path (cancelled -> pending) is a deliberate escape hatch handled
// outside this table.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// CanTransitionTo reports whether the edge s -> next is in the transition table.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	BaseNoDelete
	Reference          string        `db:"reference"`
	RetreatID          uuid.UUID     `db:"retreat_id"`
	RoomID             *uuid.UUID    `db:"room_id"`
	GuestName          string        `db:"guest_name"`
	GuestEmail         string        `db:"guest_email"`
	GuestsCount        int           `db:"guests_count"`
	Status             BookingStatus `db:"status"`
	PaymentState       PaymentState  `db:"payment_state"`
	TotalAmount        int64         `db:"total_amount"`
	BalanceDue         int64         `db:"balance_due"`
	Currency           string        `db:"currency"`
	PromoCodeID        *uuid.UUID    `db:"promo_code_id"`
	CustomerRef        *string       `db:"customer_ref"`
	InstrumentRef      *string       `db:"instrument_ref"`
	CancelReason       *string       `db:"cancel_reason"`
	WaitlistEntryID    *uuid.UUID    `db:"waitlist_entry_id"`
	TripReminderSentOn *time.Time    `db:"trip_reminder_sent_on"`
}

// CanConfirm guards the pending -> confirmed edge: a booking must have at
// least one settled installment before it is confirmed.
func (b *Booking) CanConfirm() bool {
	return b.Status.CanTransitionTo(BookingStatusConfirmed) && b.PaymentState != PaymentStateUnpaid
}

// HasInstrument reports whether an off-session charge can be attempted.
func (b *Booking) HasInstrument() bool {
	return b.CustomerRef != nil && *b.CustomerRef != "" &&
		b.InstrumentRef != nil && *b.InstrumentRef != ""
}
