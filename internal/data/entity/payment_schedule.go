package entity

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	ScheduleStatusPending    ScheduleStatus = "pending"
	ScheduleStatusProcessing ScheduleStatus = "processing"
	ScheduleStatusPaid       ScheduleStatus = "paid"
	ScheduleStatusFailed     ScheduleStatus = "failed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

// scheduleTransitions lists the legal installment status edges. paid is
// terminal: a settled installment never moves again. cancelled -> pending
// exists only for the admin booking-restore path.
var scheduleTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleStatusPending:    {ScheduleStatusProcessing, ScheduleStatusFailed, ScheduleStatusCancelled},
	ScheduleStatusProcessing: {ScheduleStatusPaid, ScheduleStatusFailed, ScheduleStatusPending},
	ScheduleStatusFailed:     {ScheduleStatusProcessing, ScheduleStatusPending, ScheduleStatusCancelled},
	ScheduleStatusPaid:       {},
	ScheduleStatusCancelled:  {ScheduleStatusPending},
}

func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	for _, allowed := range scheduleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentSchedule is one installment of a booking's payment plan.
// payment_number is 1-indexed and unique per booking; the first installment
// is captured synchronously at checkout, later ones by the charge worker.
type PaymentSchedule struct {
	BaseNoDelete
	BookingID          uuid.UUID      `db:"booking_id"`
	PaymentNumber      int            `db:"payment_number"`
	Label              string         `db:"label"`
	Amount             int64          `db:"amount"`
	DueDate            time.Time      `db:"due_date"`
	Status             ScheduleStatus `db:"status"`
	Attempts           int            `db:"attempts"`
	MaxAttempts        int            `db:"max_attempts"`
	FailureReason      *string        `db:"failure_reason"`
	NextRetryAt        *time.Time     `db:"next_retry_at"`
	LastAttemptAt      *time.Time     `db:"last_attempt_at"`
	PaidAt             *time.Time     `db:"paid_at"`
	LastReminderBucket *string        `db:"last_reminder_bucket"`
	LastReminderSentOn *time.Time     `db:"last_reminder_sent_on"`
}

// AttemptsExhausted reports whether the worker may no longer retry this row.
func (p *PaymentSchedule) AttemptsExhausted() bool {
	return p.Attempts >= p.MaxAttempts
}
