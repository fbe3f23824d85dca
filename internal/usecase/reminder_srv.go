package usecase

import (
	"context"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/internal/data/repository"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"go.uber.org/zap"
)

// Reminder urgency buckets. A schedule row gets at most one reminder per
// bucket per day; moving into a more urgent bucket sends again.
const (
	BucketOverdue  = "overdue"
	BucketToday    = "today"
	BucketTomorrow = "tomorrow"
	BucketThreeDay = "3_days"
	BucketOneWeek  = "1_week"
	BucketTwoWeeks = "2_weeks"
	BucketNone     = "none"
)

const reminderWindowDays = 14
const tripReminderDays = 42

// ReminderBucket maps days-until-due to an urgency bucket.
func ReminderBucket(daysUntilDue int) string {
	switch {
	case daysUntilDue < 0:
		return BucketOverdue
	case daysUntilDue == 0:
		return BucketToday
	case daysUntilDue == 1:
		return BucketTomorrow
	case daysUntilDue <= 3:
		return BucketThreeDay
	case daysUntilDue <= 7:
		return BucketOneWeek
	case daysUntilDue <= reminderWindowDays:
		return BucketTwoWeeks
	default:
		return BucketNone
	}
}

type ReminderService interface {
	// RunPaymentReminders nudges guests about upcoming and overdue
	// installments, at most once per bucket per day.
	RunPaymentReminders(ctx context.Context) (int, error)

	// RunRetreatReminders sends the one-time heads-up for retreats starting
	// in exactly 42 days.
	RunRetreatReminders(ctx context.Context) (int, error)
}

type reminderService struct {
	repo   *repository.Repository
	notify notifier.Sender
	log    *zap.Logger
}

func NewReminderService(repo *repository.Repository, notify notifier.Sender, log *zap.Logger) ReminderService {
	return &reminderService{
		repo:   repo,
		notify: notify,
		log:    log.With(zap.String("service", "reminder")),
	}
}

func (s *reminderService) RunPaymentReminders(ctx context.Context) (int, error) {
	today := utils.DateOnly(time.Now())
	horizon := today.AddDate(0, 0, reminderWindowDays)

	rows, err := s.repo.PaymentSchedule.FindReminderCandidates(ctx, horizon)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, row := range rows {
		days := utils.DaysBetween(today, row.DueDate)
		bucket := ReminderBucket(days)
		if bucket == BucketNone {
			continue
		}

		// Same bucket already sent today means nothing new to say.
		if row.LastReminderBucket != nil && *row.LastReminderBucket == bucket &&
			row.LastReminderSentOn != nil && utils.DateOnly(*row.LastReminderSentOn).Equal(today) {
			continue
		}

		booking, err := s.repo.Booking.FindByID(ctx, row.BookingID)
		if err != nil || booking == nil {
			s.log.Error("Failed to load booking for reminder",
				zap.Error(err),
				zap.String("schedule_id", row.ID.String()),
			)
			continue
		}
		if booking.Status == entity.BookingStatusCancelled {
			continue
		}

		s.send(ctx, notifier.KindPaymentReminder, booking.GuestEmail, map[string]any{
			"booking_reference": booking.Reference,
			"amount":            utils.FormatAmount(row.Amount),
			"payment_number":    row.PaymentNumber,
			"due_date":          row.DueDate.Format("2006-01-02"),
			"urgency":           bucket,
			"days_until_due":    days,
		})

		if err := s.repo.PaymentSchedule.StampReminder(ctx, row.ID, bucket, today); err != nil {
			s.log.Error("Failed to stamp reminder",
				zap.Error(err),
				zap.String("schedule_id", row.ID.String()),
			)
			continue
		}
		sent++
	}

	s.log.Info("Payment reminder run finished",
		zap.Int("candidates", len(rows)),
		zap.Int("sent", sent),
	)

	return sent, nil
}

func (s *reminderService) RunRetreatReminders(ctx context.Context) (int, error) {
	today := utils.DateOnly(time.Now())
	target := today.AddDate(0, 0, tripReminderDays)

	bookings, err := s.repo.Booking.FindTripReminderDue(ctx, target)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, booking := range bookings {
		retreat, err := s.repo.Retreat.FindByID(ctx, booking.RetreatID)
		if err != nil || retreat == nil {
			s.log.Error("Failed to load retreat for trip reminder",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
			continue
		}

		s.send(ctx, notifier.KindTripReminder, booking.GuestEmail, map[string]any{
			"booking_reference": booking.Reference,
			"retreat_name":      retreat.Name,
			"location":          retreat.Location,
			"start_date":        retreat.StartDate.Format("2006-01-02"),
			"days_until":        tripReminderDays,
		})

		if err := s.repo.Booking.StampTripReminder(ctx, booking.ID, today); err != nil {
			s.log.Error("Failed to stamp trip reminder",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
			continue
		}
		sent++
	}

	s.log.Info("Trip reminder run finished",
		zap.Int("candidates", len(bookings)),
		zap.Int("sent", sent),
	)

	return sent, nil
}

func (s *reminderService) send(ctx context.Context, kind notifier.Kind, recipient string, data map[string]any) {
	if err := s.notify.Send(ctx, kind, recipient, data); err != nil {
		s.log.Error("Failed to send notification",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("recipient", recipient),
		)
	}
}
