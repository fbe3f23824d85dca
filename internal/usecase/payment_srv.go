package usecase

import (
	"context"
	"fmt"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/internal/data/repository"
	"retreat-booking/pkg/gateway"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	// RunDueCharges is the recurring worker entry point: it attempts every
	// due installment (and every retry-eligible failed one) across all
	// bookings. One booking's failure never blocks another's.
	RunDueCharges(ctx context.Context) error

	// ReclaimStaleProcessing recovers rows a crashed worker left in
	// processing.
	ReclaimStaleProcessing(ctx context.Context) (int64, error)

	// ChargeInstallment captures a single pending installment synchronously;
	// checkout uses it for the first installment.
	ChargeInstallment(ctx context.Context, scheduleID uuid.UUID) error

	// RetrySchedule is the admin-triggered retry. force bypasses the
	// max-attempts ceiling for a one-off manual attempt.
	RetrySchedule(ctx context.Context, scheduleID string, force bool) error

	// RefreshBookingState recomputes a booking's aggregate payment state and
	// balance from its schedule rows. The restore path uses it after
	// resetting cancelled rows.
	RefreshBookingState(ctx context.Context, bookingID uuid.UUID) error
}

type paymentService struct {
	repo    *repository.Repository
	gateway gateway.Client
	notify  notifier.Sender
	config  *utils.Config
	log     *zap.Logger
}

func NewPaymentService(repo *repository.Repository, gw gateway.Client, notify notifier.Sender, config *utils.Config, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gw,
		notify:  notify,
		config:  config,
		log:     log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) RunDueCharges(ctx context.Context) error {
	now := time.Now()

	due, err := s.repo.PaymentSchedule.FindDue(ctx, now)
	if err != nil {
		return fmt.Errorf("find due payment schedules: %w", err)
	}

	retries, err := s.repo.PaymentSchedule.FindRetryEligible(ctx, now)
	if err != nil {
		return fmt.Errorf("find retry-eligible payment schedules: %w", err)
	}

	s.log.Info("Due charge run started",
		zap.Int("due", len(due)),
		zap.Int("retries", len(retries)),
	)

	processed, failed := 0, 0
	for _, sched := range due {
		if err := s.processScheduled(ctx, sched, entity.ScheduleStatusPending); err != nil {
			// Logged with context inside; keep going so one booking's
			// failure cannot block another's.
			failed++
			continue
		}
		processed++
	}
	for _, sched := range retries {
		if err := s.processScheduled(ctx, sched, entity.ScheduleStatusFailed); err != nil {
			failed++
			continue
		}
		processed++
	}

	s.log.Info("Due charge run finished",
		zap.Int("processed", processed),
		zap.Int("errors", failed),
	)

	return nil
}

// processScheduled handles one worker-discovered row: the no-instrument
// short-circuit, the processing claim, and the charge itself.
func (s *paymentService) processScheduled(ctx context.Context, sched *entity.PaymentSchedule, from entity.ScheduleStatus) error {
	booking, err := s.repo.Booking.FindByID(ctx, sched.BookingID)
	if err != nil || booking == nil {
		s.log.Error("Failed to load booking for due schedule",
			zap.Error(err),
			zap.String("schedule_id", sched.ID.String()),
			zap.String("booking_id", sched.BookingID.String()),
		)
		return fmt.Errorf("load booking %s: %w", sched.BookingID.String(), err)
	}

	if !booking.HasInstrument() {
		// No saved payment instrument means no retry surface at all; the
		// row goes straight to terminal failed for manual handling.
		if err := s.repo.PaymentSchedule.MarkFailed(ctx, sched.ID, "no payment method on file", sched.MaxAttempts, nil); err != nil {
			return err
		}
		s.log.Warn("Installment failed: no payment method on file",
			zap.String("schedule_id", sched.ID.String()),
			zap.String("booking_id", booking.ID.String()),
		)
		s.sendFailureNotification(ctx, booking, sched, "no payment method on file", 0)
		return nil
	}

	now := time.Now()
	claimed, err := s.repo.PaymentSchedule.ClaimProcessing(ctx, sched.ID, from, now)
	if err != nil {
		return err
	}
	if !claimed {
		// A concurrent run (or an admin retry) holds the row; skip.
		s.log.Debug("Installment already claimed, skipping",
			zap.String("schedule_id", sched.ID.String()),
		)
		return nil
	}

	// The attempt count in the key pins retried worker runs and network
	// timeouts to the same logical attempt, so the gateway deduplicates them.
	idemKey := fmt.Sprintf("%s:attempt:%d", sched.ID.String(), sched.Attempts)

	return s.attemptCharge(ctx, booking, sched, idemKey)
}

func (s *paymentService) ChargeInstallment(ctx context.Context, scheduleID uuid.UUID) error {
	sched, err := s.repo.PaymentSchedule.FindByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sched == nil {
		return fmt.Errorf("payment schedule %s not found", scheduleID.String())
	}

	booking, err := s.repo.Booking.FindByID(ctx, sched.BookingID)
	if err != nil || booking == nil {
		return fmt.Errorf("booking %s not found", sched.BookingID.String())
	}

	if !booking.HasInstrument() {
		return fmt.Errorf("booking %s has no payment method on file", booking.ID.String())
	}

	claimed, err := s.repo.PaymentSchedule.ClaimProcessing(ctx, sched.ID, entity.ScheduleStatusPending, time.Now())
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("payment schedule %s is not pending", sched.ID.String())
	}

	idemKey := fmt.Sprintf("%s:attempt:%d", sched.ID.String(), sched.Attempts)
	return s.attemptCharge(ctx, booking, sched, idemKey)
}

func (s *paymentService) RetrySchedule(ctx context.Context, scheduleID string, force bool) error {
	schedUUID, err := uuid.Parse(scheduleID)
	if err != nil {
		return fmt.Errorf("invalid schedule ID format %s: %w", scheduleID, err)
	}

	sched, err := s.repo.PaymentSchedule.FindByID(ctx, schedUUID)
	if err != nil {
		return err
	}
	if sched == nil {
		return fmt.Errorf("payment schedule %s not found", scheduleID)
	}

	switch sched.Status {
	case entity.ScheduleStatusPaid:
		return fmt.Errorf("cannot retry: installment %d is already paid", sched.PaymentNumber)
	case entity.ScheduleStatusCancelled:
		return fmt.Errorf("cannot retry: installment %d is cancelled", sched.PaymentNumber)
	case entity.ScheduleStatusProcessing:
		return fmt.Errorf("cannot retry: installment %d has an attempt in flight", sched.PaymentNumber)
	}

	if !force && sched.AttemptsExhausted() {
		return fmt.Errorf("cannot retry: installment %d exhausted its %d attempts", sched.PaymentNumber, sched.MaxAttempts)
	}

	booking, err := s.repo.Booking.FindByID(ctx, sched.BookingID)
	if err != nil || booking == nil {
		return fmt.Errorf("booking %s not found", sched.BookingID.String())
	}

	if !booking.HasInstrument() {
		return fmt.Errorf("booking %s has no payment method on file", booking.ID.String())
	}

	now := time.Now()
	claimed, err := s.repo.PaymentSchedule.ClaimProcessing(ctx, sched.ID, sched.Status, now)
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("payment schedule %s changed state, retry not started", sched.ID.String())
	}

	// The minute bucket absorbs a UI double-click as one logical attempt
	// while still letting a deliberate retry through moments later.
	idemKey := fmt.Sprintf("%s:attempt:%d:manual:%s",
		sched.ID.String(), sched.Attempts, now.Format("200601021504"))

	return s.attemptCharge(ctx, booking, sched, idemKey)
}

// attemptCharge runs one gateway charge for a row already claimed to
// processing and records the outcome.
func (s *paymentService) attemptCharge(ctx context.Context, booking *entity.Booking, sched *entity.PaymentSchedule, idemKey string) error {
	result, err := s.gateway.CreateCharge(ctx, gateway.ChargeRequest{
		CustomerRef:    *booking.CustomerRef,
		InstrumentRef:  *booking.InstrumentRef,
		Amount:         sched.Amount,
		Currency:       booking.Currency,
		IdempotencyKey: idemKey,
		Metadata: map[string]string{
			"booking_reference": booking.Reference,
			"schedule_id":       sched.ID.String(),
			"payment_number":    fmt.Sprintf("%d", sched.PaymentNumber),
		},
	})

	if err != nil {
		// Transport errors and gateway non-response count as a failed
		// attempt; a hung call is assumed to eventually error out.
		s.log.Error("Gateway charge errored",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("schedule_id", sched.ID.String()),
			zap.Int("attempt", sched.Attempts+1),
		)
		return s.recordFailure(ctx, booking, sched, err.Error())
	}

	switch result.Status {
	case gateway.ChargeStatusSucceeded:
		return s.recordSuccess(ctx, booking, sched, result.ID)

	case gateway.ChargeStatusRequiresAction:
		// Not the customer's fault the automated channel could not finish;
		// the attempt is not counted.
		if err := s.repo.PaymentSchedule.RevertToPending(ctx, sched.ID, "requires customer authentication"); err != nil {
			return err
		}
		s.log.Info("Installment needs customer action",
			zap.String("booking_id", booking.ID.String()),
			zap.String("schedule_id", sched.ID.String()),
		)
		s.send(ctx, notifier.KindPaymentActionRequired, booking.GuestEmail, map[string]any{
			"booking_reference": booking.Reference,
			"amount":            utils.FormatAmount(sched.Amount),
			"payment_number":    sched.PaymentNumber,
		})
		return nil

	default:
		reason := result.FailureReason
		if reason == "" {
			reason = "charge declined"
		}
		return s.recordFailure(ctx, booking, sched, reason)
	}
}

func (s *paymentService) recordSuccess(ctx context.Context, booking *entity.Booking, sched *entity.PaymentSchedule, chargeID string) error {
	now := time.Now()
	if err := s.repo.PaymentSchedule.MarkPaid(ctx, sched.ID, now); err != nil {
		return err
	}

	payment := &entity.Payment{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		BookingID:       booking.ID,
		ScheduleID:      sched.ID,
		Amount:          sched.Amount,
		Currency:        booking.Currency,
		GatewayChargeID: chargeID,
	}
	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		// The charge went through; a lost payment record is a bookkeeping
		// problem for manual investigation, not a reason to unwind.
		s.log.Error("Failed to record payment after successful charge",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("gateway_charge_id", chargeID),
		)
	}

	next, err := s.refreshBookingPaymentState(ctx, booking)
	if err != nil {
		s.log.Error("Failed to refresh booking payment state",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
	}

	s.log.Info("Installment paid",
		zap.String("booking_id", booking.ID.String()),
		zap.String("schedule_id", sched.ID.String()),
		zap.Int("payment_number", sched.PaymentNumber),
		zap.Int64("amount", sched.Amount),
	)

	data := map[string]any{
		"booking_reference": booking.Reference,
		"amount":            utils.FormatAmount(sched.Amount),
		"payment_number":    sched.PaymentNumber,
	}
	if next != nil {
		data["next_amount"] = utils.FormatAmount(next.Amount)
		data["next_due_date"] = next.DueDate.Format("2006-01-02")
	}
	s.send(ctx, notifier.KindPaymentConfirmed, booking.GuestEmail, data)

	return nil
}

func (s *paymentService) recordFailure(ctx context.Context, booking *entity.Booking, sched *entity.PaymentSchedule, reason string) error {
	attempts := sched.Attempts + 1

	var nextRetry *time.Time
	if attempts < sched.MaxAttempts {
		t := time.Now().Add(time.Duration(s.config.Payments.RetryDelayHours) * time.Hour)
		nextRetry = &t
	}

	if err := s.repo.PaymentSchedule.MarkFailed(ctx, sched.ID, reason, attempts, nextRetry); err != nil {
		return err
	}

	remaining := sched.MaxAttempts - attempts
	if remaining < 0 {
		remaining = 0
	}

	s.log.Warn("Installment charge failed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("schedule_id", sched.ID.String()),
		zap.Int("attempt", attempts),
		zap.Int("attempts_remaining", remaining),
		zap.String("reason", reason),
	)

	s.sendFailureNotification(ctx, booking, sched, reason, remaining)

	return fmt.Errorf("charge installment %d of booking %s: %s", sched.PaymentNumber, booking.Reference, reason)
}

func (s *paymentService) sendFailureNotification(ctx context.Context, booking *entity.Booking, sched *entity.PaymentSchedule, reason string, attemptsRemaining int) {
	data := map[string]any{
		"booking_reference":  booking.Reference,
		"amount":             utils.FormatAmount(sched.Amount),
		"payment_number":     sched.PaymentNumber,
		"reason":             reason,
		"attempts_remaining": attemptsRemaining,
	}

	retreat, err := s.repo.Retreat.FindByID(ctx, booking.RetreatID)
	if err == nil && retreat != nil {
		data["days_until_retreat"] = utils.DaysBetween(time.Now(), retreat.StartDate)
	}

	s.send(ctx, notifier.KindPaymentFailed, booking.GuestEmail, data)
}

// refreshBookingPaymentState recomputes the aggregate payment state and
// balance from the schedule rows, confirms a pending booking once money has
// landed, and returns the next pending installment if any.
func (s *paymentService) refreshBookingPaymentState(ctx context.Context, booking *entity.Booking) (*entity.PaymentSchedule, error) {
	schedules, err := s.repo.PaymentSchedule.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	var paidSum int64
	var next *entity.PaymentSchedule
	allPaid := len(schedules) > 0
	for _, row := range schedules {
		switch row.Status {
		case entity.ScheduleStatusPaid:
			paidSum += row.Amount
		case entity.ScheduleStatusCancelled:
			// Cancelled rows no longer count toward the plan.
		default:
			allPaid = false
			if row.Status == entity.ScheduleStatusPending && next == nil {
				next = row
			}
		}
	}

	state := entity.PaymentStateUnpaid
	if allPaid {
		state = entity.PaymentStatePaid
	} else if paidSum > 0 {
		state = entity.PaymentStatePartial
	}

	balance := booking.TotalAmount - paidSum
	if balance < 0 {
		balance = 0
	}

	if err := s.repo.Booking.UpdatePaymentState(ctx, booking.ID, state, balance); err != nil {
		return next, err
	}
	booking.PaymentState = state
	booking.BalanceDue = balance

	if booking.Status == entity.BookingStatusPending && booking.CanConfirm() {
		if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed, nil); err != nil {
			s.log.Error("Failed to confirm booking after payment",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
		} else {
			booking.Status = entity.BookingStatusConfirmed
			s.log.Info("Booking confirmed", zap.String("booking_id", booking.ID.String()))
		}
	}

	return next, nil
}

func (s *paymentService) RefreshBookingState(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	_, err = s.refreshBookingPaymentState(ctx, booking)
	return err
}

func (s *paymentService) ReclaimStaleProcessing(ctx context.Context) (int64, error) {
	threshold := time.Now().Add(-time.Duration(s.config.Payments.ProcessingStaleHours) * time.Hour)

	count, err := s.repo.PaymentSchedule.ReclaimStaleProcessing(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale processing rows: %w", err)
	}

	if count > 0 {
		s.log.Warn("Reclaimed stale processing installments", zap.Int64("count", count))
	}

	return count, nil
}

// send fires a notification and only logs on failure: a broken mailer must
// never undo a captured payment.
func (s *paymentService) send(ctx context.Context, kind notifier.Kind, recipient string, data map[string]any) {
	if err := s.notify.Send(ctx, kind, recipient, data); err != nil {
		s.log.Error("Failed to send notification",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("recipient", recipient),
		)
	}
}
