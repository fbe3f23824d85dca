package repository

import (
	"context"
	"fmt"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const scheduleColumns = `id, booking_id, payment_number, label, amount, due_date, status,
	attempts, max_attempts, failure_reason, next_retry_at, last_attempt_at, paid_at,
	last_reminder_bucket, last_reminder_sent_on, created_at, updated_at`

type PaymentScheduleRepository interface {
	CreateBatch(ctx context.Context, schedules []*entity.PaymentSchedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentSchedule, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentSchedule, error)

	// Worker queries. FindDue returns pending rows past their due date,
	// excluding the first installment (captured at checkout). FindRetryEligible
	// is the explicit re-query of failed rows that still have attempts left.
	FindDue(ctx context.Context, asOf time.Time) ([]*entity.PaymentSchedule, error)
	FindRetryEligible(ctx context.Context, asOf time.Time) ([]*entity.PaymentSchedule, error)

	// ClaimProcessing flips a row from the given status to processing in a
	// single conditional update. A false return means another worker run (or
	// an admin retry) owns the row right now.
	ClaimProcessing(ctx context.Context, id uuid.UUID, from entity.ScheduleStatus, at time.Time) (bool, error)

	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, attempts int, nextRetryAt *time.Time) error
	RevertToPending(ctx context.Context, id uuid.UUID, reason string) error
	CancelOpen(ctx context.Context, bookingID uuid.UUID, reason string) (int64, error)
	ResetForRestore(ctx context.Context, id uuid.UUID, dueDate time.Time) error

	// ReclaimStaleProcessing recovers rows stuck in processing after a worker
	// crash mid-attempt.
	ReclaimStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)

	// Reminder support.
	FindReminderCandidates(ctx context.Context, dueBefore time.Time) ([]*entity.PaymentSchedule, error)
	StampReminder(ctx context.Context, id uuid.UUID, bucket string, sentOn time.Time) error
}

type paymentScheduleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentScheduleRepository(db database.PgxIface, log *zap.Logger) PaymentScheduleRepository {
	return &paymentScheduleRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_schedule")),
	}
}

func scanSchedule(row pgx.Row) (*entity.PaymentSchedule, error) {
	var s entity.PaymentSchedule
	err := row.Scan(
		&s.ID,
		&s.BookingID,
		&s.PaymentNumber,
		&s.Label,
		&s.Amount,
		&s.DueDate,
		&s.Status,
		&s.Attempts,
		&s.MaxAttempts,
		&s.FailureReason,
		&s.NextRetryAt,
		&s.LastAttemptAt,
		&s.PaidAt,
		&s.LastReminderBucket,
		&s.LastReminderSentOn,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *paymentScheduleRepository) CreateBatch(ctx context.Context, schedules []*entity.PaymentSchedule) error {
	query := `
		INSERT INTO payment_schedules (id, booking_id, payment_number, label, amount, due_date,
		                               status, attempts, max_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, s := range schedules {
		_, err := r.db.Exec(ctx, query,
			s.ID,
			s.BookingID,
			s.PaymentNumber,
			s.Label,
			s.Amount,
			s.DueDate,
			s.Status,
			s.Attempts,
			s.MaxAttempts,
			s.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create payment schedule",
				zap.Error(err),
				zap.String("booking_id", s.BookingID.String()),
				zap.Int("payment_number", s.PaymentNumber),
			)
			return fmt.Errorf("create payment schedule %d for booking %s: %w",
				s.PaymentNumber, s.BookingID.String(), err)
		}
	}

	return nil
}

func (r *paymentScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM payment_schedules WHERE id = $1`

	schedule, err := scanSchedule(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment schedule by ID",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("find payment schedule by ID %s: %w", id.String(), err)
	}

	return schedule, nil
}

func (r *paymentScheduleRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE booking_id = $1
		ORDER BY payment_number
	`

	return r.queryMany(ctx, query, bookingID)
}

func (r *paymentScheduleRepository) FindDue(ctx context.Context, asOf time.Time) ([]*entity.PaymentSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE status = 'pending' AND due_date <= $1 AND payment_number > 1
		ORDER BY booking_id, payment_number
	`

	return r.queryMany(ctx, query, asOf)
}

func (r *paymentScheduleRepository) FindRetryEligible(ctx context.Context, asOf time.Time) ([]*entity.PaymentSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE status = 'failed' AND attempts < max_attempts
		  AND next_retry_at IS NOT NULL AND next_retry_at <= $1
		ORDER BY booking_id, payment_number
	`

	return r.queryMany(ctx, query, asOf)
}

func (r *paymentScheduleRepository) ClaimProcessing(ctx context.Context, id uuid.UUID, from entity.ScheduleStatus, at time.Time) (bool, error) {
	query := `
		UPDATE payment_schedules
		SET status = 'processing', last_attempt_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, at)
	if err != nil {
		r.log.Error("Failed to claim payment schedule",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
			zap.String("from_status", string(from)),
		)
		return false, fmt.Errorf("claim payment schedule %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentScheduleRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	// Only a processing row may settle; paid is terminal.
	query := `
		UPDATE payment_schedules
		SET status = 'paid', paid_at = $2, failure_reason = NULL, next_retry_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`

	result, err := r.db.Exec(ctx, query, id, paidAt)
	if err != nil {
		r.log.Error("Failed to mark payment schedule paid",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("mark payment schedule %s paid: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment schedule %s not in processing state", id.String())
	}

	return nil
}

func (r *paymentScheduleRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, attempts int, nextRetryAt *time.Time) error {
	query := `
		UPDATE payment_schedules
		SET status = 'failed', failure_reason = $2, attempts = $3, next_retry_at = $4, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing', 'failed')
	`

	result, err := r.db.Exec(ctx, query, id, reason, attempts, nextRetryAt)
	if err != nil {
		r.log.Error("Failed to mark payment schedule failed",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
			zap.String("reason", reason),
		)
		return fmt.Errorf("mark payment schedule %s failed: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment schedule %s not in a failable state", id.String())
	}

	return nil
}

func (r *paymentScheduleRepository) RevertToPending(ctx context.Context, id uuid.UUID, reason string) error {
	// Used when the gateway needs the customer present (e.g. strong
	// authentication): the attempt is not counted against the row.
	query := `
		UPDATE payment_schedules
		SET status = 'pending', failure_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`

	result, err := r.db.Exec(ctx, query, id, reason)
	if err != nil {
		r.log.Error("Failed to revert payment schedule to pending",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("revert payment schedule %s to pending: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment schedule %s not in processing state", id.String())
	}

	return nil
}

func (r *paymentScheduleRepository) CancelOpen(ctx context.Context, bookingID uuid.UUID, reason string) (int64, error) {
	query := `
		UPDATE payment_schedules
		SET status = 'cancelled', failure_reason = $2, next_retry_at = NULL, updated_at = NOW()
		WHERE booking_id = $1 AND status IN ('pending', 'processing', 'failed')
	`

	result, err := r.db.Exec(ctx, query, bookingID, reason)
	if err != nil {
		r.log.Error("Failed to cancel open payment schedules",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("cancel open payment schedules for booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *paymentScheduleRepository) ResetForRestore(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	query := `
		UPDATE payment_schedules
		SET status = 'pending', due_date = $2, attempts = 0,
		    failure_reason = NULL, next_retry_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status IN ('cancelled', 'failed')
	`

	result, err := r.db.Exec(ctx, query, id, dueDate)
	if err != nil {
		r.log.Error("Failed to reset payment schedule",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("reset payment schedule %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment schedule %s not in a resettable state", id.String())
	}

	return nil
}

func (r *paymentScheduleRepository) ReclaimStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE payment_schedules
		SET status = 'pending', failure_reason = 'reclaimed from stale processing', updated_at = NOW()
		WHERE status = 'processing' AND last_attempt_at < $1
	`

	result, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		r.log.Error("Failed to reclaim stale processing schedules", zap.Error(err))
		return 0, fmt.Errorf("reclaim stale processing schedules: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *paymentScheduleRepository) FindReminderCandidates(ctx context.Context, dueBefore time.Time) ([]*entity.PaymentSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE status = 'pending' AND due_date <= $1
		ORDER BY due_date, booking_id
	`

	return r.queryMany(ctx, query, dueBefore)
}

func (r *paymentScheduleRepository) StampReminder(ctx context.Context, id uuid.UUID, bucket string, sentOn time.Time) error {
	query := `
		UPDATE payment_schedules
		SET last_reminder_bucket = $2, last_reminder_sent_on = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, bucket, sentOn)
	if err != nil {
		r.log.Error("Failed to stamp reminder",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
			zap.String("bucket", bucket),
		)
		return fmt.Errorf("stamp reminder for payment schedule %s: %w", id.String(), err)
	}

	return nil
}

func (r *paymentScheduleRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.PaymentSchedule, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query payment schedules", zap.Error(err))
		return nil, fmt.Errorf("query payment schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*entity.PaymentSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			r.log.Error("Failed to scan payment schedule row", zap.Error(err))
			return nil, fmt.Errorf("scan payment schedule row: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, nil
}
