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

const bookingColumns = `id, reference, retreat_id, room_id, guest_name, guest_email, guests_count,
	status, payment_state, total_amount, balance_due, currency, promo_code_id,
	customer_ref, instrument_ref, cancel_reason, waitlist_entry_id, trip_reminder_sent_on,
	created_at, updated_at`

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Booking, error)
	Count(ctx context.Context) (int64, error)

	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, cancelReason *string) error
	UpdatePaymentState(ctx context.Context, bookingID uuid.UUID, state entity.PaymentState, balanceDue int64) error
	UpdateRoom(ctx context.Context, bookingID uuid.UUID, roomID *uuid.UUID) error

	// Business queries for the reminder worker.
	FindTripReminderDue(ctx context.Context, startDate time.Time) ([]*entity.Booking, error)
	StampTripReminder(ctx context.Context, bookingID uuid.UUID, sentOn time.Time) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.RetreatID,
		&booking.RoomID,
		&booking.GuestName,
		&booking.GuestEmail,
		&booking.GuestsCount,
		&booking.Status,
		&booking.PaymentState,
		&booking.TotalAmount,
		&booking.BalanceDue,
		&booking.Currency,
		&booking.PromoCodeID,
		&booking.CustomerRef,
		&booking.InstrumentRef,
		&booking.CancelReason,
		&booking.WaitlistEntryID,
		&booking.TripReminderSentOn,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.RetreatID,
		booking.RoomID,
		booking.GuestName,
		booking.GuestEmail,
		booking.GuestsCount,
		booking.Status,
		booking.PaymentState,
		booking.TotalAmount,
		booking.BalanceDue,
		booking.Currency,
		booking.PromoCodeID,
		booking.CustomerRef,
		booking.InstrumentRef,
		booking.CancelReason,
		booking.WaitlistEntryID,
		booking.TripReminderSentOn,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("retreat_id", booking.RetreatID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find booking by reference %s: %w", reference, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to list bookings",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings`

	var count int64
	err := r.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, cancelReason *string) error {
	query := `UPDATE bookings SET status = $2, cancel_reason = $3, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, status, cancelReason)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

func (r *bookingRepository) UpdatePaymentState(ctx context.Context, bookingID uuid.UUID, state entity.PaymentState, balanceDue int64) error {
	query := `UPDATE bookings SET payment_state = $2, balance_due = $3, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, state, balanceDue)
	if err != nil {
		r.log.Error("Failed to update booking payment state",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_state", string(state)),
		)
		return fmt.Errorf("update booking %s payment state to %s: %w", bookingID.String(), string(state), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

func (r *bookingRepository) UpdateRoom(ctx context.Context, bookingID uuid.UUID, roomID *uuid.UUID) error {
	query := `UPDATE bookings SET room_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, roomID)
	if err != nil {
		r.log.Error("Failed to update booking room",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("update booking %s room: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

func (r *bookingRepository) FindTripReminderDue(ctx context.Context, startDate time.Time) ([]*entity.Booking, error) {
	// Confirmed bookings whose retreat starts exactly on the given date and
	// that have not been reminded yet.
	query := `
		SELECT ` + bookingColumnsPrefixed("b") + `
		FROM bookings b
		JOIN retreats r ON r.id = b.retreat_id
		WHERE b.status = 'confirmed'
		  AND r.start_date::date = $1::date
		  AND b.trip_reminder_sent_on IS NULL
	`

	rows, err := r.db.Query(ctx, query, startDate)
	if err != nil {
		r.log.Error("Failed to find trip-reminder-due bookings", zap.Error(err))
		return nil, fmt.Errorf("find trip-reminder-due bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) StampTripReminder(ctx context.Context, bookingID uuid.UUID, sentOn time.Time) error {
	query := `UPDATE bookings SET trip_reminder_sent_on = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(ctx, query, bookingID, sentOn)
	if err != nil {
		r.log.Error("Failed to stamp trip reminder",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("stamp trip reminder for booking %s: %w", bookingID.String(), err)
	}

	return nil
}

func bookingColumnsPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.reference, ` + alias + `.retreat_id, ` + alias + `.room_id, ` +
		alias + `.guest_name, ` + alias + `.guest_email, ` + alias + `.guests_count, ` +
		alias + `.status, ` + alias + `.payment_state, ` + alias + `.total_amount, ` +
		alias + `.balance_due, ` + alias + `.currency, ` + alias + `.promo_code_id, ` +
		alias + `.customer_ref, ` + alias + `.instrument_ref, ` + alias + `.cancel_reason, ` +
		alias + `.waitlist_entry_id, ` + alias + `.trip_reminder_sent_on, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
