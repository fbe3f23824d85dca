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

const waitlistColumns = `id, retreat_id, room_id, guest_name, guest_email, guests_count,
	position, status, notification_expires_at, created_at, updated_at`

type WaitlistRepository interface {
	Create(ctx context.Context, entry *entity.WaitlistEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.WaitlistEntry, error)

	// NextPosition returns the next FIFO position for the (retreat, room) queue.
	NextPosition(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) (int, error)

	// FindNextWaiting returns the lowest-position waiting entry for the queue.
	FindNextWaiting(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) (*entity.WaitlistEntry, error)

	// HasActiveOffer reports whether an un-expired notified entry holds the
	// queue's exclusive offer.
	HasActiveOffer(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID, now time.Time) (bool, error)

	// MarkNotified claims the offer with a conditional update from waiting;
	// false means the entry was taken or moved concurrently.
	MarkNotified(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.WaitlistStatus) (bool, error)
	FindExpiredOffers(ctx context.Context, now time.Time) ([]*entity.WaitlistEntry, error)
}

type waitlistRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWaitlistRepository(db database.PgxIface, log *zap.Logger) WaitlistRepository {
	return &waitlistRepository{
		db:  db,
		log: log.With(zap.String("repository", "waitlist")),
	}
}

func scanWaitlistEntry(row pgx.Row) (*entity.WaitlistEntry, error) {
	var entry entity.WaitlistEntry
	err := row.Scan(
		&entry.ID,
		&entry.RetreatID,
		&entry.RoomID,
		&entry.GuestName,
		&entry.GuestEmail,
		&entry.GuestsCount,
		&entry.Position,
		&entry.Status,
		&entry.NotificationExpiresAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) Create(ctx context.Context, entry *entity.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (` + waitlistColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.RetreatID,
		entry.RoomID,
		entry.GuestName,
		entry.GuestEmail,
		entry.GuestsCount,
		entry.Position,
		entry.Status,
		entry.NotificationExpiresAt,
		entry.CreatedAt,
		entry.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create waitlist entry",
			zap.Error(err),
			zap.String("retreat_id", entry.RetreatID.String()),
			zap.String("guest_email", entry.GuestEmail),
		)
		return fmt.Errorf("create waitlist entry for retreat %s: %w", entry.RetreatID.String(), err)
	}

	return nil
}

func (r *waitlistRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = $1`

	entry, err := scanWaitlistEntry(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find waitlist entry by ID",
			zap.Error(err),
			zap.String("entry_id", id.String()),
		)
		return nil, fmt.Errorf("find waitlist entry by ID %s: %w", id.String(), err)
	}

	return entry, nil
}

func (r *waitlistRepository) NextPosition(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(MAX(position), 0) + 1
		FROM waitlist_entries
		WHERE retreat_id = $1 AND room_id IS NOT DISTINCT FROM $2
	`

	var position int
	err := r.db.QueryRow(ctx, query, retreatID, roomID).Scan(&position)
	if err != nil {
		r.log.Error("Failed to compute next waitlist position",
			zap.Error(err),
			zap.String("retreat_id", retreatID.String()),
		)
		return 0, fmt.Errorf("next waitlist position for retreat %s: %w", retreatID.String(), err)
	}

	return position, nil
}

func (r *waitlistRepository) FindNextWaiting(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) (*entity.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE retreat_id = $1 AND room_id IS NOT DISTINCT FROM $2 AND status = 'waiting'
		ORDER BY position
		LIMIT 1
	`

	entry, err := scanWaitlistEntry(r.db.QueryRow(ctx, query, retreatID, roomID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find next waiting entry",
			zap.Error(err),
			zap.String("retreat_id", retreatID.String()),
		)
		return nil, fmt.Errorf("find next waiting entry for retreat %s: %w", retreatID.String(), err)
	}

	return entry, nil
}

func (r *waitlistRepository) HasActiveOffer(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID, now time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM waitlist_entries
		WHERE retreat_id = $1 AND room_id IS NOT DISTINCT FROM $2
		  AND status = 'notified' AND notification_expires_at > $3
	`

	var count int
	err := r.db.QueryRow(ctx, query, retreatID, roomID, now).Scan(&count)
	if err != nil {
		r.log.Error("Failed to check active waitlist offer",
			zap.Error(err),
			zap.String("retreat_id", retreatID.String()),
		)
		return false, fmt.Errorf("check active waitlist offer for retreat %s: %w", retreatID.String(), err)
	}

	return count > 0, nil
}

func (r *waitlistRepository) MarkNotified(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE waitlist_entries
		SET status = 'notified', notification_expires_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'waiting'
	`

	result, err := r.db.Exec(ctx, query, id, expiresAt)
	if err != nil {
		r.log.Error("Failed to mark waitlist entry notified",
			zap.Error(err),
			zap.String("entry_id", id.String()),
		)
		return false, fmt.Errorf("mark waitlist entry %s notified: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *waitlistRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.WaitlistStatus) (bool, error) {
	query := `
		UPDATE waitlist_entries
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update waitlist entry status",
			zap.Error(err),
			zap.String("entry_id", id.String()),
			zap.String("to_status", string(to)),
		)
		return false, fmt.Errorf("update waitlist entry %s status to %s: %w", id.String(), string(to), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *waitlistRepository) FindExpiredOffers(ctx context.Context, now time.Time) ([]*entity.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE status = 'notified' AND notification_expires_at <= $1
		ORDER BY notification_expires_at
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		r.log.Error("Failed to find expired waitlist offers", zap.Error(err))
		return nil, fmt.Errorf("find expired waitlist offers: %w", err)
	}
	defer rows.Close()

	var entries []*entity.WaitlistEntry
	for rows.Next() {
		entry, err := scanWaitlistEntry(rows)
		if err != nil {
			r.log.Error("Failed to scan waitlist entry row", zap.Error(err))
			return nil, fmt.Errorf("scan waitlist entry row: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
