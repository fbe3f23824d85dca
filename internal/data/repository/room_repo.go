package repository

import (
	"context"
	"fmt"

	"retreat-booking/internal/data/entity"
	"retreat-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// RoomRepository is the only mutation entry point for room availability.
// There is deliberately no SetAvailable: every change goes through the
// atomic conditional decrement or the unconditional increment, so concurrent
// bookings can never lose an update.
type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	FindByRetreatID(ctx context.Context, retreatID uuid.UUID) ([]*entity.Room, error)

	// TryDecrementAvailable reduces available by amount only if enough
	// capacity remains at the moment of the write. Returns false with no
	// mutation when the room is (concurrently) exhausted.
	TryDecrementAvailable(ctx context.Context, roomID uuid.UUID, amount int) (bool, error)

	// IncrementAvailable releases capacity unconditionally. It is not
	// clamped against the capacity ceiling; callers detect and log an
	// over-release instead of masking the upstream bug.
	IncrementAvailable(ctx context.Context, roomID uuid.UUID, amount int) error
}

type roomRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRoomRepository(db database.PgxIface, log *zap.Logger) RoomRepository {
	return &roomRepository{
		db:  db,
		log: log.With(zap.String("repository", "room")),
	}
}

func (r *roomRepository) Create(ctx context.Context, room *entity.Room) error {
	query := `
		INSERT INTO rooms (id, retreat_id, name, capacity, available, price_delta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		room.ID,
		room.RetreatID,
		room.Name,
		room.Capacity,
		room.Available,
		room.PriceDelta,
		room.CreatedAt,
		room.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create room",
			zap.Error(err),
			zap.String("retreat_id", room.RetreatID.String()),
			zap.String("name", room.Name),
		)
		return fmt.Errorf("create room %s: %w", room.Name, err)
	}

	return nil
}

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	query := `
		SELECT id, retreat_id, name, capacity, available, price_delta, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	var room entity.Room
	err := r.db.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.RetreatID,
		&room.Name,
		&room.Capacity,
		&room.Available,
		&room.PriceDelta,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room by ID",
			zap.Error(err),
			zap.String("room_id", id.String()),
		)
		return nil, fmt.Errorf("find room by ID %s: %w", id.String(), err)
	}

	return &room, nil
}

func (r *roomRepository) FindByRetreatID(ctx context.Context, retreatID uuid.UUID) ([]*entity.Room, error) {
	query := `
		SELECT id, retreat_id, name, capacity, available, price_delta, created_at, updated_at
		FROM rooms
		WHERE retreat_id = $1
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, retreatID)
	if err != nil {
		r.log.Error("Failed to find rooms by retreat ID",
			zap.Error(err),
			zap.String("retreat_id", retreatID.String()),
		)
		return nil, fmt.Errorf("find rooms by retreat ID %s: %w", retreatID.String(), err)
	}
	defer rows.Close()

	var rooms []*entity.Room
	for rows.Next() {
		var room entity.Room
		err := rows.Scan(
			&room.ID,
			&room.RetreatID,
			&room.Name,
			&room.Capacity,
			&room.Available,
			&room.PriceDelta,
			&room.CreatedAt,
			&room.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan room row", zap.Error(err))
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (r *roomRepository) TryDecrementAvailable(ctx context.Context, roomID uuid.UUID, amount int) (bool, error) {
	// Single conditional update: the availability check and the write happen
	// in one statement, so two concurrent bookings cannot both pass the check.
	query := `
		UPDATE rooms
		SET available = available - $2, updated_at = NOW()
		WHERE id = $1 AND available >= $2
	`

	result, err := r.db.Exec(ctx, query, roomID, amount)
	if err != nil {
		r.log.Error("Failed to decrement room availability",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
			zap.Int("amount", amount),
		)
		return false, fmt.Errorf("decrement room %s availability by %d: %w", roomID.String(), amount, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *roomRepository) IncrementAvailable(ctx context.Context, roomID uuid.UUID, amount int) error {
	query := `
		UPDATE rooms
		SET available = available + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, roomID, amount)
	if err != nil {
		r.log.Error("Failed to increment room availability",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
			zap.Int("amount", amount),
		)
		return fmt.Errorf("increment room %s availability by %d: %w", roomID.String(), amount, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s not found", roomID.String())
	}

	return nil
}
