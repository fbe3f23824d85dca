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

type RetreatRepository interface {
	Create(ctx context.Context, retreat *entity.Retreat) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Retreat, error)
	FindUpcoming(ctx context.Context, after time.Time) ([]*entity.Retreat, error)
	Update(ctx context.Context, retreat *entity.Retreat) error

	// SoftDelete stamps the tombstone; retreats referenced by bookings are
	// never hard-deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type retreatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRetreatRepository(db database.PgxIface, log *zap.Logger) RetreatRepository {
	return &retreatRepository{
		db:  db,
		log: log.With(zap.String("repository", "retreat")),
	}
}

func (r *retreatRepository) Create(ctx context.Context, retreat *entity.Retreat) error {
	query := `
		INSERT INTO retreats (id, name, location, description, start_date, end_date,
		                      base_price, early_bird_discount_pct, early_bird_deadline,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		retreat.ID,
		retreat.Name,
		retreat.Location,
		retreat.Description,
		retreat.StartDate,
		retreat.EndDate,
		retreat.BasePrice,
		retreat.EarlyBirdDiscountPct,
		retreat.EarlyBirdDeadline,
		retreat.CreatedAt,
		retreat.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create retreat",
			zap.Error(err),
			zap.String("name", retreat.Name),
		)
		return fmt.Errorf("create retreat %s: %w", retreat.Name, err)
	}

	return nil
}

func (r *retreatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Retreat, error) {
	query := `
		SELECT id, name, location, description, start_date, end_date,
		       base_price, early_bird_discount_pct, early_bird_deadline,
		       created_at, updated_at, deleted_at
		FROM retreats
		WHERE id = $1 AND deleted_at IS NULL
	`

	var retreat entity.Retreat
	err := r.db.QueryRow(ctx, query, id).Scan(
		&retreat.ID,
		&retreat.Name,
		&retreat.Location,
		&retreat.Description,
		&retreat.StartDate,
		&retreat.EndDate,
		&retreat.BasePrice,
		&retreat.EarlyBirdDiscountPct,
		&retreat.EarlyBirdDeadline,
		&retreat.CreatedAt,
		&retreat.UpdatedAt,
		&retreat.DeletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find retreat by ID",
			zap.Error(err),
			zap.String("retreat_id", id.String()),
		)
		return nil, fmt.Errorf("find retreat by ID %s: %w", id.String(), err)
	}

	return &retreat, nil
}

func (r *retreatRepository) FindUpcoming(ctx context.Context, after time.Time) ([]*entity.Retreat, error) {
	query := `
		SELECT id, name, location, description, start_date, end_date,
		       base_price, early_bird_discount_pct, early_bird_deadline,
		       created_at, updated_at, deleted_at
		FROM retreats
		WHERE start_date > $1 AND deleted_at IS NULL
		ORDER BY start_date
	`

	rows, err := r.db.Query(ctx, query, after)
	if err != nil {
		r.log.Error("Failed to find upcoming retreats", zap.Error(err))
		return nil, fmt.Errorf("find upcoming retreats: %w", err)
	}
	defer rows.Close()

	var retreats []*entity.Retreat
	for rows.Next() {
		var retreat entity.Retreat
		err := rows.Scan(
			&retreat.ID,
			&retreat.Name,
			&retreat.Location,
			&retreat.Description,
			&retreat.StartDate,
			&retreat.EndDate,
			&retreat.BasePrice,
			&retreat.EarlyBirdDiscountPct,
			&retreat.EarlyBirdDeadline,
			&retreat.CreatedAt,
			&retreat.UpdatedAt,
			&retreat.DeletedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan retreat row", zap.Error(err))
			return nil, fmt.Errorf("scan retreat row: %w", err)
		}
		retreats = append(retreats, &retreat)
	}

	return retreats, nil
}

func (r *retreatRepository) Update(ctx context.Context, retreat *entity.Retreat) error {
	query := `
		UPDATE retreats
		SET name = $2, location = $3, description = $4, start_date = $5, end_date = $6,
		    base_price = $7, early_bird_discount_pct = $8, early_bird_deadline = $9,
		    updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		retreat.ID,
		retreat.Name,
		retreat.Location,
		retreat.Description,
		retreat.StartDate,
		retreat.EndDate,
		retreat.BasePrice,
		retreat.EarlyBirdDiscountPct,
		retreat.EarlyBirdDeadline,
		retreat.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update retreat",
			zap.Error(err),
			zap.String("retreat_id", retreat.ID.String()),
		)
		return fmt.Errorf("update retreat %s: %w", retreat.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("retreat %s not found", retreat.ID.String())
	}

	return nil
}

func (r *retreatRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE retreats SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to soft-delete retreat",
			zap.Error(err),
			zap.String("retreat_id", id.String()),
		)
		return fmt.Errorf("soft-delete retreat %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("retreat %s not found", id.String())
	}

	r.log.Info("Retreat soft-deleted", zap.String("retreat_id", id.String()))
	return nil
}
