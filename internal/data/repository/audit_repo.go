package repository

import (
	"context"
	"fmt"

	"retreat-booking/internal/data/entity"
	"retreat-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditRepository interface {
	Create(ctx context.Context, record *entity.AuditLog) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.AuditLog, error)
}

type auditRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAuditRepository(db database.PgxIface, log *zap.Logger) AuditRepository {
	return &auditRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit")),
	}
}

func (r *auditRepository) Create(ctx context.Context, record *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, booking_id, action, detail, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.BookingID,
		record.Action,
		record.Detail,
		record.Actor,
		record.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create audit record",
			zap.Error(err),
			zap.String("action", record.Action),
		)
		return fmt.Errorf("create audit record %s: %w", record.Action, err)
	}

	return nil
}

func (r *auditRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, booking_id, action, detail, actor, created_at
		FROM audit_logs
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find audit records by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find audit records by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var records []*entity.AuditLog
	for rows.Next() {
		var record entity.AuditLog
		err := rows.Scan(
			&record.ID,
			&record.BookingID,
			&record.Action,
			&record.Detail,
			&record.Actor,
			&record.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan audit record row", zap.Error(err))
			return nil, fmt.Errorf("scan audit record row: %w", err)
		}
		records = append(records, &record)
	}

	return records, nil
}
