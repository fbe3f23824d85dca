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

type PromoCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.PromoCode, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	DecrementUsage(ctx context.Context, id uuid.UUID) error

	CreateRedemption(ctx context.Context, redemption *entity.PromoCodeRedemption) error
	DeleteRedemptionByBookingID(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type promoCodeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPromoCodeRepository(db database.PgxIface, log *zap.Logger) PromoCodeRepository {
	return &promoCodeRepository{
		db:  db,
		log: log.With(zap.String("repository", "promo_code")),
	}
}

func (r *promoCodeRepository) FindByCode(ctx context.Context, code string) (*entity.PromoCode, error) {
	query := `
		SELECT id, code, discount_pct, max_uses, usage_count, expires_at, created_at, updated_at
		FROM promo_codes
		WHERE code = $1
	`

	var promo entity.PromoCode
	err := r.db.QueryRow(ctx, query, code).Scan(
		&promo.ID,
		&promo.Code,
		&promo.DiscountPct,
		&promo.MaxUses,
		&promo.UsageCount,
		&promo.ExpiresAt,
		&promo.CreatedAt,
		&promo.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find promo code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find promo code %s: %w", code, err)
	}

	return &promo, nil
}

func (r *promoCodeRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE promo_codes SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to increment promo code usage",
			zap.Error(err),
			zap.String("promo_code_id", id.String()),
		)
		return fmt.Errorf("increment promo code %s usage: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("promo code %s not found", id.String())
	}

	return nil
}

func (r *promoCodeRepository) DecrementUsage(ctx context.Context, id uuid.UUID) error {
	// Floor at zero: a double-decrement must not drive the counter negative.
	query := `
		UPDATE promo_codes
		SET usage_count = GREATEST(usage_count - 1, 0), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to decrement promo code usage",
			zap.Error(err),
			zap.String("promo_code_id", id.String()),
		)
		return fmt.Errorf("decrement promo code %s usage: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("promo code %s not found", id.String())
	}

	return nil
}

func (r *promoCodeRepository) CreateRedemption(ctx context.Context, redemption *entity.PromoCodeRedemption) error {
	query := `
		INSERT INTO promo_code_redemptions (id, booking_id, promo_code_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		redemption.ID,
		redemption.BookingID,
		redemption.PromoCodeID,
		redemption.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create promo code redemption",
			zap.Error(err),
			zap.String("booking_id", redemption.BookingID.String()),
			zap.String("promo_code_id", redemption.PromoCodeID.String()),
		)
		return fmt.Errorf("create promo code redemption for booking %s: %w",
			redemption.BookingID.String(), err)
	}

	return nil
}

func (r *promoCodeRepository) DeleteRedemptionByBookingID(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	query := `DELETE FROM promo_code_redemptions WHERE booking_id = $1`

	result, err := r.db.Exec(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to delete promo code redemption",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return false, fmt.Errorf("delete promo code redemption for booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
