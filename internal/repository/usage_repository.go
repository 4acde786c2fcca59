package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"

	"github.com/google/uuid"
)

const (
	usageColumns = `id, user_id, feature, period_month, count, created_at, deleted_at`
)

type usageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) domain.UsageRepository {
	return &usageRepository{db: db}
}

// FindOrCreate returns the usage row for the month, inserting an empty one first.
// Concurrent inserts for the same period collapse onto the unique key.
func (r *usageRepository) FindOrCreate(ctx context.Context, userID uuid.UUID, feature domain.FeatureType, periodMonth time.Time) (*domain.Usage, error) {
	usage, err := r.findByPeriod(ctx, userID, feature, periodMonth)
	if err == nil {
		return usage, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO usage (id, user_id, feature, period_month, count, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (user_id, feature, period_month) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.New(), userID, feature, periodMonth, time.Now()); err != nil {
		return nil, err
	}

	return r.findByPeriod(ctx, userID, feature, periodMonth)
}

func (r *usageRepository) IncrementCount(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE usage
		SET count = count + 1
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	return expectAffected(result, err)
}

func (r *usageRepository) findByPeriod(ctx context.Context, userID uuid.UUID, feature domain.FeatureType, periodMonth time.Time) (*domain.Usage, error) {
	query := `
		SELECT ` + usageColumns + `
		FROM usage
		WHERE user_id = $1 AND feature = $2 AND period_month = $3 AND deleted_at IS NULL
	`
	var usage domain.Usage
	var feat string
	err := r.db.QueryRowContext(ctx, query, userID, feature, periodMonth).Scan(
		&usage.ID,
		&usage.UserID,
		&feat,
		&usage.PeriodMonth,
		&usage.Count,
		&usage.CreatedAt,
		&usage.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	usage.Feature = domain.FeatureType(feat)
	return &usage, nil
}
