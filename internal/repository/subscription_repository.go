package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"

	"github.com/google/uuid"
)

const (
	subscriptionColumns = `id, user_id, plan_id, start_date, end_date, status, canceled_at, created_at, deleted_at`
)

type subscriptionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubscriptionRepository(db *sql.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{db: db, now: time.Now}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		subscription.ID,
		subscription.UserID,
		subscription.PlanID,
		subscription.StartDate,
		subscription.EndDate,
		subscription.Status,
		subscription.CreatedAt,
	)
	return err
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanSubscription(r.db.QueryRowContext(ctx, query, id))
}

func (r *subscriptionRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	query := `
		SELECT s.id, s.user_id, s.plan_id, s.start_date, s.end_date, s.status, s.canceled_at, s.created_at, s.deleted_at,
			   p.id, p.name, p.display_name, p.price, p.duration_days, p.max_interviews, p.is_active, p.created_at, p.deleted_at
		FROM subscriptions s
		JOIN plans p ON s.plan_id = p.id
		WHERE s.user_id = $1
		  AND s.status = 'active'
		  AND s.end_date > $2
		  AND s.deleted_at IS NULL
		ORDER BY s.created_at DESC
		LIMIT 1
	`
	var sub domain.Subscription
	var plan domain.Plan
	var status string
	err := r.db.QueryRowContext(ctx, query, userID, r.now()).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&sub.StartDate,
		&sub.EndDate,
		&status,
		&sub.CanceledAt,
		&sub.CreatedAt,
		&sub.DeletedAt,
		&plan.ID,
		&plan.Name,
		&plan.DisplayName,
		&plan.Price,
		&plan.DurationDays,
		&plan.MaxInterviews,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.DeletedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	sub.Status = domain.SubscriptionStatus(status)
	sub.Plan = &plan
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, subscription *domain.Subscription) error {
	query := `
		UPDATE subscriptions
		SET status = $1, end_date = $2, canceled_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		subscription.Status,
		subscription.EndDate,
		subscription.CanceledAt,
		subscription.ID,
	)
	return expectAffected(result, err)
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var sub domain.Subscription
	var status string
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&sub.StartDate,
		&sub.EndDate,
		&status,
		&sub.CanceledAt,
		&sub.CreatedAt,
		&sub.DeletedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	sub.Status = domain.SubscriptionStatus(status)
	return &sub, nil
}
