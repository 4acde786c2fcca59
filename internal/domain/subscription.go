package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	PlanID     uuid.UUID          `json:"plan_id"`
	StartDate  time.Time          `json:"start_date"`
	EndDate    time.Time          `json:"end_date"`
	Status     SubscriptionStatus `json:"status"`
	CanceledAt *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	DeletedAt  *time.Time         `json:"deleted_at,omitempty"`
	Plan       *Plan              `json:"plan,omitempty"`
}

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
}

type SubscriptionService interface {
	Cancel(ctx context.Context, userID uuid.UUID) (*Subscription, error)
}

type FeatureType string

const (
	FeatureInterview FeatureType = "interview"
)

type Usage struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Feature     FeatureType `json:"feature"`
	PeriodMonth time.Time   `json:"period_month"`
	Count       int         `json:"count"`
	CreatedAt   time.Time   `json:"created_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty"`
}

type UsageRepository interface {
	FindOrCreate(ctx context.Context, userID uuid.UUID, feature FeatureType, periodMonth time.Time) (*Usage, error)
	IncrementCount(ctx context.Context, id uuid.UUID) error
}

type QuotaService interface {
	CheckUsage(ctx context.Context, userID uuid.UUID, feature FeatureType) error
	IncrementUsage(ctx context.Context, userID uuid.UUID, feature FeatureType) error
	GetUserQuota(ctx context.Context, userID uuid.UUID) (*UserQuota, error)
}

type UserQuota struct {
	PlanName       string `json:"plan_name"`
	MaxInterviews  int    `json:"max_interviews"`
	UsedInterviews int    `json:"used_interviews"`
}
