package service

import (
	"context"
	"errors"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSubscriptionRequired = domain.NewError(domain.KindForbidden, "an active subscription is required", nil)
	ErrQuotaExceeded        = domain.NewError(domain.KindForbidden, "monthly interview quota exceeded", nil)
)

type quotaService struct {
	subscriptionRepo domain.SubscriptionRepository
	usageRepo        domain.UsageRepository
	now              func() time.Time
}

func NewQuotaService(subscriptionRepo domain.SubscriptionRepository, usageRepo domain.UsageRepository) domain.QuotaService {
	return &quotaService{
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		now:              time.Now,
	}
}

// CheckUsage reports whether the user may consume one more unit of the
// feature this month. A plan without a limit (nil or 0) is unlimited.
func (s *quotaService) CheckUsage(ctx context.Context, userID uuid.UUID, feature domain.FeatureType) error {
	plan, err := s.activePlan(ctx, userID)
	if err != nil {
		return err
	}

	usage, err := s.usageRepo.FindOrCreate(ctx, userID, feature, s.periodMonth())
	if err != nil {
		return err
	}

	if limit := featureLimit(plan, feature); limit > 0 && usage.Count >= limit {
		return ErrQuotaExceeded
	}
	return nil
}

// IncrementUsage records one consumed unit for the current month. Callers
// run it only after the metered work has been persisted.
func (s *quotaService) IncrementUsage(ctx context.Context, userID uuid.UUID, feature domain.FeatureType) error {
	usage, err := s.usageRepo.FindOrCreate(ctx, userID, feature, s.periodMonth())
	if err != nil {
		return err
	}
	return s.usageRepo.IncrementCount(ctx, usage.ID)
}

func (s *quotaService) GetUserQuota(ctx context.Context, userID uuid.UUID) (*domain.UserQuota, error) {
	plan, err := s.activePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	usage, err := s.usageRepo.FindOrCreate(ctx, userID, domain.FeatureInterview, s.periodMonth())
	if err != nil {
		return nil, err
	}

	return &domain.UserQuota{
		PlanName:       plan.DisplayName,
		MaxInterviews:  featureLimit(plan, domain.FeatureInterview),
		UsedInterviews: usage.Count,
	}, nil
}

func (s *quotaService) activePlan(ctx context.Context, userID uuid.UUID) (*domain.Plan, error) {
	subscription, err := s.subscriptionRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrSubscriptionRequired
		}
		return nil, err
	}
	if subscription.Plan == nil {
		return nil, ErrSubscriptionRequired
	}
	return subscription.Plan, nil
}

func (s *quotaService) periodMonth() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func featureLimit(plan *domain.Plan, feature domain.FeatureType) int {
	switch feature {
	case domain.FeatureInterview:
		if plan.MaxInterviews != nil {
			return *plan.MaxInterviews
		}
	}
	return 0
}
