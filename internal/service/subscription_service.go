package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type subscriptionService struct {
	subscriptionRepo domain.SubscriptionRepository
	logger           *zap.Logger
	now              func() time.Time
}

func NewSubscriptionService(subscriptionRepo domain.SubscriptionRepository, logger *zap.Logger) domain.SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
		now:              time.Now,
	}
}

// Cancel ends the user's active subscription immediately. Already consumed
// quota is not refunded.
func (s *subscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}

	now := s.now()
	subscription.Status = domain.SubscriptionStatusCanceled
	subscription.CanceledAt = &now
	subscription.EndDate = now

	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	s.logger.Info("subscription canceled",
		zap.String("user_id", userID.String()),
		zap.String("subscription_id", subscription.ID.String()),
	)
	return subscription, nil
}
