package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type userService struct {
	userRepo         domain.UserRepository
	cacheRepo        domain.CacheRepository
	subscriptionRepo domain.SubscriptionRepository
	quotaService     domain.QuotaService
	logger           *zap.Logger
}

func NewUserService(
	userRepo domain.UserRepository,
	cacheRepo domain.CacheRepository,
	subscriptionRepo domain.SubscriptionRepository,
	quotaService domain.QuotaService,
	logger *zap.Logger,
) domain.UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{
		userRepo:         userRepo,
		cacheRepo:        cacheRepo,
		subscriptionRepo: subscriptionRepo,
		quotaService:     quotaService,
		logger:           logger,
	}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	cacheKey := userCachePrefix + id.String()
	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.cacheRepo.Set(ctx, cacheKey, user, userCacheDuration)
	return user, nil
}

// GetProfile returns the user with the active subscription and this month's
// interview quota. Both are nil for users without a subscription.
func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*domain.UserProfileResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &domain.UserProfileResponse{User: *user}

	sub, err := s.subscriptionRepo.FindActiveByUserID(ctx, id)
	switch {
	case err == nil:
		profile.Subscription = sub
	case !errors.Is(err, domain.ErrRecordNotFound):
		s.logger.Warn("failed to load subscription for profile", zap.String("user_id", id.String()), zap.Error(err))
	}

	if profile.Subscription != nil && s.quotaService != nil {
		quota, err := s.quotaService.GetUserQuota(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load quota for profile", zap.String("user_id", id.String()), zap.Error(err))
		} else {
			profile.Quota = quota
		}
	}

	return profile, nil
}

func (s *userService) GetAll(ctx context.Context, page, limit int) (*domain.PaginatedUsers, error) {
	page, limit = domain.NormalizePage(page, limit)

	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	users, err := s.userRepo.FindAll(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return &domain.PaginatedUsers{
		Users:      users,
		Pagination: domain.NewPagination(page, limit, total),
	}, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, name string) (*domain.User, error) {
	req := domain.UpdateUserRequest{Name: strings.TrimSpace(name)}
	if err := validator.Struct(req); err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), nil)
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, s.mapMissing(err)
	}

	s.invalidate(ctx, id)
	return user, nil
}

func (s *userService) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAvatar(ctx, id, avatarURL); err != nil {
		return nil, s.mapMissing(err)
	}
	user.AvatarURL = &avatarURL

	s.invalidate(ctx, id)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID, requestingUserRole domain.Role) error {
	if requestingUserRole != domain.RoleAdmin {
		return domain.ErrForbiddenAction
	}

	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return s.mapMissing(err)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *userService) find(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapMissing(err)
	}
	return user, nil
}

func (s *userService) mapMissing(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}

func (s *userService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cacheRepo.Delete(ctx, userCachePrefix+id.String()); err != nil {
		s.logger.Warn("failed to drop cached user", zap.String("user_id", id.String()), zap.Error(err))
	}
}
