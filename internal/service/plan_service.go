package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/validator"

	"github.com/google/uuid"
)

const (
	planListCachePrefix   = "plans:list:"
	planListCacheDuration = 10 * time.Minute
)

var (
	ErrPlanNotFound   = domain.NewError(domain.KindNotFound, "plan not found", nil)
	ErrPlanNameExists = domain.NewError(domain.KindConflict, "plan name already exists", nil)
	ErrNegativePrice  = domain.NewError(domain.KindValidation, "price must not be negative", nil)
)

type planService struct {
	planRepo  domain.PlanRepository
	cacheRepo domain.CacheRepository
}

func NewPlanService(planRepo domain.PlanRepository, cacheRepo domain.CacheRepository) domain.PlanService {
	return &planService{
		planRepo:  planRepo,
		cacheRepo: cacheRepo,
	}
}

func (s *planService) Create(ctx context.Context, req *domain.CreatePlanRequest) (*domain.Plan, error) {
	if err := validator.Struct(req); err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), nil)
	}
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if err := s.ensureNameFree(ctx, name); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	plan := &domain.Plan{
		ID:            uuid.New(),
		Name:          name,
		DisplayName:   req.DisplayName,
		Price:         req.Price,
		DurationDays:  req.DurationDays,
		MaxInterviews: req.MaxInterviews,
		IsActive:      isActive,
		CreatedAt:     time.Now(),
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, domain.NewError(domain.KindCreation, "failed to create plan", err)
	}

	s.invalidateListCache(ctx)
	return plan, nil
}

func (s *planService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) GetAll(ctx context.Context, page, limit int, includeInactive bool) (*domain.PaginatedPlans, error) {
	page, limit = domain.NormalizePage(page, limit)

	cacheKey := fmt.Sprintf("%s%d:%d:%t", planListCachePrefix, page, limit, includeInactive)
	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
		var plans domain.PaginatedPlans
		if err := json.Unmarshal([]byte(cached), &plans); err == nil {
			return &plans, nil
		}
	}

	total, err := s.planRepo.Count(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}

	plans, err := s.planRepo.FindAll(ctx, limit, (page-1)*limit, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plans: %w", err)
	}

	result := &domain.PaginatedPlans{
		Plans:      plans,
		Pagination: domain.NewPagination(page, limit, total),
	}
	_ = s.cacheRepo.Set(ctx, cacheKey, result, planListCacheDuration)

	return result, nil
}

func (s *planService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePlanRequest) (*domain.Plan, error) {
	if err := validator.Struct(req); err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), nil)
	}

	plan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*req.Name))
		if name != plan.Name {
			if err := s.ensureNameFree(ctx, name); err != nil {
				return nil, err
			}
			plan.Name = name
		}
	}
	if req.DisplayName != nil {
		plan.DisplayName = *req.DisplayName
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		plan.Price = *req.Price
	}
	if req.DurationDays != nil {
		plan.DurationDays = req.DurationDays
	}
	if req.MaxInterviews != nil {
		plan.MaxInterviews = req.MaxInterviews
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	s.invalidateListCache(ctx)
	return plan, nil
}

func (s *planService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.planRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	s.invalidateListCache(ctx)
	return nil
}

func (s *planService) ensureNameFree(ctx context.Context, name string) error {
	_, err := s.planRepo.FindByName(ctx, name)
	switch {
	case err == nil:
		return ErrPlanNameExists
	case errors.Is(err, domain.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check plan name: %w", err)
	}
}

func (s *planService) invalidateListCache(ctx context.Context) {
	_ = s.cacheRepo.DeleteByPattern(ctx, planListCachePrefix+"*")
}
