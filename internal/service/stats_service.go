package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	statsCachePrefix     = "stats:"
	defaultStatsCacheTTL = 5 * time.Minute
	statsDateLayout      = "2006-01-02"
)

type statsService struct {
	interviewRepo domain.InterviewRepository
	cacheRepo     domain.CacheRepository
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewStatsService(interviewRepo domain.InterviewRepository, cacheRepo domain.CacheRepository, cacheTTL time.Duration, logger *zap.Logger) domain.StatsService {
	if cacheTTL <= 0 {
		cacheTTL = defaultStatsCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &statsService{
		interviewRepo: interviewRepo,
		cacheRepo:     cacheRepo,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *statsService) GetStats(ctx context.Context, userID uuid.UUID, start, end string) (*domain.InterviewStats, error) {
	from, to, err := resolveStatsWindow(start, end, s.now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%s", statsCachePrefix, userID, from.Format(statsDateLayout), to.Format(statsDateLayout))
	if s.cacheRepo != nil {
		if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
			var stats domain.InterviewStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	interviews, err := s.interviewRepo.FindByUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interviews for stats: %w", err)
	}

	stats := aggregateStats(interviews)

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache interview stats", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return stats, nil
}

func (s *statsService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.DeleteByPattern(ctx, fmt.Sprintf("%s%s:*", statsCachePrefix, userID)); err != nil {
		s.logger.Warn("failed to invalidate interview stats", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// resolveStatsWindow parses YYYY-MM-DD bounds in UTC. A missing start is the first
// day of the current month and a missing end is today. The end is inclusive to the
// last millisecond of its day.
func resolveStatsWindow(start, end string, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if start != "" {
		t, err := time.ParseInLocation(statsDateLayout, start, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewError(domain.KindValidation, "start must be a date formatted as YYYY-MM-DD", err)
		}
		from = t
	}

	toDay := today
	if end != "" {
		t, err := time.ParseInLocation(statsDateLayout, end, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewError(domain.KindValidation, "end must be a date formatted as YYYY-MM-DD", err)
		}
		toDay = t
	}

	if from.After(toDay) {
		return time.Time{}, time.Time{}, domain.NewError(domain.KindValidation, "start must not be after end", nil)
	}

	to := toDay.Add(24*time.Hour - time.Millisecond)
	return from, to, nil
}

func aggregateStats(interviews []domain.Interview) *domain.InterviewStats {
	type bucket struct {
		total, completed, answered, unanswered int
	}

	days := map[string]*bucket{}
	completedTotal := 0
	for i := range interviews {
		interview := &interviews[i]
		day := interview.CreatedAt.UTC().Format(statsDateLayout)
		b, ok := days[day]
		if !ok {
			b = &bucket{}
			days[day] = b
		}

		b.total++
		if interview.IsCompleted() {
			b.completed++
			completedTotal++
		}
		for _, q := range interview.Questions {
			if q.Completed {
				b.answered++
			} else {
				b.unanswered++
			}
		}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	perDay := make([]domain.DailyStats, 0, len(keys))
	for _, k := range keys {
		b := days[k]
		perDay = append(perDay, domain.DailyStats{
			Date:                k,
			TotalInterviews:     b.total,
			CompletionRate:      completionRate(b.completed, b.total),
			CompletedQuestions:  b.answered,
			UnansweredQuestions: b.unanswered,
		})
	}

	return &domain.InterviewStats{
		TotalInterviews: len(interviews),
		CompletionRate:  completionRate(completedTotal, len(interviews)),
		Stats:           perDay,
	}
}

// completionRate is completed/total as a percentage rounded to two decimals, 0 when total is 0.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(completed)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}
