package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/metrics"
	"github.com/raflytch/prepwise-server/pkg/apifilter"
	"github.com/raflytch/prepwise-server/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInterviewNotFound  = domain.NewError(domain.KindNotFound, "interview not found", nil)
	ErrQuestionNotFound   = domain.NewError(domain.KindNotFound, "question not found in this interview", nil)
	ErrInterviewCompleted = domain.NewError(domain.KindValidation, "interview already completed", nil)
	ErrInterviewConflict  = domain.NewError(domain.KindConflict, "interview was updated by another request, please retry", nil)
)

type InterviewServiceConfig struct {
	PerPage      int
	SweeperGrace time.Duration
}

type interviewService struct {
	interviewRepo domain.InterviewRepository
	generator     domain.QuestionGenerator
	evaluator     domain.AnswerEvaluator
	quotaService  domain.QuotaService
	statsService  domain.StatsService
	logger        *zap.Logger
	cfg           InterviewServiceConfig
	now           func() time.Time
	recordEvent   func(event string)
}

func NewInterviewService(
	interviewRepo domain.InterviewRepository,
	generator domain.QuestionGenerator,
	evaluator domain.AnswerEvaluator,
	quotaService domain.QuotaService,
	statsService domain.StatsService,
	logger *zap.Logger,
	cfg InterviewServiceConfig,
) domain.InterviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PerPage < 1 {
		cfg.PerPage = apifilter.DefaultPerPage
	}
	return &interviewService{
		interviewRepo: interviewRepo,
		generator:     generator,
		evaluator:     evaluator,
		quotaService:  quotaService,
		statsService:  statsService,
		logger:        logger,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
		recordEvent:   metrics.InterviewEvent,
	}
}

func (s *interviewService) Create(ctx context.Context, userID uuid.UUID, req *domain.CreateInterviewRequest) (*domain.CreateInterviewResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), nil)
	}

	if s.quotaService != nil {
		if err := s.quotaService.CheckUsage(ctx, userID, domain.FeatureInterview); err != nil {
			return nil, err
		}
	}

	questions, err := s.generator.Generate(ctx, domain.GenerateQuestionsParams{
		Industry:        req.Industry,
		Topic:           req.Topic,
		Type:            req.Type,
		Role:            req.Role,
		Count:           req.NumOfQuestions,
		DurationMinutes: req.Duration,
		Difficulty:      req.Difficulty,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	durationSeconds := req.Duration * 60
	interview := &domain.Interview{
		ID:             uuid.New(),
		UserID:         userID,
		Industry:       req.Industry,
		Topic:          req.Topic,
		Type:           req.Type,
		Role:           req.Role,
		Difficulty:     req.Difficulty,
		NumOfQuestions: req.NumOfQuestions,
		Duration:       durationSeconds,
		DurationLeft:   durationSeconds,
		Status:         domain.InterviewStatusInProgress,
		Answered:       0,
		Questions:      questions,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.interviewRepo.Create(ctx, interview); err != nil {
		s.logger.Error("failed to persist interview", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, domain.NewError(domain.KindCreation, "failed to create interview", err)
	}

	if s.quotaService != nil {
		if err := s.quotaService.IncrementUsage(ctx, userID, domain.FeatureInterview); err != nil {
			s.logger.Warn("failed to record interview usage",
				zap.String("user_id", userID.String()),
				zap.String("interview_id", interview.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.recordEvent(metrics.EventCreated)
	s.invalidateStats(ctx, userID)

	return &domain.CreateInterviewResponse{
		Created: true,
		ID:      interview.ID,
	}, nil
}

func (s *interviewService) GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.Interview, error) {
	return s.findOwned(ctx, userID, id)
}

func (s *interviewService) List(ctx context.Context, userID uuid.UUID, params map[string][]string) (*domain.InterviewList, error) {
	builder := apifilter.New(params).
		Filter().
		Where("user_id", apifilter.OpEq, userID.String()).
		Sort().
		Select().
		Paginate(s.cfg.PerPage)

	filtered, err := builder.Filtered()
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), err)
	}
	paginated, err := builder.Paginated()
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), err)
	}

	count, err := s.interviewRepo.Count(ctx, filtered)
	if err != nil {
		return nil, wrapQueryError("failed to count interviews", err)
	}

	interviews, err := s.interviewRepo.FindAll(ctx, paginated)
	if err != nil {
		return nil, wrapQueryError("failed to fetch interviews", err)
	}
	if interviews == nil {
		interviews = []domain.Interview{}
	}

	return &domain.InterviewList{
		Interviews:    interviews,
		ResPerPage:    paginated.Limit,
		FilteredCount: count,
		Fields:        paginated.Fields,
	}, nil
}

func (s *interviewService) UpdateDetails(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *domain.UpdateInterviewRequest) (*domain.UpdateInterviewResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), nil)
	}

	interview, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	answering := req.QuestionID != ""
	if interview.IsCompleted() {
		if answering {
			return nil, ErrInterviewCompleted
		}
		return &domain.UpdateInterviewResponse{Updated: true, Interview: interview}, nil
	}

	questionIdx := -1
	var result *domain.Result
	if answering {
		questionID, err := uuid.Parse(req.QuestionID)
		if err != nil {
			return nil, domain.NewError(domain.KindValidation, "question_id must be a valid id", err)
		}
		questionIdx = interview.QuestionIndex(questionID)
		if questionIdx < 0 {
			return nil, ErrQuestionNotFound
		}

		// Scored before anything changes so a failed call leaves the interview as it was.
		result, err = s.evaluator.Evaluate(ctx, interview.Questions[questionIdx].Question, req.Answer)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	if questionIdx >= 0 {
		q := &interview.Questions[questionIdx]
		answer := req.Answer
		q.Answer = &answer
		q.Result = clampResult(*result)
		if !q.Completed {
			q.Completed = true
			interview.Answered++
		}
	}

	reported := *req.DurationLeft
	if reported < interview.DurationLeft {
		interview.DurationLeft = reported
	}

	switch {
	case interview.Answered >= len(interview.Questions):
		interview.Complete(now)
	case reported == 0:
		interview.DurationLeft = 0
		interview.Complete(now)
	case req.Completed:
		interview.Complete(now)
	}

	interview.UpdatedAt = now
	if err := s.interviewRepo.Update(ctx, interview); err != nil {
		if errors.Is(err, domain.ErrStaleRecord) {
			return nil, ErrInterviewConflict
		}
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}

	if questionIdx >= 0 {
		s.recordEvent(metrics.EventAnswered)
	}
	if interview.IsCompleted() {
		s.recordEvent(metrics.EventCompleted)
	}
	s.invalidateStats(ctx, userID)

	return &domain.UpdateInterviewResponse{
		Updated:   true,
		Interview: interview,
	}, nil
}

func (s *interviewService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.DeleteInterviewResponse, error) {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	if err := s.interviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, fmt.Errorf("failed to delete interview: %w", err)
	}

	s.recordEvent(metrics.EventDeleted)
	s.invalidateStats(ctx, userID)

	return &domain.DeleteInterviewResponse{Deleted: true}, nil
}

func (s *interviewService) Report(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]byte, error) {
	interview, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	pdf, err := renderInterviewReport(interview)
	if err != nil {
		return nil, fmt.Errorf("failed to render interview report: %w", err)
	}
	return pdf, nil
}

// CompleteExpired closes in-progress interviews whose allotted time plus the
// grace period has elapsed. Interviews that move underneath it are skipped.
func (s *interviewService) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.interviewRepo.FindInProgressCreatedBefore(ctx, now.Add(-s.cfg.SweeperGrace))
	if err != nil {
		return 0, fmt.Errorf("failed to find expired interviews: %w", err)
	}

	completed := 0
	for i := range candidates {
		interview := &candidates[i]
		deadline := interview.CreatedAt.Add(time.Duration(interview.Duration)*time.Second + s.cfg.SweeperGrace)
		if interview.IsCompleted() || now.Before(deadline) {
			continue
		}

		interview.DurationLeft = 0
		interview.Complete(now)
		interview.UpdatedAt = now
		if err := s.interviewRepo.Update(ctx, interview); err != nil {
			if errors.Is(err, domain.ErrStaleRecord) || errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}
			return completed, fmt.Errorf("failed to complete interview %s: %w", interview.ID, err)
		}

		completed++
		s.recordEvent(metrics.EventSwept)
		s.invalidateStats(ctx, interview.UserID)
	}

	return completed, nil
}

// findOwned loads an interview and hides interviews of other users behind not found.
func (s *interviewService) findOwned(ctx context.Context, userID, id uuid.UUID) (*domain.Interview, error) {
	interview, err := s.interviewRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, fmt.Errorf("failed to fetch interview: %w", err)
	}

	if interview.UserID != userID {
		return nil, ErrInterviewNotFound
	}
	return interview, nil
}

func (s *interviewService) invalidateStats(ctx context.Context, userID uuid.UUID) {
	if s.statsService != nil {
		s.statsService.Invalidate(ctx, userID)
	}
}

func wrapQueryError(message string, err error) error {
	if errors.Is(err, apifilter.ErrInvalidQuery) {
		return domain.NewError(domain.KindValidation, err.Error(), err)
	}
	return fmt.Errorf("%s: %w", message, err)
}

func clampResult(r domain.Result) domain.Result {
	r.OverallScore = clampScore(r.OverallScore)
	r.Clarity = clampScore(r.Clarity)
	r.Relevance = clampScore(r.Relevance)
	r.Completeness = clampScore(r.Completeness)
	return r
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
