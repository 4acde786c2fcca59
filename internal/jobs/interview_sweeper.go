package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = time.Minute

// Expirer completes interviews whose time ran out while the client was away.
type Expirer interface {
	CompleteExpired(ctx context.Context, now time.Time) (int, error)
}

type InterviewSweeper struct {
	expirer  Expirer
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func NewInterviewSweeper(expirer Expirer, schedule string, logger *zap.Logger) *InterviewSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewSweeper{
		expirer:  expirer,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:      time.Now,
	}
}

// Start schedules the sweep. An empty schedule disables it.
func (s *InterviewSweeper) Start() error {
	if s.schedule == "" {
		s.logger.Info("interview sweeper disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("interview sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule interview sweeper: %w", err)
	}

	s.cron.Start()
	s.logger.Info("interview sweeper started", zap.String("schedule", s.schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *InterviewSweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *InterviewSweeper) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	completed, err := s.expirer.CompleteExpired(ctx, s.now())
	if completed > 0 {
		s.logger.Info("expired interviews completed", zap.Int("count", completed))
	}
	return completed, err
}
