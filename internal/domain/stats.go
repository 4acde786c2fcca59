package domain

import (
	"context"

	"github.com/google/uuid"
)

type DailyStats struct {
	Date                string  `json:"date"`
	TotalInterviews     int     `json:"total_interviews"`
	CompletionRate      float64 `json:"completion_rate"`
	CompletedQuestions  int     `json:"completed_questions"`
	UnansweredQuestions int     `json:"unanswered_questions"`
}

type InterviewStats struct {
	TotalInterviews int          `json:"total_interviews"`
	CompletionRate  float64      `json:"completion_rate"`
	Stats           []DailyStats `json:"stats"`
}

type StatsService interface {
	GetStats(ctx context.Context, userID uuid.UUID, start, end string) (*InterviewStats, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}
