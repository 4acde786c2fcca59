package domain

import (
	"context"
	"errors"
	"time"

	"github.com/raflytch/prepwise-server/pkg/apifilter"

	"github.com/google/uuid"
)

type InterviewStatus string

const (
	InterviewStatusInProgress InterviewStatus = "in_progress"
	InterviewStatusCompleted  InterviewStatus = "completed"
)

// PassAnswer skips AI scoring for a question.
const PassAnswer = "pass"

const DefaultSuggestion = "No suggestion provided"

// Storage sentinels returned by repositories.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrStaleRecord    = errors.New("record version is stale")
	ErrCacheMiss      = errors.New("cache miss")
)

type Result struct {
	OverallScore int    `json:"overall_score" bson:"overall_score"`
	Clarity      int    `json:"clarity" bson:"clarity"`
	Relevance    int    `json:"relevance" bson:"relevance"`
	Completeness int    `json:"completeness" bson:"completeness"`
	Suggestion   string `json:"suggestion" bson:"suggestion"`
}

type Question struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	Question  string    `json:"question" bson:"question"`
	Answer    *string   `json:"answer" bson:"answer"`
	Completed bool      `json:"completed" bson:"completed"`
	Result    Result    `json:"result" bson:"result"`
}

type Interview struct {
	ID             uuid.UUID       `json:"id" bson:"_id"`
	UserID         uuid.UUID       `json:"user_id" bson:"user_id"`
	Industry       string          `json:"industry" bson:"industry"`
	Topic          string          `json:"topic" bson:"topic"`
	Type           string          `json:"type" bson:"type"`
	Role           string          `json:"role" bson:"role"`
	Difficulty     string          `json:"difficulty" bson:"difficulty"`
	NumOfQuestions int             `json:"num_of_questions" bson:"num_of_questions"`
	Duration       int             `json:"duration" bson:"duration"`
	DurationLeft   int             `json:"duration_left" bson:"duration_left"`
	Status         InterviewStatus `json:"status" bson:"status"`
	Answered       int             `json:"answered" bson:"answered"`
	Questions      []Question      `json:"questions" bson:"questions"`
	Version        int             `json:"-" bson:"version"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

func (i *Interview) IsCompleted() bool {
	return i.Status == InterviewStatusCompleted
}

func (i *Interview) QuestionIndex(id uuid.UUID) int {
	for idx := range i.Questions {
		if i.Questions[idx].ID == id {
			return idx
		}
	}
	return -1
}

// Complete moves the interview to its terminal state. Calling it again is a no-op.
func (i *Interview) Complete(now time.Time) {
	if i.IsCompleted() {
		return
	}
	i.Status = InterviewStatusCompleted
	i.CompletedAt = &now
}

// GenerateQuestionsParams carries everything the question prompt embeds.
// DurationMinutes is the interview length as the user entered it.
type GenerateQuestionsParams struct {
	Industry        string
	Topic           string
	Type            string
	Role            string
	Count           int
	DurationMinutes int
	Difficulty      string
}

type CreateInterviewRequest struct {
	Industry       string `json:"industry" validate:"required,max=100"`
	Topic          string `json:"topic" validate:"required,max=100"`
	Type           string `json:"type" validate:"required,max=50"`
	Role           string `json:"role" validate:"required,max=100"`
	Difficulty     string `json:"difficulty" validate:"required,max=50"`
	NumOfQuestions int    `json:"num_of_questions" validate:"required,min=1,max=20"`
	Duration       int    `json:"duration" validate:"required,min=1,max=180"`
}

type UpdateInterviewRequest struct {
	DurationLeft *int   `json:"duration_left" validate:"required,min=0"`
	QuestionID   string `json:"question_id" validate:"required_with=Answer,omitempty,uuid"`
	Answer       string `json:"answer" validate:"required_with=QuestionID,max=5000"`
	Completed    bool   `json:"completed"`
}

type CreateInterviewResponse struct {
	Created bool      `json:"created"`
	ID      uuid.UUID `json:"id"`
}

type UpdateInterviewResponse struct {
	Updated   bool       `json:"updated"`
	Interview *Interview `json:"interview"`
}

type DeleteInterviewResponse struct {
	Deleted bool `json:"deleted"`
}

type InterviewList struct {
	Interviews    []Interview `json:"interviews"`
	ResPerPage    int         `json:"res_per_page"`
	FilteredCount int64       `json:"filtered_count"`
	// Fields is the requested projection, applied when the list is rendered.
	Fields []string `json:"-"`
}

type QuestionGenerator interface {
	Generate(ctx context.Context, params GenerateQuestionsParams) ([]Question, error)
}

type AnswerEvaluator interface {
	Evaluate(ctx context.Context, question, answer string) (*Result, error)
}

type InterviewRepository interface {
	Create(ctx context.Context, interview *Interview) error
	FindByID(ctx context.Context, id uuid.UUID) (*Interview, error)
	FindAll(ctx context.Context, query apifilter.Query) ([]Interview, error)
	Count(ctx context.Context, query apifilter.Query) (int64, error)
	FindByUserBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]Interview, error)
	FindInProgressCreatedBefore(ctx context.Context, before time.Time) ([]Interview, error)
	Update(ctx context.Context, interview *Interview) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type InterviewService interface {
	Create(ctx context.Context, userID uuid.UUID, req *CreateInterviewRequest) (*CreateInterviewResponse, error)
	GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*Interview, error)
	List(ctx context.Context, userID uuid.UUID, params map[string][]string) (*InterviewList, error)
	UpdateDetails(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *UpdateInterviewRequest) (*UpdateInterviewResponse, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*DeleteInterviewResponse, error)
	Report(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]byte, error)
	CompleteExpired(ctx context.Context, now time.Time) (int, error)
}
