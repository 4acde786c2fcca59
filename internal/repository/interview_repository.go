package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/apifilter"

	"github.com/google/uuid"
)

const (
	interviewColumns = `id, user_id, industry, topic, type, role, difficulty, num_of_questions, duration,
		duration_left, status, answered, questions, version, created_at, updated_at, completed_at`
)

// InterviewFilterSchema lists the interview fields clients may filter, sort and select.
var InterviewFilterSchema = apifilter.Schema{
	"id":               {Column: "id", Document: "_id", Kind: apifilter.KindUUID},
	"user_id":          {Kind: apifilter.KindUUID},
	"industry":         {},
	"topic":            {},
	"type":             {},
	"role":             {},
	"difficulty":       {},
	"status":           {},
	"num_of_questions": {Kind: apifilter.KindInt},
	"duration":         {Kind: apifilter.KindInt},
	"duration_left":    {Kind: apifilter.KindInt},
	"answered":         {Kind: apifilter.KindInt},
	"created_at":       {Kind: apifilter.KindTime},
	"updated_at":       {Kind: apifilter.KindTime},
	"completed_at":     {Kind: apifilter.KindTime},
	"questions":        {SelectOnly: true},
}

type interviewRepository struct {
	db *sql.DB
}

func NewInterviewRepository(db *sql.DB) domain.InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) Create(ctx context.Context, interview *domain.Interview) error {
	questionsJSON, err := json.Marshal(interview.Questions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO interviews (id, user_id, industry, topic, type, role, difficulty, num_of_questions, duration,
			duration_left, status, answered, questions, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.db.ExecContext(ctx, query,
		interview.ID,
		interview.UserID,
		interview.Industry,
		interview.Topic,
		interview.Type,
		interview.Role,
		interview.Difficulty,
		interview.NumOfQuestions,
		interview.Duration,
		interview.DurationLeft,
		interview.Status,
		interview.Answered,
		questionsJSON,
		interview.Version,
		interview.CreatedAt,
		interview.UpdatedAt,
	)
	return err
}

func (r *interviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Interview, error) {
	query := `
		SELECT ` + interviewColumns + `
		FROM interviews
		WHERE id = $1
	`
	return scanInterview(r.db.QueryRowContext(ctx, query, id))
}

func (r *interviewRepository) FindAll(ctx context.Context, q apifilter.Query) ([]domain.Interview, error) {
	clause, err := q.ToSQL(InterviewFilterSchema, 1)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + interviewColumns + ` FROM interviews ` + clause.String()
	return r.queryInterviews(ctx, query, clause.Args...)
}

func (r *interviewRepository) Count(ctx context.Context, q apifilter.Query) (int64, error) {
	clause, err := q.ToSQL(InterviewFilterSchema, 1)
	if err != nil {
		return 0, err
	}

	var count int64
	query := `SELECT COUNT(id) FROM interviews ` + clause.Where
	err = r.db.QueryRowContext(ctx, query, clause.Args...).Scan(&count)
	return count, err
}

func (r *interviewRepository) FindByUserBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Interview, error) {
	query := `
		SELECT ` + interviewColumns + `
		FROM interviews
		WHERE user_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at ASC
	`
	return r.queryInterviews(ctx, query, userID, start, end)
}

func (r *interviewRepository) FindInProgressCreatedBefore(ctx context.Context, before time.Time) ([]domain.Interview, error) {
	query := `
		SELECT ` + interviewColumns + `
		FROM interviews
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
	`
	return r.queryInterviews(ctx, query, domain.InterviewStatusInProgress, before)
}

// Update writes the interview only if its stored version still matches
// interview.Version, then bumps the version on success.
func (r *interviewRepository) Update(ctx context.Context, interview *domain.Interview) error {
	questionsJSON, err := json.Marshal(interview.Questions)
	if err != nil {
		return err
	}

	query := `
		UPDATE interviews
		SET duration_left = $1, status = $2, answered = $3, questions = $4,
			updated_at = $5, completed_at = $6, version = version + 1
		WHERE id = $7 AND version = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		interview.DurationLeft,
		interview.Status,
		interview.Answered,
		questionsJSON,
		interview.UpdatedAt,
		interview.CompletedAt,
		interview.ID,
		interview.Version,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM interviews WHERE id = $1)`, interview.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrRecordNotFound
		}
		return domain.ErrStaleRecord
	}

	interview.Version++
	return nil
}

func (r *interviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	return expectAffected(result, err)
}

func (r *interviewRepository) queryInterviews(ctx context.Context, query string, args ...any) ([]domain.Interview, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interviews := make([]domain.Interview, 0)
	for rows.Next() {
		interview, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, *interview)
	}
	return interviews, rows.Err()
}

func scanInterview(row rowScanner) (*domain.Interview, error) {
	var interview domain.Interview
	var questionsJSON []byte
	var status string
	err := row.Scan(
		&interview.ID,
		&interview.UserID,
		&interview.Industry,
		&interview.Topic,
		&interview.Type,
		&interview.Role,
		&interview.Difficulty,
		&interview.NumOfQuestions,
		&interview.Duration,
		&interview.DurationLeft,
		&status,
		&interview.Answered,
		&questionsJSON,
		&interview.Version,
		&interview.CreatedAt,
		&interview.UpdatedAt,
		&interview.CompletedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	interview.Status = domain.InterviewStatus(status)
	if err := json.Unmarshal(questionsJSON, &interview.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions of interview %s: %w", interview.ID, err)
	}
	return &interview, nil
}
