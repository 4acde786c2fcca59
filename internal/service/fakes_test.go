package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/apifilter"
	"github.com/raflytch/prepwise-server/pkg/genai"

	"github.com/google/uuid"
)

type fakeTextGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
	opts    []genai.GenerateOptions
}

func (f *fakeTextGenerator) Generate(_ context.Context, prompt string, opts genai.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	return f.text, f.err
}

func (f *fakeTextGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeQuestionGenerator struct {
	questions []string
	err       error
	calls     int
	last      domain.GenerateQuestionsParams
}

func (f *fakeQuestionGenerator) Generate(_ context.Context, params domain.GenerateQuestionsParams) ([]domain.Question, error) {
	f.calls++
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Question, 0, len(f.questions))
	for _, q := range f.questions {
		out = append(out, domain.Question{ID: uuid.New(), Question: q})
	}
	return out, nil
}

type fakeEvaluator struct {
	result domain.Result
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(_ context.Context, _, _ string) (*domain.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	return &r, nil
}

type fakeQuota struct {
	err        error
	checks     int
	increments int
}

func (f *fakeQuota) CheckUsage(_ context.Context, _ uuid.UUID, _ domain.FeatureType) error {
	f.checks++
	return f.err
}

func (f *fakeQuota) IncrementUsage(_ context.Context, _ uuid.UUID, _ domain.FeatureType) error {
	f.increments++
	return nil
}

func (f *fakeQuota) GetUserQuota(_ context.Context, _ uuid.UUID) (*domain.UserQuota, error) {
	return &domain.UserQuota{}, nil
}

type fakeStats struct {
	invalidated []uuid.UUID
}

func (f *fakeStats) GetStats(_ context.Context, _ uuid.UUID, _, _ string) (*domain.InterviewStats, error) {
	return &domain.InterviewStats{Stats: []domain.DailyStats{}}, nil
}

func (f *fakeStats) Invalidate(_ context.Context, userID uuid.UUID) {
	f.invalidated = append(f.invalidated, userID)
}

type fakeInterviewRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]domain.Interview
	createErr error
	updateErr error
	findErr   error
	updates   int
	lastPage  apifilter.Query
	lastCount apifilter.Query
}

func newFakeInterviewRepo() *fakeInterviewRepo {
	return &fakeInterviewRepo{items: map[uuid.UUID]domain.Interview{}}
}

func copyInterview(in domain.Interview) domain.Interview {
	out := in
	out.Questions = make([]domain.Question, len(in.Questions))
	for i, q := range in.Questions {
		if q.Answer != nil {
			a := *q.Answer
			q.Answer = &a
		}
		out.Questions[i] = q
	}
	if in.CompletedAt != nil {
		t := *in.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

func (r *fakeInterviewRepo) put(interview domain.Interview) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[interview.ID] = copyInterview(interview)
}

func (r *fakeInterviewRepo) get(id uuid.UUID) (domain.Interview, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.items[id]
	return copyInterview(in), ok
}

func (r *fakeInterviewRepo) Create(_ context.Context, interview *domain.Interview) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.put(*interview)
	return nil
}

func (r *fakeInterviewRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Interview, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	in, ok := r.get(id)
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &in, nil
}

func (r *fakeInterviewRepo) owned(q apifilter.Query) []domain.Interview {
	var owner string
	for _, c := range q.Conditions {
		if c.Field == "user_id" && len(c.Values) == 1 {
			owner = c.Values[0]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Interview
	for _, in := range r.items {
		if owner == "" || in.UserID.String() == owner {
			out = append(out, copyInterview(in))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeInterviewRepo) FindAll(_ context.Context, q apifilter.Query) ([]domain.Interview, error) {
	r.lastPage = q
	all := r.owned(q)
	if q.Skip >= len(all) {
		return nil, nil
	}
	end := len(all)
	if q.Limit > 0 && q.Skip+q.Limit < end {
		end = q.Skip + q.Limit
	}
	return all[q.Skip:end], nil
}

func (r *fakeInterviewRepo) Count(_ context.Context, q apifilter.Query) (int64, error) {
	r.lastCount = q
	return int64(len(r.owned(q))), nil
}

func (r *fakeInterviewRepo) FindByUserBetween(_ context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Interview
	for _, in := range r.items {
		if in.UserID == userID && !in.CreatedAt.Before(start) && !in.CreatedAt.After(end) {
			out = append(out, copyInterview(in))
		}
	}
	return out, nil
}

func (r *fakeInterviewRepo) FindInProgressCreatedBefore(_ context.Context, before time.Time) ([]domain.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Interview
	for _, in := range r.items {
		if in.Status == domain.InterviewStatusInProgress && in.CreatedAt.Before(before) {
			out = append(out, copyInterview(in))
		}
	}
	return out, nil
}

func (r *fakeInterviewRepo) Update(_ context.Context, interview *domain.Interview) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[interview.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Version != interview.Version {
		return domain.ErrStaleRecord
	}
	interview.Version++
	r.items[interview.ID] = copyInterview(*interview)
	r.updates++
	return nil
}

func (r *fakeInterviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := jsonString(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = data
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := pattern
	if n := len(prefix); n > 0 && prefix[n-1] == '*' {
		prefix = prefix[:n-1]
	}
	for k := range c.values {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.values, k)
		}
	}
	return nil
}

func jsonString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
