package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/midtrans"

	"github.com/google/uuid"
)

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[uuid.UUID]domain.User
	lastLogins int
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.GoogleID != nil && *u.GoogleID == googleID && u.DeletedAt == nil {
			return &u, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) && u.DeletedAt == nil {
			return &u, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeUserRepo) FindAll(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		out = append(out, u)
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(_ context.Context, id uuid.UUID, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	u.AvatarURL = &avatarURL
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) LinkGoogleAccount(_ context.Context, id uuid.UUID, googleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	u.GoogleID = &googleID
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.ErrRecordNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLogins++
	return nil
}

type fakePlanRepo struct {
	plans map[uuid.UUID]domain.Plan
}

func newFakePlanRepo(plans ...domain.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: map[uuid.UUID]domain.Plan{}}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.Plan) error {
	r.plans[plan.ID] = *plan
	return nil
}

func (r *fakePlanRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok || p.DeletedAt != nil {
		return nil, domain.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakePlanRepo) FindByName(_ context.Context, name string) (*domain.Plan, error) {
	for _, p := range r.plans {
		if p.Name == name && p.DeletedAt == nil {
			return &p, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakePlanRepo) visible(includeInactive bool) []domain.Plan {
	var out []domain.Plan
	for _, p := range r.plans {
		if p.DeletedAt == nil && (includeInactive || p.IsActive) {
			out = append(out, p)
		}
	}
	return out
}

func (r *fakePlanRepo) FindAll(_ context.Context, limit, offset int, includeInactive bool) ([]domain.Plan, error) {
	all := r.visible(includeInactive)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakePlanRepo) Count(_ context.Context, includeInactive bool) (int64, error) {
	return int64(len(r.visible(includeInactive))), nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.Plan) error {
	if _, ok := r.plans[plan.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	r.plans[plan.ID] = *plan
	return nil
}

func (r *fakePlanRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.plans[id]
	if !ok || p.DeletedAt != nil {
		return domain.ErrRecordNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	r.plans[id] = p
	return nil
}

type fakeSubscriptionRepo struct {
	subs    map[uuid.UUID]domain.Subscription
	plans   *fakePlanRepo
	findErr error
}

func newFakeSubscriptionRepo(plans *fakePlanRepo) *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[uuid.UUID]domain.Subscription{}, plans: plans}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *domain.Subscription) error {
	r.subs[sub.ID] = *sub
	return nil
}

func (r *fakeSubscriptionRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Subscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeSubscriptionRepo) FindActiveByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == domain.SubscriptionStatusActive {
			if r.plans != nil {
				if p, err := r.plans.FindByID(ctx, s.PlanID); err == nil {
					s.Plan = p
				}
			}
			return &s, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *domain.Subscription) error {
	if _, ok := r.subs[sub.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	stored := *sub
	stored.Plan = nil
	r.subs[sub.ID] = stored
	return nil
}

func (r *fakeSubscriptionRepo) active(userID uuid.UUID) []domain.Subscription {
	var out []domain.Subscription
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == domain.SubscriptionStatusActive {
			out = append(out, s)
		}
	}
	return out
}

type fakeUsageRepo struct {
	usage map[string]*domain.Usage
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{usage: map[string]*domain.Usage{}}
}

func usageKey(userID uuid.UUID, feature domain.FeatureType, period time.Time) string {
	return userID.String() + ":" + string(feature) + ":" + period.Format("2006-01")
}

func (r *fakeUsageRepo) FindOrCreate(_ context.Context, userID uuid.UUID, feature domain.FeatureType, period time.Time) (*domain.Usage, error) {
	key := usageKey(userID, feature, period)
	u, ok := r.usage[key]
	if !ok {
		u = &domain.Usage{ID: uuid.New(), UserID: userID, Feature: feature, PeriodMonth: period}
		r.usage[key] = u
	}
	out := *u
	return &out, nil
}

func (r *fakeUsageRepo) IncrementCount(_ context.Context, id uuid.UUID) error {
	for _, u := range r.usage {
		if u.ID == id {
			u.Count++
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

type fakeTransactionRepo struct {
	txs map[uuid.UUID]domain.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txs: map[uuid.UUID]domain.Transaction{}}
}

func (r *fakeTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.txs[tx.ID] = *tx
	return nil
}

func (r *fakeTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &tx, nil
}

func (r *fakeTransactionRepo) FindByOrderID(_ context.Context, orderID string) (*domain.Transaction, error) {
	for _, tx := range r.txs {
		if tx.OrderID == orderID {
			return &tx, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeTransactionRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range r.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *fakeTransactionRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, tx := range r.txs {
		if tx.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) Update(_ context.Context, tx *domain.Transaction) error {
	if _, ok := r.txs[tx.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	r.txs[tx.ID] = *tx
	return nil
}

type fakeGateway struct {
	serverKey  string
	status     midtrans.TransactionStatusResponse
	createErr  error
	checkErr   error
	created    []midtrans.CreateTransactionRequest
	checkCalls int
}

func (g *fakeGateway) CreateSnapTransaction(req midtrans.CreateTransactionRequest) (*midtrans.CreateTransactionResponse, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	return &midtrans.CreateTransactionResponse{
		Token:       "snap-token",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token",
	}, nil
}

func (g *fakeGateway) CheckTransaction(orderID string) (*midtrans.TransactionStatusResponse, error) {
	g.checkCalls++
	if g.checkErr != nil {
		return nil, g.checkErr
	}
	status := g.status
	status.OrderID = orderID
	return &status, nil
}

func (g *fakeGateway) VerifySignatureKey(orderID, statusCode, grossAmount, signatureKey string) bool {
	return midtrans.Signature(orderID, statusCode, grossAmount, g.serverKey) == signatureKey
}
