package service

import (
	"context"
	"testing"
	"time"

	"github.com/raflytch/prepwise-server/internal/config"
	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/jwt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(users *fakeUserRepo, cache *fakeCache) domain.AuthService {
	return NewAuthService(users, cache, config.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/api/v1/auth/google/callback",
	}, jwt.NewJWTManager("test-secret", 1), nil)
}

func TestRegisterThenLogin(t *testing.T) {
	users := newFakeUserRepo()
	cache := newFakeCache()
	auth := newTestAuthService(users, cache)
	ctx := context.Background()

	reg, err := auth.Register(ctx, &domain.RegisterRequest{Name: "Rina", Email: "Rina@Example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "rina@example.com", reg.User.Email)
	assert.Equal(t, domain.RoleUser, reg.User.Role)

	stored, err := users.FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "s3cretpass", *stored.PasswordHash)

	_, err = auth.Register(ctx, &domain.RegisterRequest{Name: "Other", Email: "rina@example.com", Password: "anotherpass"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	login, err := auth.Login(ctx, &domain.LoginRequest{Email: "rina@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.Equal(t, 1, users.lastLogins)

	_, err = auth.Login(ctx, &domain.LoginRequest{Email: "rina@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = auth.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	auth := newTestAuthService(newFakeUserRepo(), newFakeCache())

	_, err := auth.Register(context.Background(), &domain.RegisterRequest{Name: "R", Email: "not-an-email", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoginRejectsGoogleOnlyAndInactiveUsers(t *testing.T) {
	googleID := "g-123"
	googleOnly := domain.User{ID: uuid.New(), Email: "g@example.com", GoogleID: &googleID, IsActive: true}
	users := newFakeUserRepo(googleOnly)
	auth := newTestAuthService(users, newFakeCache())
	ctx := context.Background()

	_, err := auth.Login(ctx, &domain.LoginRequest{Email: "g@example.com", Password: "anything"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	reg, err := auth.Register(ctx, &domain.RegisterRequest{Name: "Dani", Email: "dani@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	u, _ := users.FindByID(ctx, reg.User.ID)
	u.IsActive = false
	require.NoError(t, users.Update(ctx, u))

	_, err = auth.Login(ctx, &domain.LoginRequest{Email: "dani@example.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, domain.ErrUserNotActive)
}

func TestValidateToken(t *testing.T) {
	users := newFakeUserRepo()
	cache := newFakeCache()
	auth := newTestAuthService(users, cache)
	ctx := context.Background()

	reg, err := auth.Register(ctx, &domain.RegisterRequest{Name: "Rina", Email: "rina@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	user, err := auth.ValidateToken(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)

	// A cold cache falls back to the repository.
	require.NoError(t, cache.Delete(ctx, userCachePrefix+reg.User.ID.String()))
	user, err = auth.ValidateToken(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, "Rina", user.Name)

	_, err = auth.ValidateToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestFindOrCreateGoogleUserLinksExistingEmail(t *testing.T) {
	existing := domain.User{ID: uuid.New(), Email: "rina@example.com", Name: "Rina", IsActive: true}
	users := newFakeUserRepo(existing)
	svc := newTestAuthService(users, newFakeCache()).(*authService)
	ctx := context.Background()

	user, err := svc.findOrCreateGoogleUser(ctx, &domain.GoogleUserInfo{ID: "g-1", Email: "rina@example.com", Name: "Rina"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)

	linked, err := users.FindByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)

	fresh, err := svc.findOrCreateGoogleUser(ctx, &domain.GoogleUserInfo{ID: "g-2", Email: "New@Example.com", Name: "New", Picture: "https://img/p.png"})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, fresh.ID)
	assert.Equal(t, "new@example.com", fresh.Email)
	require.NotNil(t, fresh.AvatarURL)
	assert.Equal(t, "https://img/p.png", *fresh.AvatarURL)
}

func TestUserProfileAndAdminDelete(t *testing.T) {
	plan := domain.Plan{ID: uuid.New(), Name: "pro", DisplayName: "Pro", Price: decimal.NewFromInt(1), MaxInterviews: intPtr(10), IsActive: true}
	plans := newFakePlanRepo(plan)
	subs := newFakeSubscriptionRepo(plans)
	usage := newFakeUsageRepo()
	user := domain.User{ID: uuid.New(), Email: "rina@example.com", Name: "Rina", IsActive: true}
	users := newFakeUserRepo(user)
	cache := newFakeCache()
	ctx := context.Background()

	require.NoError(t, subs.Create(ctx, &domain.Subscription{ID: uuid.New(), UserID: user.ID, PlanID: plan.ID, Status: domain.SubscriptionStatusActive}))

	quota := NewQuotaService(subs, usage)
	svc := NewUserService(users, cache, subs, quota, nil)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Subscription)
	require.NotNil(t, profile.Quota)
	assert.Equal(t, 10, profile.Quota.MaxInterviews)
	assert.Equal(t, "Pro", profile.Quota.PlanName)

	_, err = svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	_, cached := cache.values[userCachePrefix+user.ID.String()]
	assert.True(t, cached)

	updated, err := svc.Update(ctx, user.ID, "  Rina Putri ")
	require.NoError(t, err)
	assert.Equal(t, "Rina Putri", updated.Name)
	_, cached = cache.values[userCachePrefix+user.ID.String()]
	assert.False(t, cached)

	_, err = svc.Update(ctx, user.ID, "x")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, user.ID, domain.RoleUser), domain.ErrForbiddenAction)
	require.NoError(t, svc.Delete(ctx, user.ID, domain.RoleAdmin))
	_, err = svc.GetProfile(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestQuotaEnforcesMonthlyLimit(t *testing.T) {
	plan := domain.Plan{ID: uuid.New(), Name: "basic", DisplayName: "Basic", MaxInterviews: intPtr(2), IsActive: true}
	plans := newFakePlanRepo(plan)
	subs := newFakeSubscriptionRepo(plans)
	usage := newFakeUsageRepo()
	userID := uuid.New()
	ctx := context.Background()

	svc := NewQuotaService(subs, usage).(*quotaService)
	now := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	err := svc.CheckUsage(ctx, userID, domain.FeatureInterview)
	assert.ErrorIs(t, err, ErrSubscriptionRequired)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, subs.Create(ctx, &domain.Subscription{ID: uuid.New(), UserID: userID, PlanID: plan.ID, Status: domain.SubscriptionStatusActive}))

	// Checking alone never consumes the quota.
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.CheckUsage(ctx, userID, domain.FeatureInterview))
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.CheckUsage(ctx, userID, domain.FeatureInterview))
		require.NoError(t, svc.IncrementUsage(ctx, userID, domain.FeatureInterview))
	}
	assert.ErrorIs(t, svc.CheckUsage(ctx, userID, domain.FeatureInterview), ErrQuotaExceeded)

	quota, err := svc.GetUserQuota(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, quota.UsedInterviews)

	// A new month starts a fresh counter.
	now = now.Add(2 * time.Hour)
	require.NoError(t, svc.CheckUsage(ctx, userID, domain.FeatureInterview))
}

func TestQuotaUnlimitedPlan(t *testing.T) {
	plan := domain.Plan{ID: uuid.New(), Name: "unlimited", DisplayName: "Unlimited", IsActive: true}
	plans := newFakePlanRepo(plan)
	subs := newFakeSubscriptionRepo(plans)
	userID := uuid.New()
	ctx := context.Background()
	require.NoError(t, subs.Create(ctx, &domain.Subscription{ID: uuid.New(), UserID: userID, PlanID: plan.ID, Status: domain.SubscriptionStatusActive}))

	svc := NewQuotaService(subs, newFakeUsageRepo())
	for i := 0; i < 25; i++ {
		require.NoError(t, svc.CheckUsage(ctx, userID, domain.FeatureInterview))
		require.NoError(t, svc.IncrementUsage(ctx, userID, domain.FeatureInterview))
	}
}

func TestPlanServiceCachesListAndRejectsDuplicates(t *testing.T) {
	plans := newFakePlanRepo()
	cache := newFakeCache()
	svc := NewPlanService(plans, cache)
	ctx := context.Background()

	created, err := svc.Create(ctx, &domain.CreatePlanRequest{Name: " Pro ", DisplayName: "Pro", Price: decimal.NewFromInt(150000), MaxInterviews: intPtr(20)})
	require.NoError(t, err)
	assert.Equal(t, "pro", created.Name)
	assert.True(t, created.IsActive)

	_, err = svc.Create(ctx, &domain.CreatePlanRequest{Name: "PRO", DisplayName: "Pro again", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrPlanNameExists)

	_, err = svc.Create(ctx, &domain.CreatePlanRequest{Name: "neg", DisplayName: "Negative", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrNegativePrice)

	list, err := svc.GetAll(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.Len(t, list.Plans, 1)
	_, cached := cache.values["plans:list:1:10:false"]
	assert.True(t, cached)

	name := "Premium"
	_, err = svc.Update(ctx, created.ID, &domain.UpdatePlanRequest{Name: &name})
	require.NoError(t, err)
	_, cached = cache.values["plans:list:1:10:false"]
	assert.False(t, cached)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrPlanNotFound)
}
