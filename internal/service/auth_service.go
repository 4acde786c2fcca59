package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/raflytch/prepwise-server/internal/config"
	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/jwt"
	"github.com/raflytch/prepwise-server/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	userCachePrefix   = "user:"
	userCacheDuration = 15 * time.Minute

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	ErrFailedToExchangeToken = domain.NewError(domain.KindUnauthenticated, "failed to exchange token", nil)
	ErrFailedToGetUserInfo   = domain.NewError(domain.KindUpstream, "failed to get user info", nil)
	ErrInvalidToken          = domain.NewError(domain.KindUnauthenticated, "invalid or expired token", nil)
)

type authService struct {
	userRepo    domain.UserRepository
	cacheRepo   domain.CacheRepository
	oauthConfig *oauth2.Config
	jwtManager  *jwt.JWTManager
	logger      *zap.Logger
}

func NewAuthService(
	userRepo domain.UserRepository,
	cacheRepo domain.CacheRepository,
	cfg config.GoogleConfig,
	jwtManager *jwt.JWTManager,
	logger *zap.Logger,
) domain.AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		userRepo:    userRepo,
		cacheRepo:   cacheRepo,
		oauthConfig: oauthConfig,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), nil)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	passwordHash := string(hash)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: &passwordHash,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.NewError(domain.KindCreation, "failed to create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issueToken(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, domain.NewError(domain.KindValidation, err.Error(), nil)
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// Accounts created through Google have no password.
	if user.PasswordHash == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrUserNotActive
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	return s.issueToken(ctx, user)
}

func (s *authService) GetGoogleLoginURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *authService) HandleGoogleCallback(ctx context.Context, code string) (*domain.AuthResponse, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("google token exchange failed", zap.Error(err))
		return nil, ErrFailedToExchangeToken
	}

	googleUser, err := s.fetchGoogleUser(ctx, token)
	if err != nil {
		s.logger.Warn("google user info failed", zap.Error(err))
		return nil, ErrFailedToGetUserInfo
	}

	user, err := s.findOrCreateGoogleUser(ctx, googleUser)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrUserNotActive
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	return s.issueToken(ctx, user)
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.jwtManager.Validate(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	cacheKey := userCachePrefix + claims.UserID.String()
	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			if !user.IsActive {
				return nil, domain.ErrUserNotActive
			}
			return &user, nil
		}
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserNotActive
	}

	_ = s.cacheRepo.Set(ctx, cacheKey, user, userCacheDuration)
	return user, nil
}

func (s *authService) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*domain.GoogleUserInfo, error) {
	resp, err := s.oauthConfig.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var googleUser domain.GoogleUserInfo
	if err := json.Unmarshal(body, &googleUser); err != nil {
		return nil, err
	}
	if googleUser.ID == "" {
		return nil, errors.New("google user info has no id")
	}
	return &googleUser, nil
}

// findOrCreateGoogleUser links the Google account to an existing user with the
// same email before falling back to creating a new one.
func (s *authService) findOrCreateGoogleUser(ctx context.Context, info *domain.GoogleUserInfo) (*domain.User, error) {
	user, err := s.userRepo.FindByGoogleID(ctx, info.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	user, err = s.userRepo.FindByEmail(ctx, info.Email)
	if err == nil {
		if err := s.userRepo.LinkGoogleAccount(ctx, user.ID, info.ID); err != nil {
			return nil, err
		}
		user.GoogleID = &info.ID
		return user, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	user = &domain.User{
		ID:        uuid.New(),
		GoogleID:  &info.ID,
		Email:     strings.ToLower(info.Email),
		Name:      info.Name,
		Role:      domain.RoleUser,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if info.Picture != "" {
		user.AvatarURL = &info.Picture
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.NewError(domain.KindCreation, "failed to create user", err)
	}
	return user, nil
}

func (s *authService) issueToken(ctx context.Context, user *domain.User) (*domain.AuthResponse, error) {
	token, err := s.jwtManager.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	_ = s.cacheRepo.Set(ctx, userCachePrefix+user.ID.String(), user, userCacheDuration)

	return &domain.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}
