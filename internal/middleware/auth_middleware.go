package middleware

import (
	"errors"
	"strings"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const UserContextKey = "user"

type AuthMiddleware struct {
	authService domain.AuthService
}

func NewAuthMiddleware(authService domain.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "missing authorization header")
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return response.Unauthorized(c, "invalid authorization header format")
		}

		user, err := m.authService.ValidateToken(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotActive) {
				return response.Forbidden(c, "user account is not active")
			}
			return response.Unauthorized(c, "invalid or expired token")
		}

		c.Locals(UserContextKey, user)
		return c.Next()
	}
}

// OptionalAuthenticate attaches the user when a valid bearer token is present
// and lets anonymous requests through untouched.
func (m *AuthMiddleware) OptionalAuthenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c.Get(fiber.HeaderAuthorization)); ok {
			if user, err := m.authService.ValidateToken(c.UserContext(), token); err == nil {
				c.Locals(UserContextKey, user)
			}
		}
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func GetUserFromContext(c *fiber.Ctx) *domain.User {
	user, ok := c.Locals(UserContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
