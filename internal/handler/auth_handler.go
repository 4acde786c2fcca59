package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService domain.AuthService
}

func NewAuthHandler(authService domain.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req domain.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusCreated, "registration successful", result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req domain.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "login successful", result)
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state, err := generateState()
	if err != nil {
		return response.InternalError(c, "failed to start google login")
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	return c.Redirect(h.authService.GetGoogleLoginURL(state))
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return response.BadRequest(c, "missing authorization code")
	}

	expected := c.Cookies(oauthStateCookie)
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(c.Query("state"))) != 1 {
		return response.BadRequest(c, "invalid oauth state")
	}
	c.ClearCookie(oauthStateCookie)

	result, err := h.authService.HandleGoogleCallback(c.UserContext(), code)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "login successful", result)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
