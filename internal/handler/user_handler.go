package handler

import (
	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/middleware"
	"github.com/raflytch/prepwise-server/pkg/imagekit"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService domain.UserService
	uploader    imagekit.AvatarUploader
}

func NewUserHandler(userService domain.UserService, uploader imagekit.AvatarUploader) *UserHandler {
	return &UserHandler{
		userService: userService,
		uploader:    uploader,
	}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	profile, err := h.userService.GetProfile(c.UserContext(), user.ID)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "profile retrieved", profile)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	var req domain.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	updated, err := h.userService.Update(c.UserContext(), user.ID, req.Name)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "user updated", updated)
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return response.BadRequest(c, "avatar file is required")
	}

	uploaded, err := h.uploader.UploadAvatar(c.UserContext(), file, user.ID.String())
	if err != nil {
		return handleError(c, domain.NewError(domain.KindUpstream, "failed to upload avatar", err))
	}

	updated, err := h.userService.UpdateAvatar(c.UserContext(), user.ID, uploaded.URL)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "avatar updated", updated)
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "user")
	if err != nil {
		return handleError(c, err)
	}

	user, err := h.userService.GetByID(c.UserContext(), id)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "user retrieved", user)
}

func (h *UserHandler) GetAll(c *fiber.Ctx) error {
	result, err := h.userService.GetAll(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "users retrieved", result)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetUserFromContext(c)
	if currentUser == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := parseID(c, "user")
	if err != nil {
		return handleError(c, err)
	}

	if currentUser.ID == id {
		return response.BadRequest(c, "cannot delete your own account")
	}

	if err := h.userService.Delete(c.UserContext(), id, currentUser.Role); err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "user deleted", nil)
}
