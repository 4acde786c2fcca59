package handler

import (
	"fmt"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/middleware"
	"github.com/raflytch/prepwise-server/pkg/apifilter"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type InterviewHandler struct {
	interviewService domain.InterviewService
	statsService     domain.StatsService
}

func NewInterviewHandler(interviewService domain.InterviewService, statsService domain.StatsService) *InterviewHandler {
	return &InterviewHandler{
		interviewService: interviewService,
		statsService:     statsService,
	}
}

func (h *InterviewHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	var req domain.CreateInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.interviewService.Create(c.UserContext(), user.ID, &req)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusCreated, "interview created", result)
}

type interviewListResponse struct {
	Interviews    []map[string]any `json:"interviews"`
	ResPerPage    int              `json:"res_per_page"`
	FilteredCount int64            `json:"filtered_count"`
}

func (h *InterviewHandler) List(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	list, err := h.interviewService.List(c.UserContext(), user.ID, queryParams(c))
	if err != nil {
		return handleError(c, err)
	}

	projected, err := apifilter.Project(list.Interviews, list.Fields)
	if err != nil {
		return handleError(c, fmt.Errorf("failed to project interviews: %w", err))
	}

	return response.Success(c, fiber.StatusOK, "interviews retrieved", interviewListResponse{
		Interviews:    projected,
		ResPerPage:    list.ResPerPage,
		FilteredCount: list.FilteredCount,
	})
}

func (h *InterviewHandler) Stats(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	stats, err := h.statsService.GetStats(c.UserContext(), user.ID, c.Query("start"), c.Query("end"))
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "interview stats retrieved", stats)
}

func (h *InterviewHandler) GetByID(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := parseID(c, "interview")
	if err != nil {
		return handleError(c, err)
	}

	interview, err := h.interviewService.GetByID(c.UserContext(), user.ID, id)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "interview retrieved", interview)
}

func (h *InterviewHandler) Update(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := parseID(c, "interview")
	if err != nil {
		return handleError(c, err)
	}

	var req domain.UpdateInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.interviewService.UpdateDetails(c.UserContext(), user.ID, id, &req)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "interview updated", result)
}

func (h *InterviewHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := parseID(c, "interview")
	if err != nil {
		return handleError(c, err)
	}

	result, err := h.interviewService.Delete(c.UserContext(), user.ID, id)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "interview deleted", result)
}

func (h *InterviewHandler) Report(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := parseID(c, "interview")
	if err != nil {
		return handleError(c, err)
	}

	pdf, err := h.interviewService.Report(c.UserContext(), user.ID, id)
	if err != nil {
		return handleError(c, err)
	}

	return response.PDF(c, "interview-"+id.String()+".pdf", pdf)
}
