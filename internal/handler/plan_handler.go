package handler

import (
	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/middleware"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type PlanHandler struct {
	planService domain.PlanService
}

func NewPlanHandler(planService domain.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var req domain.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	plan, err := h.planService.Create(c.UserContext(), &req)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusCreated, "plan created", plan)
}

func (h *PlanHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "plan")
	if err != nil {
		return handleError(c, err)
	}

	plan, err := h.planService.GetByID(c.UserContext(), id)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "plan retrieved", plan)
}

// GetAll lists purchasable plans. Only admins may ask for inactive ones.
func (h *PlanHandler) GetAll(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	includeInactive := false
	if user := middleware.GetUserFromContext(c); user != nil && user.Role == domain.RoleAdmin {
		includeInactive = c.QueryBool("include_inactive", false)
	}

	result, err := h.planService.GetAll(c.UserContext(), page, limit, includeInactive)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "plans retrieved", result)
}

func (h *PlanHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "plan")
	if err != nil {
		return handleError(c, err)
	}

	var req domain.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	plan, err := h.planService.Update(c.UserContext(), id, &req)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "plan updated", plan)
}

func (h *PlanHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "plan")
	if err != nil {
		return handleError(c, err)
	}

	if err := h.planService.Delete(c.UserContext(), id); err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "plan deleted", nil)
}
