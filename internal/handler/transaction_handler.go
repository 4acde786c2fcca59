package handler

import (
	"errors"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/middleware"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	transactionService domain.TransactionService
	logger             *zap.Logger
}

func NewTransactionHandler(transactionService domain.TransactionService, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// CreateTransaction returns the Snap token the client uses to open the payment page.
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	var req domain.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.transactionService.CreateTransaction(c.UserContext(), user.ID, &req)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusCreated, "transaction created, redirect to payment page", result)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := parseID(c, "transaction")
	if err != nil {
		return handleError(c, err)
	}

	transaction, err := h.transactionService.GetByID(c.UserContext(), user.ID, id)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "transaction retrieved", transaction)
}

func (h *TransactionHandler) GetUserTransactions(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	result, err := h.transactionService.GetUserTransactions(c.UserContext(), user.ID, c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "transactions retrieved", result)
}

func (h *TransactionHandler) CheckTransactionStatus(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := parseID(c, "transaction")
	if err != nil {
		return handleError(c, err)
	}

	transaction, err := h.transactionService.GetByID(c.UserContext(), user.ID, id)
	if err != nil {
		return handleError(c, err)
	}

	updated, err := h.transactionService.CheckTransactionStatus(c.UserContext(), transaction.OrderID)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "transaction status updated", updated)
}

// MidtransWebhook is called by Midtrans, not by users. Any non 2xx reply makes
// Midtrans redeliver, so only bad signatures and malformed payloads are refused.
func (h *TransactionHandler) MidtransWebhook(c *fiber.Ctx) error {
	var payload map[string]interface{}
	if err := c.BodyParser(&payload); err != nil {
		return response.BadRequest(c, "invalid webhook payload")
	}

	orderID, _ := payload["order_id"].(string)
	transactionStatus, _ := payload["transaction_status"].(string)
	log := h.logger.With(zap.String("order_id", orderID), zap.String("transaction_status", transactionStatus))
	log.Info("midtrans notification received")

	err := h.transactionService.HandleWebhook(c.UserContext(), payload)
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrInvalidOrderID):
		log.Warn("midtrans notification rejected", zap.Error(err))
		return handleError(c, err)
	case errors.Is(err, domain.ErrTransactionNotFound):
		log.Warn("midtrans notification for unknown order")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored", "message": "order not found"})
	default:
		log.Error("midtrans notification failed", zap.Error(err))
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "error"})
	}
}
