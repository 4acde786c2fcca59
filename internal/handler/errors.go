package handler

import (
	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// StatusOf maps an error kind onto the HTTP status the API reports for it.
func StatusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindUpstream, domain.KindGeneration, domain.KindEvaluation:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError writes err as an error envelope. Errors without a kind are
// reported as internal and their text is not exposed.
func handleError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	message := domain.MessageOf(err)
	if kind == domain.KindInternal {
		message = "internal server error"
	}
	return response.ErrorWithCode(c, StatusOf(kind), string(kind), message)
}

func parseID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.NewError(domain.KindValidation, "invalid "+what+" id", err)
	}
	return id, nil
}

func queryParams(c *fiber.Ctx) map[string][]string {
	params := map[string][]string{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		params[k] = append(params[k], string(value))
	})
	return params
}
