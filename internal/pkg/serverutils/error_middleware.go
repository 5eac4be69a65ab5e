package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"realtime-chat-be/internal/gateway"
)

// ErrorHandlerMiddleware converts domain errors escaping a handler into
// consistent JSON responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, gateway.ErrNotFound):
			status = fiber.StatusNotFound
			message = err.Error()
		case errors.Is(err, gateway.ErrDuplicateKey):
			status = fiber.StatusConflict
			message = err.Error()
		case errors.Is(err, gateway.ErrInvalidCredentials):
			status = fiber.StatusUnauthorized
			message = err.Error()
		case errors.Is(err, gateway.ErrConstraintViolation):
			status = fiber.StatusUnprocessableEntity
			message = err.Error()
		}

		return ctx.Status(status).JSON(fiber.Map{"message": message})
	}
}
