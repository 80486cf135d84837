package serverutils

import (
	"errors"

	"stallpick-be/internal/entity"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope. Sentinel errors from the domain decide the status code.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, body := MapError(err)
		return ctx.Status(code).JSON(body)
	}
}

func MapError(err error) (int, *ErrorBody) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		body := ErrorResponse(fiber.StatusBadRequest, "Invalid request")
		body.Errors = validationErr.Fields
		return fiber.StatusBadRequest, body
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	switch {
	case errors.Is(err, entity.ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrInvalidInput):
		return fiber.StatusBadRequest, ErrorResponse(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrPersistenceFailed):
		return fiber.StatusServiceUnavailable, ErrorResponse(fiber.StatusServiceUnavailable,
			"Could not save the change, please try again")
	case errors.Is(err, entity.ErrDeliveryUnavailable):
		return fiber.StatusServiceUnavailable, ErrorResponse(fiber.StatusServiceUnavailable, err.Error())
	}

	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, err.Error())
}
