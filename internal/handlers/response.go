package handlers

import (
	"errors"

	"catalog/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const msgUnexpected = "An unexpected error occurred."

// statusFor maps a failure kind to its HTTP status code.
func statusFor(kind models.FailureKind) int {
	switch kind {
	case models.KindValidation, models.KindConflict:
		return fiber.StatusBadRequest
	case models.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respond writes a result envelope with the status implied by its outcome.
func respond[T any](c *fiber.Ctx, res models.Result[T], successStatus int) error {
	if res.IsSuccess {
		return c.Status(successStatus).JSON(res)
	}
	return c.Status(statusFor(res.Kind)).JSON(res)
}

func badRequest(c *fiber.Ctx, message string, errs ...string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.Failure[struct{}](models.KindValidation, message, errs...))
}

// ErrorHandler is the application's last line of defence. Routing errors
// keep their status; anything else, including recovered panics, becomes a
// generic 500 envelope and is logged with its cause.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	logger = logger.Named("http")
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			kind := models.KindValidation
			if fe.Code == fiber.StatusNotFound {
				kind = models.KindNotFound
			}
			return c.Status(fe.Code).JSON(models.Failure[struct{}](kind, fe.Message))
		}

		logger.Error("unhandled request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(models.Failure[struct{}](models.KindInternal, msgUnexpected))
	}
}
