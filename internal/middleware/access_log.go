package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccessLog logs one line per request after the handler chain completes.
func AccessLog(logger *zap.Logger) fiber.Handler {
	logger = logger.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; report what it will send.
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("request completed", fields...)
		} else {
			logger.Info("request completed", fields...)
		}
		return err
	}
}
