package middleware

import (
	"catalog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = fiber.HeaderXRequestID

const localsRequestID = "request_id"

// RequestID reuses the caller's X-Request-ID or creates a uuid, and echoes
// it on the response.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     HeaderRequestID,
		Generator:  uuid.NewString,
		ContextKey: localsRequestID,
	})
}

// RequestContext copies the id assigned by RequestID into the request's
// user context so services can log it. It must run after RequestID.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid := GetRequestID(c); rid != "" {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *fiber.Ctx) string {
	rid, _ := c.Locals(localsRequestID).(string)
	return rid
}
