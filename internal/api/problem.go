package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Limit is set when the request was refused by a plan limit.
	Limit *access.Decision `json:"limit,omitempty"`
}

func problemResponse(c *fiber.Ctx, status int, problemType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

func limitResponse(c *fiber.Ctx, d *access.Decision) error {
	return c.Status(fiber.StatusForbidden).JSON(ProblemDetail{
		Type:     "limit_exceeded",
		Title:    "Forbidden",
		Status:   fiber.StatusForbidden,
		Detail:   "Plan limit reached for " + string(d.Kind),
		Instance: c.Path(),
		Limit:    d,
	})
}

// errorResponse maps domain errors to problem responses. Anything unrecognized goes to the
// fiber error handler as a 500.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, perrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", err.Error())
	case errors.Is(err, perrors.ErrInvalidInput):
		return problemResponse(c, fiber.StatusBadRequest, "invalid_input", "Bad Request", err.Error())
	case errors.Is(err, perrors.ErrDenied):
		return problemResponse(c, fiber.StatusForbidden, "forbidden", "Forbidden", err.Error())
	case errors.Is(err, perrors.ErrAuthFailure):
		return problemResponse(c, fiber.StatusUnauthorized, "invalid_token", "Unauthorized", err.Error())
	case errors.Is(err, perrors.ErrGeneration) && errors.Is(err, perrors.ErrTimeout):
		return problemResponse(c, fiber.StatusGatewayTimeout, "generation_timeout", "Gateway Timeout", err.Error())
	case errors.Is(err, perrors.ErrGeneration) && errors.Is(err, perrors.ErrUnavailable):
		return problemResponse(c, fiber.StatusServiceUnavailable, "generator_unavailable", "Service Unavailable", err.Error())
	case errors.Is(err, perrors.ErrGeneration):
		return problemResponse(c, fiber.StatusBadGateway, "generation_failed", "Bad Gateway", err.Error())
	case errors.Is(err, perrors.ErrRateLimit):
		return problemResponse(c, fiber.StatusTooManyRequests, "rate_limit_exceeded", "Too Many Requests", err.Error())
	case errors.Is(err, perrors.ErrUnavailable):
		return problemResponse(c, fiber.StatusServiceUnavailable, "unavailable", "Service Unavailable", err.Error())
	}
	return err
}
