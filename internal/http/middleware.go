package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"chesstral/internal/core"
)

// contentTypeValidator ensures POST and PUT requests carry application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if i := strings.Index(contentType, ";"); i >= 0 {
			contentType = contentType[:i]
		}
		contentType = strings.TrimSpace(contentType)
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// sessionIDValidator rejects malformed :sessionId path parameters
func sessionIDValidator(c *fiber.Ctx) error {
	if !isValidUUID(c.Params("sessionId")) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid session ID format",
			Code:    core.ErrInvalidRequest,
			Details: "session ID must be a valid UUID",
		})
	}
	return c.Next()
}

// rateLimiter allows max requests per second per client, keyed on the first
// X-Forwarded-For hop when present
func rateLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", max),
			})
		},
	})
}

// errorHandler provides consistent error responses
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		response := core.ErrorResponse{
			Error: "internal server error",
			Code:  core.ErrInternalError,
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			response.Error = fe.Message

			switch code {
			case fiber.StatusNotFound, fiber.StatusMethodNotAllowed, fiber.StatusBadRequest:
				response.Code = core.ErrInvalidRequest
			case fiber.StatusTooManyRequests:
				response.Code = core.ErrRateLimitExceeded
			case fiber.StatusRequestEntityTooLarge:
				response.Code = core.ErrResourceLimit
			}
		} else {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(response)
	}
}

// statusFor maps API error codes to HTTP status codes
func statusFor(code string) int {
	switch code {
	case core.ErrSessionNotFound:
		return fiber.StatusNotFound
	case core.ErrNotHumanTurn, core.ErrNotLive, core.ErrGameOver, core.ErrBusy:
		return fiber.StatusConflict
	case core.ErrEngineFailure:
		return fiber.StatusBadGateway
	case core.ErrEvaluationUnavailable:
		return fiber.StatusServiceUnavailable
	case core.ErrIllegalMove, core.ErrInvalidPosition:
		return fiber.StatusUnprocessableEntity
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}
