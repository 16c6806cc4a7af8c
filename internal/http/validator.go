package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"chesstral/internal/core"
)

var validate = validator.New()

const (
	localBody      = "validatedBody"
	localValidated = "validated"
)

// bindBody parses the JSON body into a new T and validates it. The handler
// reads the result with validatedBody.
func bindBody[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
					Error:   "invalid request body",
					Code:    core.ErrInvalidRequest,
					Details: err.Error(),
				})
			}
		}

		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "validation failed",
				Code:    core.ErrInvalidRequest,
				Details: describeValidation(err),
			})
		}

		c.Locals(localBody, req)
		c.Locals(localValidated, true)
		return c.Next()
	}
}

// validatedBody returns the body stored by bindBody
func validatedBody[T any](c *fiber.Ctx) (T, error) {
	var zero T
	if ok, _ := c.Locals(localValidated).(bool); !ok {
		return zero, fmt.Errorf("validation bypass detected")
	}
	req, ok := c.Locals(localBody).(*T)
	if !ok || req == nil {
		return zero, fmt.Errorf("validation data missing")
	}
	return *req, nil
}

func describeValidation(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var details strings.Builder
	for _, fe := range errs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch fe.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", fe.Field()))
		case "required_without":
			details.WriteString(fmt.Sprintf("%s is required when %s is absent", fe.Field(), fe.Param()))
		case "required_with":
			details.WriteString(fmt.Sprintf("%s is required with %s", fe.Field(), fe.Param()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "len":
			details.WriteString(fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param()))
		case "min":
			if fe.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
			}
		case "max":
			if fe.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return details.String()
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
