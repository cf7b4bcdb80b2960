package handlers

import (
	"errors"
	"log"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// validate checks the `validate` tags on request DTOs.
var validate = validator.New()

// Success wraps a payload in the {success, data, message} envelope.
func Success(c fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"message": message,
	})
}

// Fail maps a service error to its HTTP status and the failure envelope.
// Internal detail is logged, never returned.
func Fail(c fiber.Ctx, err error) error {
	status := apperror.StatusCode(err)

	message := "Internal server error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	} else {
		log.Printf("Unexpected error handling %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// bindAndValidate decodes the JSON body into req and runs tag validation.
func bindAndValidate(c fiber.Ctx, req any) error {
	if err := c.Bind().Body(req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return apperror.Validation("Validation failed: " + err.Error())
	}
	return nil
}
