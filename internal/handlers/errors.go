package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-rubric/internal/scoring"
	"alfredoptarigan/resume-rubric/internal/services"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrJobNotFound),
		errors.Is(err, services.ErrResumeNotFound),
		errors.Is(err, services.ErrEvaluationNotFound),
		errors.Is(err, services.ErrRubricNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrRubricMismatch):
		return fiber.StatusConflict
	case errors.Is(err, scoring.ErrInsufficientContent),
		errors.Is(err, services.ErrEmptyDocument):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnsupportedFileType):
		return fiber.StatusUnsupportedMediaType
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}

// parseID reads a uuid path parameter. A malformed value becomes a 400 through ErrorHandler.
func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+param+" format")
	}
	return id, nil
}

// ErrorHandler renders errors that escape a handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
		"code":  code,
	})
}

func validationError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace()+": "+fe.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}
