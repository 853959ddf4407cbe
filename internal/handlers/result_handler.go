package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-rubric/internal/services"
)

type ResultHandler struct {
	evaluations services.EvaluationService
}

func NewResultHandler(evaluations services.EvaluationService) *ResultHandler {
	return &ResultHandler{evaluations: evaluations}
}

// HandleGetEvaluation handles GET /resumes/:id/evaluation
func (h *ResultHandler) HandleGetEvaluation(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ev, err := h.evaluations.GetByResume(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ev)
}

// HandleEvaluate handles POST /resumes/:id/evaluation. It scores the resume
// against the rubric given as rubric_id, or the job's current rubric.
func (h *ResultHandler) HandleEvaluate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		RubricID string `json:"rubric_id" validate:"omitempty,uuid"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request payload",
			})
		}
		if err := validate.Struct(req); err != nil {
			return validationError(c, err)
		}
	}

	ctx := c.UserContext()
	if req.RubricID == "" {
		ev, err := h.evaluations.EvaluateCurrent(ctx, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(ev)
	}

	ev, err := h.evaluations.Evaluate(ctx, id, uuid.MustParse(req.RubricID))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ev)
}
