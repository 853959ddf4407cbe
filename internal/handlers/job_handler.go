package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// HandleCreate handles POST /jobs
func (h *JobHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	job, rb, err := h.jobs.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.JobResponse{Job: job, Rubric: rb})
}

// HandleList handles GET /jobs
func (h *JobHandler) HandleList(c *fiber.Ctx) error {
	jobs, err := h.jobs.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(jobs)
}

// HandleDelete handles DELETE /jobs/:id
func (h *JobHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.jobs.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGet handles GET /jobs/:id
func (h *JobHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	job, err := h.jobs.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.JobResponse{Job: job})
}

// HandleUpdate handles PATCH /jobs/:id
func (h *JobHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	job, rb, err := h.jobs.Update(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.JobResponse{Job: job, Rubric: rb})
}

// HandleGetRubric handles GET /jobs/:id/rubric
func (h *JobHandler) HandleGetRubric(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	rb, err := h.jobs.Rubric(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rb)
}

// HandleProgress handles GET /jobs/:id/progress
func (h *JobHandler) HandleProgress(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	progress, err := h.jobs.Progress(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}
