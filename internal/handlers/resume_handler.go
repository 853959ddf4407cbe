package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/services"
)

type ResumeHandler struct {
	resumes     services.ResumeService
	maxFileSize int64
}

func NewResumeHandler(resumes services.ResumeService, maxFileSize int64) *ResumeHandler {
	return &ResumeHandler{
		resumes:     resumes,
		maxFileSize: maxFileSize,
	}
}

// HandleUpload handles POST /jobs/:id/resumes
func (h *ResumeHandler) HandleUpload(c *fiber.Ctx) error {
	jobID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}
	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	label := c.FormValue("version_label")
	if err := validate.Var(label, "required,max=100"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "version_label is required",
		})
	}

	rv, ev, err := h.resumes.SubmitFile(c.UserContext(), jobID, label, file)
	return h.respond(c, rv, ev, err)
}

// HandleStructured handles POST /jobs/:id/resumes/structured
func (h *ResumeHandler) HandleStructured(c *fiber.Ctx) error {
	jobID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.StructuredResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	rv, ev, err := h.resumes.SubmitStructured(c.UserContext(), jobID, req.VersionLabel, req.Structure)
	return h.respond(c, rv, ev, err)
}

// HandleList handles GET /jobs/:id/resumes
func (h *ResumeHandler) HandleList(c *fiber.Ctx) error {
	jobID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	resumes, err := h.resumes.ListByJob(c.UserContext(), jobID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resumes)
}

// HandleGet handles GET /resumes/:id
func (h *ResumeHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	rv, err := h.resumes.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rv)
}

// HandleDelete handles DELETE /resumes/:id
func (h *ResumeHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.resumes.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// respond reports a stored resume even when its evaluation failed, so the
// client can retry the evaluation by id.
func (h *ResumeHandler) respond(c *fiber.Ctx, rv *models.ResumeVersion, ev *models.Evaluation, err error) error {
	if err != nil && rv == nil {
		return respondError(c, err)
	}
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error":  err.Error(),
			"resume": rv,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(models.ResumeResponse{Resume: rv, Evaluation: ev})
}
