package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Handlers struct {
	Jobs    *JobHandler
	Resumes *ResumeHandler
	Results *ResultHandler
}

// CORS allows browser clients every method Register mounts.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	})
}

// Register mounts the API on router.
func Register(router fiber.Router, h Handlers) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	router.Post("/jobs", h.Jobs.HandleCreate)
	router.Get("/jobs", h.Jobs.HandleList)
	router.Get("/jobs/:id", h.Jobs.HandleGet)
	router.Patch("/jobs/:id", h.Jobs.HandleUpdate)
	router.Delete("/jobs/:id", h.Jobs.HandleDelete)
	router.Get("/jobs/:id/rubric", h.Jobs.HandleGetRubric)
	router.Get("/jobs/:id/progress", h.Jobs.HandleProgress)
	router.Post("/jobs/:id/resumes", h.Resumes.HandleUpload)
	router.Get("/jobs/:id/resumes", h.Resumes.HandleList)
	router.Post("/jobs/:id/resumes/structured", h.Resumes.HandleStructured)

	router.Get("/resumes/:id", h.Resumes.HandleGet)
	router.Delete("/resumes/:id", h.Resumes.HandleDelete)
	router.Get("/resumes/:id/evaluation", h.Results.HandleGetEvaluation)
	router.Post("/resumes/:id/evaluation", h.Results.HandleEvaluate)
}
