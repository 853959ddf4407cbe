package services_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/rubric"
	"alfredoptarigan/resume-rubric/internal/scoring"
	"alfredoptarigan/resume-rubric/internal/services"
)

const backendPosting = `Senior Backend Engineer

Requirements:
- 5+ years building services in Go or Java
- Experience with PostgreSQL, Docker and Kubernetes on AWS
- Mentor engineers and lead design reviews

Nice to have:
- Kafka and Terraform`

const frontendPosting = `Frontend Engineer

Requirements:
- 3+ years with React and TypeScript
- Care for accessibility and design systems`

const sampleResumeText = `EXPERIENCE
- Built a payments API in Go and PostgreSQL serving 3M users
- Reduced p99 latency by 45% within 3 months by adding Redis caching
- Led a team of 4 engineers to migrate 30 services to Kubernetes
- Automated deployments with Terraform and GitHub Actions, saving 10 hours per week
- Designed an event-driven pipeline on Kafka processing 2B events per day
- Mentored 3 junior engineers and wrote onboarding design docs

SKILLS
- Go, PostgreSQL, Kubernetes, AWS, Docker`

func newTestCompiler(analyzer rubric.Analyzer, cache rubric.AnalysisCache) *rubric.Compiler {
	catalog := rubric.DefaultCatalog()
	classifier, err := rubric.NewClassifier(catalog, rubric.DefaultVocabulary())
	Expect(err).NotTo(HaveOccurred())
	return rubric.NewCompiler(catalog, classifier, analyzer, cache, rubric.CompilerConfig{
		Timeout:        200 * time.Millisecond,
		MaxAttempts:    2,
		RulesetVersion: "test-1",
	}, nil)
}

func sampleStructure() resume.Structure {
	return resume.NewParser(resume.DefaultTools()).Parse(sampleResumeText)
}

// harness wires every service over in-memory stores.
type harness struct {
	jobs    *memJobStore
	rubrics *memRubricStore
	resumes *memResumeStore
	evals   *memEvaluationStore
	queue   *recordingQueue

	rubricSvc services.RubricService
	evalSvc   services.EvaluationService
	jobSvc    services.JobService
	resumeSvc services.ResumeService
	storage   services.StorageService
}

func newHarness(uploadDir string) *harness {
	h := &harness{
		jobs:    newMemJobStore(),
		rubrics: newMemRubricStore(),
		resumes: &memResumeStore{},
		queue:   &recordingQueue{},
	}
	h.evals = newMemEvaluationStore(h.rubrics)
	h.jobs.cascade = func(jobID uuid.UUID) {
		h.evals.deleteWhere(func(ev models.Evaluation) bool { return ev.JobID == jobID })
		h.resumes.deleteJob(jobID)
		h.rubrics.mu.Lock()
		delete(h.rubrics.byJob, jobID)
		h.rubrics.mu.Unlock()
	}
	h.resumes.cascade = func(resumeID uuid.UUID) {
		h.evals.deleteWhere(func(ev models.Evaluation) bool { return ev.ResumeID == resumeID })
	}

	extractor := services.NewTextExtractor()
	h.storage = services.NewStorageService(uploadDir, extractor.Supports)
	h.rubricSvc = services.NewRubricService(h.rubrics, newTestCompiler(nil, nil), "1.0.0", nil)
	h.evalSvc = services.NewEvaluationService(h.evals, h.resumes, h.rubrics,
		scoring.NewEvaluator(rubric.DefaultCatalog(), scoring.DefaultRegistry()), nil)
	h.jobSvc = services.NewJobService(h.jobs, h.resumes, h.evals, h.rubricSvc, h.queue, h.storage, nil)
	h.resumeSvc = services.NewResumeService(h.jobs, h.resumes, h.rubricSvc, h.evalSvc,
		h.storage, extractor, resume.NewParser(resume.DefaultTools()), nil)
	return h
}

func (h *harness) createJob(ctx context.Context, posting string) (*models.Job, *models.Rubric) {
	job, rb, err := h.jobSvc.Create(ctx, models.CreateJobRequest{Title: "Engineer", Company: "Acme", Posting: posting})
	Expect(err).NotTo(HaveOccurred())
	return job, rb
}
