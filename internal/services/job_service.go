package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-rubric/internal/logger"
	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/rubric"
	"alfredoptarigan/resume-rubric/internal/scoring"
)

// ReevaluationQueue accepts resume ids whose evaluation must be recomputed.
type ReevaluationQueue interface {
	Enqueue(resumeID uuid.UUID) bool
}

type JobService interface {
	Create(ctx context.Context, req models.CreateJobRequest) (*models.Job, *models.Rubric, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	List(ctx context.Context) ([]models.Job, error)
	// Delete removes the job, its rubric, its resume versions with their
	// uploads, and their evaluations.
	Delete(ctx context.Context, id uuid.UUID) error
	// Update edits a job. A changed posting recompiles the rubric and queues
	// every resume of the job for re-evaluation.
	Update(ctx context.Context, id uuid.UUID, req models.UpdateJobRequest) (*models.Job, *models.Rubric, error)
	Rubric(ctx context.Context, id uuid.UUID) (*models.Rubric, error)
	Progress(ctx context.Context, id uuid.UUID) (*models.ProgressResponse, error)
}

type jobService struct {
	jobRepo       repositories.JobRepository
	resumeRepo    repositories.ResumeRepository
	evalRepo      repositories.EvaluationRepository
	rubricService RubricService
	queue         ReevaluationQueue
	storage       StorageService
	logger        *zap.Logger
}

// NewJobService wires the job workflow. queue may be nil, in which case
// stale evaluations are left for the worker's poller.
func NewJobService(
	jobRepo repositories.JobRepository,
	resumeRepo repositories.ResumeRepository,
	evalRepo repositories.EvaluationRepository,
	rubricService RubricService,
	queue ReevaluationQueue,
	storage StorageService,
	log *zap.Logger,
) JobService {
	return &jobService{
		jobRepo:       jobRepo,
		resumeRepo:    resumeRepo,
		evalRepo:      evalRepo,
		rubricService: rubricService,
		queue:         queue,
		storage:       storage,
		logger:        logger.WithFields(log).Named("jobs"),
	}
}

func (s *jobService) Create(ctx context.Context, req models.CreateJobRequest) (*models.Job, *models.Rubric, error) {
	job := &models.Job{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Posting:     req.Posting,
		PostingHash: rubric.PostingHash(req.Posting),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, nil, err
	}

	rb, err := s.rubricService.EnsureForJob(ctx, job)
	if err != nil {
		return job, nil, err
	}
	return job, rb, nil
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, err
}

func (s *jobService) List(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.jobRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

func (s *jobService) Delete(ctx context.Context, id uuid.UUID) error {
	resumes, err := s.resumeRepo.ListByJob(ctx, id)
	if err != nil {
		return err
	}

	err = s.jobRepo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return err
	}

	files := 0
	if s.storage != nil {
		files, err = s.storage.DeleteJobFiles(id)
		if err != nil {
			s.logger.Warn("failed to remove uploads", zap.String(logger.FieldJobID, id.String()), zap.Error(err))
		}
	}
	s.logger.Info("job deleted",
		zap.String(logger.FieldJobID, id.String()),
		zap.Int("resumes", len(resumes)),
		zap.Int("files", files),
	)
	return nil
}

func (s *jobService) Update(ctx context.Context, id uuid.UUID, req models.UpdateJobRequest) (*models.Job, *models.Rubric, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Company != nil {
		job.Company = strings.TrimSpace(*req.Company)
	}
	if req.Posting != nil {
		job.Posting = *req.Posting
		job.PostingHash = rubric.PostingHash(*req.Posting)
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, nil, err
	}

	// Compare against the stored rubric, so a recompile that failed after the
	// job row was saved is retried by the next update.
	rb, err := s.rubricService.EnsureForJob(ctx, job)
	if err != nil {
		return job, nil, err
	}
	if rb.PostingHash == job.PostingHash {
		return job, rb, nil
	}

	rb, err = s.rubricService.RecompileForJob(ctx, job)
	if err != nil {
		return job, nil, err
	}
	s.queueReevaluation(ctx, job.ID)
	return job, rb, nil
}

func (s *jobService) queueReevaluation(ctx context.Context, jobID uuid.UUID) {
	if s.queue == nil {
		return
	}
	resumes, err := s.resumeRepo.ListByJob(ctx, jobID)
	if err != nil {
		s.logger.Warn("failed to list resumes for re-evaluation", zap.String(logger.FieldJobID, jobID.String()), zap.Error(err))
		return
	}
	for _, rv := range resumes {
		if !s.queue.Enqueue(rv.ID) {
			s.logger.Warn("re-evaluation queue closed", zap.String(logger.FieldJobID, jobID.String()))
			return
		}
	}
	s.logger.Info("queued re-evaluation", zap.String(logger.FieldJobID, jobID.String()), zap.Int("resumes", len(resumes)))
}

func (s *jobService) Rubric(ctx context.Context, id uuid.UUID) (*models.Rubric, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.rubricService.EnsureForJob(ctx, job)
}

func (s *jobService) Progress(ctx context.Context, id uuid.UUID) (*models.ProgressResponse, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	resumes, err := s.resumeRepo.ListByJob(ctx, id)
	if err != nil {
		return nil, err
	}
	evals, err := s.evalRepo.ListByJob(ctx, id)
	if err != nil {
		return nil, err
	}
	byResume := make(map[uuid.UUID]models.Evaluation, len(evals))
	for _, e := range evals {
		byResume[e.ResumeID] = e
	}

	out := &models.ProgressResponse{JobID: id, Entries: make([]models.ProgressEntry, 0, len(resumes))}
	for _, rv := range resumes {
		entry := models.ProgressEntry{
			ResumeID:     rv.ID,
			VersionLabel: rv.VersionLabel,
			UploadedAt:   rv.CreatedAt.UTC().Format(time.RFC3339),
		}
		if ev, ok := byResume[rv.ID]; ok {
			overall := ev.OverallScore
			entry.OverallScore = &overall
			entry.RubricRevision = ev.RubricRevision

			var dims []scoring.DimensionScore
			if err := json.Unmarshal(ev.Dimensions, &dims); err != nil {
				return nil, fmt.Errorf("failed to decode evaluation %s: %w", ev.ID, err)
			}
			entry.Dimensions = make(map[string]float64, len(dims))
			for _, d := range dims {
				entry.Dimensions[d.Dimension] = d.Score
			}
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}
