package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-rubric/internal/logger"
	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/scoring"
)

type ResumeService interface {
	// SubmitFile stores an uploaded resume, parses it and evaluates it against the job's rubric.
	SubmitFile(ctx context.Context, jobID uuid.UUID, versionLabel string, file *multipart.FileHeader) (*models.ResumeVersion, *models.Evaluation, error)
	// SubmitStructured evaluates an already parsed resume, taking its bullet metadata as given.
	SubmitStructured(ctx context.Context, jobID uuid.UUID, versionLabel string, structure resume.Structure) (*models.ResumeVersion, *models.Evaluation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ResumeVersion, error)
	// ListByJob returns a job's resume versions oldest first.
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.ResumeVersion, error)
	// Delete removes a resume version, its evaluation and its upload.
	Delete(ctx context.Context, id uuid.UUID) error
}

type resumeService struct {
	jobRepo       repositories.JobRepository
	resumeRepo    repositories.ResumeRepository
	rubricService RubricService
	evalService   EvaluationService
	storage       StorageService
	extractor     TextExtractor
	parser        *resume.Parser
	logger        *zap.Logger
}

func NewResumeService(
	jobRepo repositories.JobRepository,
	resumeRepo repositories.ResumeRepository,
	rubricService RubricService,
	evalService EvaluationService,
	storage StorageService,
	extractor TextExtractor,
	parser *resume.Parser,
	log *zap.Logger,
) ResumeService {
	return &resumeService{
		jobRepo:       jobRepo,
		resumeRepo:    resumeRepo,
		rubricService: rubricService,
		evalService:   evalService,
		storage:       storage,
		extractor:     extractor,
		parser:        parser,
		logger:        logger.WithFields(log).Named("resumes"),
	}
}

func (s *resumeService) SubmitFile(ctx context.Context, jobID uuid.UUID, versionLabel string, file *multipart.FileHeader) (*models.ResumeVersion, *models.Evaluation, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !s.extractor.Supports(ext) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	storedName, path, err := s.storage.SaveResume(job.ID, file)
	if err != nil {
		return nil, nil, err
	}

	text, err := s.extractor.ExtractText(path)
	if err != nil {
		s.discard(storedName)
		return nil, nil, err
	}

	rv := &models.ResumeVersion{
		Filename: file.Filename,
		FilePath: storedName,
		FileType: strings.TrimPrefix(ext, "."),
	}
	out, ev, err := s.submit(ctx, job, versionLabel, s.parser.Parse(text), rv)
	if err != nil && out == nil {
		s.discard(storedName)
	}
	return out, ev, err
}

func (s *resumeService) SubmitStructured(ctx context.Context, jobID uuid.UUID, versionLabel string, structure resume.Structure) (*models.ResumeVersion, *models.Evaluation, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	return s.submit(ctx, job, versionLabel, structure, &models.ResumeVersion{FileType: "structured"})
}

// submit rejects empty resumes before anything is written, then stores the
// resume version and its evaluation. A non-nil version with an error means
// the resume was kept and can be re-evaluated later.
func (s *resumeService) submit(ctx context.Context, job *models.Job, versionLabel string, structure resume.Structure, rv *models.ResumeVersion) (*models.ResumeVersion, *models.Evaluation, error) {
	if structure.BulletCount() == 0 {
		return nil, nil, scoring.ErrInsufficientContent
	}

	rb, err := s.rubricService.EnsureForJob(ctx, job)
	if err != nil {
		return nil, nil, err
	}

	raw, err := encodeJSON(structure)
	if err != nil {
		return nil, nil, err
	}
	rv.ID = uuid.New()
	rv.JobID = job.ID
	rv.VersionLabel = strings.TrimSpace(versionLabel)
	rv.Structure = raw
	rv.BulletCount = structure.BulletCount()

	if err := s.resumeRepo.Create(ctx, rv); err != nil {
		return nil, nil, err
	}
	s.logger.Info("resume stored",
		zap.String(logger.FieldJobID, job.ID.String()),
		zap.String(logger.FieldResumeID, rv.ID.String()),
		zap.Int("bullets", rv.BulletCount),
		zap.Int("sections", len(structure.Sections)),
	)

	ev, err := s.evalService.Evaluate(ctx, rv.ID, rb.ID)
	if err != nil {
		return rv, nil, err
	}
	return rv, ev, nil
}

func (s *resumeService) Get(ctx context.Context, id uuid.UUID) (*models.ResumeVersion, error) {
	rv, err := s.resumeRepo.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	return rv, err
}

func (s *resumeService) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.ResumeVersion, error) {
	if _, err := s.findJob(ctx, jobID); err != nil {
		return nil, err
	}
	resumes, err := s.resumeRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if resumes == nil {
		resumes = []models.ResumeVersion{}
	}
	return resumes, nil
}

func (s *resumeService) Delete(ctx context.Context, id uuid.UUID) error {
	rv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.resumeRepo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	if err != nil {
		return err
	}

	removeUpload(s.storage, rv.FilePath, s.logger)
	s.logger.Info("resume deleted",
		zap.String(logger.FieldJobID, rv.JobID.String()),
		zap.String(logger.FieldResumeID, rv.ID.String()),
	)
	return nil
}

func (s *resumeService) findJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return nil, err
	}
	return job, nil
}

func (s *resumeService) discard(storedName string) {
	removeUpload(s.storage, storedName, s.logger)
}

// removeUpload deletes a stored upload. Structured submissions have no file.
func removeUpload(storage StorageService, storedName string, log *zap.Logger) {
	if storage == nil || storedName == "" {
		return
	}
	if err := storage.DeleteFile(storedName); err != nil {
		log.Warn("failed to remove upload", zap.String("file", storedName), zap.Error(err))
	}
}
