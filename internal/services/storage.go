package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageService keeps uploaded resumes on local disk. Stored names start with
// the owning job's id so a job's files can be swept together.
type StorageService interface {
	// SaveResume stores an upload for jobID and returns its stored name and path.
	SaveResume(jobID uuid.UUID, file *multipart.FileHeader) (string, string, error)
	GetFilePath(storedName string) string
	DeleteFile(storedName string) error
	// DeleteJobFiles removes every upload stored for jobID and reports how many went.
	DeleteJobFiles(jobID uuid.UUID) (int, error)
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
	allowed    func(ext string) bool
}

// NewStorageService accepts only extensions for which allowed returns true.
func NewStorageService(uploadPath string, allowed func(ext string) bool) StorageService {
	return &storageService{
		uploadPath: uploadPath,
		allowed:    allowed,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

func (s *storageService) SaveResume(jobID uuid.UUID, file *multipart.FileHeader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if s.allowed != nil && !s.allowed(ext) {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	storedName := jobPrefix(jobID) + uuid.NewString() + ext
	path := s.GetFilePath(storedName)

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded resume: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", "", fmt.Errorf("failed to create resume file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("failed to save resume: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to save resume: %w", err)
	}

	return storedName, path, nil
}

// GetFilePath resolves a stored name inside the upload directory only.
func (s *storageService) GetFilePath(storedName string) string {
	return filepath.Join(s.uploadPath, filepath.Base(storedName))
}

func (s *storageService) DeleteFile(storedName string) error {
	if err := os.Remove(s.GetFilePath(storedName)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *storageService) DeleteJobFiles(jobID uuid.UUID) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.uploadPath, jobPrefix(jobID)+"*"))
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads of job %s: %w", jobID, err)
	}

	removed := 0
	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("failed to delete uploads of job %s: %w", jobID, errors.Join(errs...))
	}
	return removed, nil
}

func jobPrefix(jobID uuid.UUID) string {
	return jobID.String() + "_"
}
