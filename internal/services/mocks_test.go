package services_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/rubric"
)

type memJobStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]models.Job
	createErr error
	// cascade removes the job's dependent rows on Delete.
	cascade func(jobID uuid.UUID)
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: map[uuid.UUID]models.Job{}}
}

func (s *memJobStore) Create(_ context.Context, job *models.Job) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memJobStore) FindByID(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, repositories.ErrNotFound)
	}
	return &job, nil
}

func (s *memJobStore) Update(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *memJobStore) List(_ context.Context) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *memJobStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()
	if !ok {
		return repositories.ErrNotFound
	}
	if s.cascade != nil {
		s.cascade(id)
	}
	return nil
}

type memRubricStore struct {
	mu             sync.Mutex
	byJob          map[uuid.UUID]models.Rubric
	createCalls    int
	recompileCalls int
	// beforeRecompile runs inside Recompile before the revision check.
	beforeRecompile func()
}

func newMemRubricStore() *memRubricStore {
	return &memRubricStore{byJob: map[uuid.UUID]models.Rubric{}}
}

func (s *memRubricStore) CreateIfAbsent(_ context.Context, rb *models.Rubric) (*models.Rubric, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if existing, ok := s.byJob[rb.JobID]; ok {
		return &existing, false, nil
	}
	s.byJob[rb.JobID] = *rb
	stored := *rb
	return &stored, true, nil
}

func (s *memRubricStore) FindByID(_ context.Context, id uuid.UUID) (*models.Rubric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rb := range s.byJob {
		if rb.ID == id {
			return &rb, nil
		}
	}
	return nil, fmt.Errorf("rubric %s: %w", id, repositories.ErrNotFound)
}

func (s *memRubricStore) FindByJobID(_ context.Context, jobID uuid.UUID) (*models.Rubric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rb, ok := s.byJob[jobID]
	if !ok {
		return nil, fmt.Errorf("rubric for job %s: %w", jobID, repositories.ErrNotFound)
	}
	return &rb, nil
}

func (s *memRubricStore) Recompile(_ context.Context, rb *models.Rubric, fromRevision int) (*models.Rubric, error) {
	if s.beforeRecompile != nil {
		s.beforeRecompile()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recompileCalls++
	current, ok := s.byJob[rb.JobID]
	if !ok || current.Revision != fromRevision {
		return nil, repositories.ErrStaleRevision
	}
	next := *rb
	next.ID = current.ID
	next.Revision = fromRevision + 1
	s.byJob[rb.JobID] = next
	return &next, nil
}

// put stores rb directly, bypassing the compile path.
func (s *memRubricStore) put(rb models.Rubric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byJob[rb.JobID] = rb
}

type memResumeStore struct {
	mu      sync.Mutex
	resumes []models.ResumeVersion
	// cascade removes the resume's evaluation on Delete.
	cascade func(resumeID uuid.UUID)
}

func (s *memResumeStore) Create(_ context.Context, rv *models.ResumeVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes = append(s.resumes, *rv)
	return nil
}

func (s *memResumeStore) FindByID(_ context.Context, id uuid.UUID) (*models.ResumeVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.resumes {
		if rv.ID == id {
			return &rv, nil
		}
	}
	return nil, fmt.Errorf("resume %s: %w", id, repositories.ErrNotFound)
}

func (s *memResumeStore) ListByJob(_ context.Context, jobID uuid.UUID) ([]models.ResumeVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ResumeVersion
	for _, rv := range s.resumes {
		if rv.JobID == jobID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (s *memResumeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	found := false
	for i, rv := range s.resumes {
		if rv.ID == id {
			s.resumes = append(s.resumes[:i], s.resumes[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return repositories.ErrNotFound
	}
	if s.cascade != nil {
		s.cascade(id)
	}
	return nil
}

func (s *memResumeStore) deleteJob(jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.resumes[:0]
	for _, rv := range s.resumes {
		if rv.JobID != jobID {
			kept = append(kept, rv)
		}
	}
	s.resumes = kept
}

func (s *memResumeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resumes)
}

type memEvaluationStore struct {
	mu          sync.Mutex
	byResume    map[uuid.UUID]models.Evaluation
	upsertCalls int
	rubrics     *memRubricStore
}

func newMemEvaluationStore(rubrics *memRubricStore) *memEvaluationStore {
	return &memEvaluationStore{byResume: map[uuid.UUID]models.Evaluation{}, rubrics: rubrics}
}

func (s *memEvaluationStore) Upsert(_ context.Context, eval *models.Evaluation) (*models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if existing, ok := s.byResume[eval.ResumeID]; ok {
		eval.ID = existing.ID
	}
	s.byResume[eval.ResumeID] = *eval
	stored := *eval
	return &stored, nil
}

func (s *memEvaluationStore) deleteWhere(match func(models.Evaluation) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ev := range s.byResume {
		if match(ev) {
			delete(s.byResume, id)
		}
	}
}

func (s *memEvaluationStore) FindByResumeID(_ context.Context, resumeID uuid.UUID) (*models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.byResume[resumeID]
	if !ok {
		return nil, fmt.Errorf("evaluation for resume %s: %w", resumeID, repositories.ErrNotFound)
	}
	return &ev, nil
}

func (s *memEvaluationStore) ListByJob(_ context.Context, jobID uuid.UUID) ([]models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Evaluation
	for _, ev := range s.byResume {
		if ev.JobID == jobID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResumeID.String() < out[j].ResumeID.String() })
	return out, nil
}

func (s *memEvaluationStore) FindStale(ctx context.Context, limit int) ([]models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Evaluation
	for _, ev := range s.byResume {
		rb, err := s.rubrics.FindByJobID(ctx, ev.JobID)
		if err != nil {
			continue
		}
		if ev.RubricRevision < rb.Revision {
			out = append(out, ev)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeGemini struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
	systems   []string
}

func (g *fakeGemini) GenerateJSON(_ context.Context, systemPrompt, prompt string, _ float32) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.systems = append(g.systems, systemPrompt)
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	out := g.responses[0]
	g.responses = g.responses[1:]
	return out, nil
}

func (g *fakeGemini) Model() string { return "fake" }

type memAnalysisCache struct {
	mu      sync.Mutex
	entries map[string]rubric.JobAnalysis
	puts    int
	getErr  error
}

func newMemAnalysisCache() *memAnalysisCache {
	return &memAnalysisCache{entries: map[string]rubric.JobAnalysis{}}
}

func (c *memAnalysisCache) GetAnalysis(_ context.Context, hash string) (*rubric.JobAnalysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	a, ok := c.entries[hash]
	if !ok {
		return nil, false, nil
	}
	return &a, true, nil
}

func (c *memAnalysisCache) PutAnalysis(_ context.Context, hash string, a *rubric.JobAnalysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[hash] = *a
	return nil
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *recordingQueue) Enqueue(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return true
}

func (q *recordingQueue) queued() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uuid.UUID(nil), q.ids...)
}

// fileHeader builds a multipart upload the way an HTTP request would carry it.
func fileHeader(name string, content []byte) (*multipart.FileHeader, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		return nil, err
	}
	return form.File["file"][0], nil
}
