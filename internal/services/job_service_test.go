package services_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/rubric"
	"alfredoptarigan/resume-rubric/internal/services"
)

var _ = Describe("JobService", func() {
	var (
		ctx context.Context
		h   *harness
	)

	BeforeEach(func() {
		ctx = context.Background()
		h = newHarness(GinkgoT().TempDir())
	})

	It("creates a job together with its rubric", func() {
		job, rb := h.createJob(ctx, backendPosting)

		Expect(job.Title).To(Equal("Engineer"))
		Expect(job.PostingHash).To(Equal(rubric.PostingHash(backendPosting)))
		Expect(rb.JobID).To(Equal(job.ID))

		got, err := h.jobSvc.Rubric(ctx, job.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(rb.ID))
		Expect(h.rubrics.createCalls).To(Equal(1))
	})

	It("reports unknown jobs", func() {
		_, err := h.jobSvc.Get(ctx, uuid.New())
		Expect(err).To(MatchError(services.ErrJobNotFound))

		_, _, err = h.jobSvc.Update(ctx, uuid.New(), models.UpdateJobRequest{})
		Expect(err).To(MatchError(services.ErrJobNotFound))

		_, err = h.jobSvc.Progress(ctx, uuid.New())
		Expect(err).To(MatchError(services.ErrJobNotFound))
	})

	Describe("Update", func() {
		var (
			job      *models.Job
			original *models.Rubric
			rv       *models.ResumeVersion
		)

		BeforeEach(func() {
			job, original = h.createJob(ctx, backendPosting)
			var err error
			rv, _, err = h.resumeSvc.SubmitStructured(ctx, job.ID, "v1", sampleStructure())
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the rubric when only the title changes", func() {
			title := "  Staff Engineer "
			updated, rb, err := h.jobSvc.Update(ctx, job.ID, models.UpdateJobRequest{Title: &title})
			Expect(err).NotTo(HaveOccurred())

			Expect(updated.Title).To(Equal("Staff Engineer"))
			Expect(rb.Revision).To(Equal(1))
			Expect(h.rubrics.recompileCalls).To(BeZero())
			Expect(h.queue.queued()).To(BeEmpty())
		})

		It("keeps the rubric when the posting is resubmitted unchanged", func() {
			posting := backendPosting
			_, rb, err := h.jobSvc.Update(ctx, job.ID, models.UpdateJobRequest{Posting: &posting})
			Expect(err).NotTo(HaveOccurred())

			Expect(rb.Revision).To(Equal(1))
			Expect(h.rubrics.recompileCalls).To(BeZero())
		})

		It("recompiles a changed posting and queues the job's resumes", func() {
			posting := frontendPosting
			updated, rb, err := h.jobSvc.Update(ctx, job.ID, models.UpdateJobRequest{Posting: &posting})
			Expect(err).NotTo(HaveOccurred())

			Expect(updated.PostingHash).To(Equal(rubric.PostingHash(frontendPosting)))
			Expect(rb.Revision).To(Equal(2))
			Expect(rb.PostingHash).To(Equal(updated.PostingHash))
			Expect(h.queue.queued()).To(Equal([]uuid.UUID{rv.ID}))

			stored, err := h.jobSvc.Get(ctx, job.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Posting).To(Equal(frontendPosting))

			ev, err := h.evalSvc.GetByResume(ctx, rv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.RubricRevision).To(Equal(1))
			Expect(ev.Weights).To(MatchJSON(original.DimensionOverrides))
		})

		It("recompiles on the next update when a recompile failed", func() {
			bumped := false
			h.rubrics.beforeRecompile = func() {
				if bumped {
					return
				}
				bumped = true
				current, err := h.rubrics.FindByJobID(ctx, job.ID)
				Expect(err).NotTo(HaveOccurred())
				current.Revision++
				h.rubrics.put(*current)
			}

			posting := frontendPosting
			_, _, err := h.jobSvc.Update(ctx, job.ID, models.UpdateJobRequest{Posting: &posting})
			Expect(err).To(MatchError(repositories.ErrStaleRevision))
			Expect(h.queue.queued()).To(BeEmpty())

			updated, rb, err := h.jobSvc.Update(ctx, job.ID, models.UpdateJobRequest{Posting: &posting})
			Expect(err).NotTo(HaveOccurred())
			Expect(rb.PostingHash).To(Equal(updated.PostingHash))
			Expect(rb.Revision).To(Equal(3))
			Expect(h.rubrics.recompileCalls).To(Equal(2))
			Expect(h.queue.queued()).To(Equal([]uuid.UUID{rv.ID}))

			_, rb, err = h.jobSvc.Update(ctx, job.ID, models.UpdateJobRequest{Posting: &posting})
			Expect(err).NotTo(HaveOccurred())
			Expect(rb.Revision).To(Equal(3))
		})
	})

	Describe("Progress", func() {
		It("lists every version in upload order with its scores", func() {
			job, _ := h.createJob(ctx, backendPosting)

			first, _, err := h.resumeSvc.SubmitStructured(ctx, job.ID, "v1", sampleStructure())
			Expect(err).NotTo(HaveOccurred())
			second, _, err := h.resumeSvc.SubmitStructured(ctx, job.ID, "v2", sampleStructure())
			Expect(err).NotTo(HaveOccurred())

			progress, err := h.jobSvc.Progress(ctx, job.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(progress.JobID).To(Equal(job.ID))
			Expect(progress.Entries).To(HaveLen(2))
			Expect(progress.Entries[0].ResumeID).To(Equal(first.ID))
			Expect(progress.Entries[1].ResumeID).To(Equal(second.ID))

			entry := progress.Entries[0]
			Expect(entry.VersionLabel).To(Equal("v1"))
			Expect(entry.OverallScore).NotTo(BeNil())
			Expect(entry.RubricRevision).To(Equal(1))
			Expect(entry.Dimensions).To(HaveKey("clarity"))
			_, err = time.Parse(time.RFC3339, entry.UploadedAt)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns an empty list for a job without resumes", func() {
			job, _ := h.createJob(ctx, backendPosting)

			progress, err := h.jobSvc.Progress(ctx, job.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(progress.Entries).To(BeEmpty())
			Expect(progress.Entries).NotTo(BeNil())
		})
	})
})

var _ = Describe("JobService deletion", func() {
	var (
		ctx       context.Context
		h         *harness
		uploadDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		uploadDir = GinkgoT().TempDir()
		h = newHarness(uploadDir)
	})

	It("lists created jobs", func() {
		a, _ := h.createJob(ctx, backendPosting)
		b, _ := h.createJob(ctx, frontendPosting)

		jobs, err := h.jobSvc.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		var ids []uuid.UUID
		for _, j := range jobs {
			ids = append(ids, j.ID)
		}
		Expect(ids).To(ConsistOf(a.ID, b.ID))
	})

	It("removes the job with its resumes, evaluations and uploads", func() {
		job, _ := h.createJob(ctx, backendPosting)
		file, err := fileHeader("resume.txt", []byte(sampleResumeText))
		Expect(err).NotTo(HaveOccurred())
		rv, _, err := h.resumeSvc.SubmitFile(ctx, job.ID, "v1", file)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(uploadDir, rv.FilePath)).To(BeARegularFile())

		stray := filepath.Join(uploadDir, job.ID.String()+"_leftover.txt")
		Expect(os.WriteFile(stray, []byte("x"), 0o644)).To(Succeed())
		other, _ := h.createJob(ctx, frontendPosting)
		kept := filepath.Join(uploadDir, other.ID.String()+"_resume.txt")
		Expect(os.WriteFile(kept, []byte("x"), 0o644)).To(Succeed())

		Expect(h.jobSvc.Delete(ctx, job.ID)).To(Succeed())

		_, err = h.jobSvc.Get(ctx, job.ID)
		Expect(err).To(MatchError(services.ErrJobNotFound))
		_, err = h.evalSvc.GetByResume(ctx, rv.ID)
		Expect(err).To(MatchError(services.ErrEvaluationNotFound))
		_, err = h.rubricSvc.GetByJob(ctx, job.ID)
		Expect(err).To(MatchError(services.ErrRubricNotFound))
		Expect(h.resumes.count()).To(BeZero())
		Expect(filepath.Join(uploadDir, rv.FilePath)).NotTo(BeAnExistingFile())
		Expect(stray).NotTo(BeAnExistingFile())
		Expect(kept).To(BeARegularFile())
	})

	It("reports an unknown job", func() {
		Expect(h.jobSvc.Delete(ctx, uuid.New())).To(MatchError(services.ErrJobNotFound))
	})
})
