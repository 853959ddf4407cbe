package services_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/scoring"
	"alfredoptarigan/resume-rubric/internal/services"
)

var _ = Describe("ResumeService", func() {
	var (
		ctx       context.Context
		h         *harness
		uploadDir string
		job       *models.Job
	)

	uploads := func() []string {
		entries, err := os.ReadDir(uploadDir)
		Expect(err).NotTo(HaveOccurred())
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return names
	}

	BeforeEach(func() {
		ctx = context.Background()
		uploadDir = GinkgoT().TempDir()
		h = newHarness(uploadDir)
		job, _ = h.createJob(ctx, backendPosting)
	})

	Describe("SubmitStructured", func() {
		It("stores the version and its evaluation", func() {
			rv, ev, err := h.resumeSvc.SubmitStructured(ctx, job.ID, " v1 ", sampleStructure())
			Expect(err).NotTo(HaveOccurred())

			Expect(rv.JobID).To(Equal(job.ID))
			Expect(rv.VersionLabel).To(Equal("v1"))
			Expect(rv.FileType).To(Equal("structured"))
			Expect(rv.BulletCount).To(Equal(sampleStructure().BulletCount()))
			Expect(ev.ResumeID).To(Equal(rv.ID))
		})

		It("rejects a resume without bullets before storing anything", func() {
			empty := resume.Structure{Sections: []resume.Section{{Name: "experience"}}}

			rv, ev, err := h.resumeSvc.SubmitStructured(ctx, job.ID, "v1", empty)
			Expect(err).To(MatchError(scoring.ErrInsufficientContent))
			Expect(rv).To(BeNil())
			Expect(ev).To(BeNil())
			Expect(h.resumes.count()).To(BeZero())
			Expect(h.evals.upsertCalls).To(BeZero())
		})

		It("rejects an unknown job", func() {
			_, _, err := h.resumeSvc.SubmitStructured(ctx, uuid.New(), "v1", sampleStructure())
			Expect(err).To(MatchError(services.ErrJobNotFound))
			Expect(h.resumes.count()).To(BeZero())
		})
	})

	Describe("SubmitFile", func() {
		It("extracts, parses and evaluates a text upload", func() {
			file, err := fileHeader("resume.txt", []byte(sampleResumeText))
			Expect(err).NotTo(HaveOccurred())

			rv, ev, err := h.resumeSvc.SubmitFile(ctx, job.ID, "v1", file)
			Expect(err).NotTo(HaveOccurred())

			Expect(rv.Filename).To(Equal("resume.txt"))
			Expect(rv.FileType).To(Equal("txt"))
			Expect(rv.BulletCount).To(Equal(sampleStructure().BulletCount()))
			Expect(ev.OverallScore).To(BeNumerically(">=", 1.0))
			Expect(filepath.Join(uploadDir, rv.FilePath)).To(BeARegularFile())
			Expect(rv.FilePath).To(HavePrefix(job.ID.String() + "_"))
			Expect(rv.FilePath).To(HaveSuffix(".txt"))
		})

		It("refuses unsupported formats without writing the file", func() {
			file, err := fileHeader("resume.docx", []byte("PK"))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = h.resumeSvc.SubmitFile(ctx, job.ID, "v1", file)
			Expect(err).To(MatchError(services.ErrUnsupportedFileType))
			Expect(uploads()).To(BeEmpty())
		})

		It("discards an upload without text", func() {
			file, err := fileHeader("resume.txt", []byte("  \n\t\n"))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = h.resumeSvc.SubmitFile(ctx, job.ID, "v1", file)
			Expect(err).To(MatchError(services.ErrEmptyDocument))
			Expect(uploads()).To(BeEmpty())
			Expect(h.resumes.count()).To(BeZero())
		})

		It("discards an upload without bullets", func() {
			file, err := fileHeader("resume.md", []byte("Jane Doe\nBackend engineer"))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = h.resumeSvc.SubmitFile(ctx, job.ID, "v1", file)
			Expect(err).To(MatchError(scoring.ErrInsufficientContent))
			Expect(uploads()).To(BeEmpty())
		})
	})
})

var _ = Describe("ResumeService lookups", func() {
	var (
		ctx       context.Context
		h         *harness
		uploadDir string
		job       *models.Job
	)

	BeforeEach(func() {
		ctx = context.Background()
		uploadDir = GinkgoT().TempDir()
		h = newHarness(uploadDir)
		job, _ = h.createJob(ctx, backendPosting)
	})

	It("gets and lists versions of a job", func() {
		rv, _, err := h.resumeSvc.SubmitStructured(ctx, job.ID, "v1", sampleStructure())
		Expect(err).NotTo(HaveOccurred())

		got, err := h.resumeSvc.Get(ctx, rv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.VersionLabel).To(Equal("v1"))

		list, err := h.resumeSvc.ListByJob(ctx, job.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))

		_, err = h.resumeSvc.Get(ctx, uuid.New())
		Expect(err).To(MatchError(services.ErrResumeNotFound))
		_, err = h.resumeSvc.ListByJob(ctx, uuid.New())
		Expect(err).To(MatchError(services.ErrJobNotFound))
	})

	It("deletes a version with its evaluation and upload", func() {
		file, err := fileHeader("resume.txt", []byte(sampleResumeText))
		Expect(err).NotTo(HaveOccurred())
		rv, _, err := h.resumeSvc.SubmitFile(ctx, job.ID, "v1", file)
		Expect(err).NotTo(HaveOccurred())

		Expect(h.resumeSvc.Delete(ctx, rv.ID)).To(Succeed())

		_, err = h.evalSvc.GetByResume(ctx, rv.ID)
		Expect(err).To(MatchError(services.ErrEvaluationNotFound))
		Expect(filepath.Join(uploadDir, rv.FilePath)).NotTo(BeAnExistingFile())
		Expect(h.resumeSvc.Delete(ctx, rv.ID)).To(MatchError(services.ErrResumeNotFound))
	})
})
