package services_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/rubric"
	"alfredoptarigan/resume-rubric/internal/services"
)

var _ = Describe("RubricService", func() {
	var (
		ctx     context.Context
		store   *memRubricStore
		svc     services.RubricService
		job     *models.Job
		catalog *rubric.Catalog
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemRubricStore()
		catalog = rubric.DefaultCatalog()
		svc = services.NewRubricService(store, newTestCompiler(nil, nil), "1.0.0", nil)
		job = &models.Job{ID: uuid.New(), Title: "Backend", Posting: backendPosting, PostingHash: rubric.PostingHash(backendPosting)}
	})

	It("compiles and stores a fallback rubric with every core dimension", func() {
		rb, err := svc.EnsureForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		Expect(rb.JobID).To(Equal(job.ID))
		Expect(rb.Source).To(Equal(rubric.SourceFallback))
		Expect(rb.FallbackReason).To(Equal("llm disabled"))
		Expect(rb.BaseRubricID).To(Equal(services.BaseRubricID))
		Expect(rb.BaseRubricVersion).To(Equal("1.0.0"))
		Expect(rb.RulesetVersion).To(Equal("test-1"))
		Expect(rb.Revision).To(Equal(1))
		Expect(rb.PostingHash).To(Equal(job.PostingHash))
		Expect(rb.RoleLevel).To(Equal(rubric.LevelSenior))

		mapping, err := services.RubricMapping(rb)
		Expect(err).NotTo(HaveOccurred())
		for _, id := range catalog.Core() {
			Expect(mapping).To(HaveKeyWithValue(id, 1.0))
		}

		var evidence map[string][]string
		Expect(json.Unmarshal(rb.Evidence, &evidence)).To(Succeed())
		Expect(evidence).To(HaveKey("tooling_match"))
	})

	It("returns the stored rubric without compiling again", func() {
		first, err := svc.EnsureForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		second, err := svc.EnsureForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.ID).To(Equal(first.ID))
		Expect(store.createCalls).To(Equal(1))
	})

	It("converges concurrent first compiles on one rubric", func() {
		var wg sync.WaitGroup
		ids := make([]uuid.UUID, 16)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				rb, err := svc.EnsureForJob(ctx, job)
				Expect(err).NotTo(HaveOccurred())
				ids[i] = rb.ID
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			Expect(id).To(Equal(ids[0]))
		}
		Expect(store.byJob).To(HaveLen(1))
	})

	It("produces an identical mapping for an identical posting", func() {
		a, err := svc.EnsureForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		other := &models.Job{ID: uuid.New(), Posting: backendPosting}
		b, err := svc.EnsureForJob(ctx, other)
		Expect(err).NotTo(HaveOccurred())

		Expect(string(b.DimensionOverrides)).To(Equal(string(a.DimensionOverrides)))
	})

	It("bumps the revision when recompiling a changed posting", func() {
		first, err := svc.EnsureForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		job.Posting = frontendPosting
		job.PostingHash = rubric.PostingHash(frontendPosting)
		second, err := svc.RecompileForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.ID).To(Equal(first.ID))
		Expect(second.Revision).To(Equal(2))
		Expect(second.PostingHash).To(Equal(job.PostingHash))
		Expect(second.Domain).To(Equal("frontend"))
	})

	It("accepts a concurrent recompile of the same posting", func() {
		_, err := svc.EnsureForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		job.Posting = frontendPosting
		job.PostingHash = rubric.PostingHash(frontendPosting)
		store.beforeRecompile = func() {
			store.beforeRecompile = nil
			current, _ := store.FindByJobID(ctx, job.ID)
			current.Revision++
			current.PostingHash = job.PostingHash
			store.put(*current)
		}

		rb, err := svc.RecompileForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())
		Expect(rb.Revision).To(Equal(2))
	})

	It("rejects a concurrent recompile of a different posting", func() {
		_, err := svc.EnsureForJob(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		job.Posting = frontendPosting
		job.PostingHash = rubric.PostingHash(frontendPosting)
		store.beforeRecompile = func() {
			store.beforeRecompile = nil
			current, _ := store.FindByJobID(ctx, job.ID)
			current.Revision++
			current.PostingHash = "someone-else"
			store.put(*current)
		}

		_, err = svc.RecompileForJob(ctx, job)
		Expect(err).To(MatchError(repositories.ErrStaleRevision))
	})

	It("reports a missing rubric as a consistency error", func() {
		_, err := svc.GetByJob(ctx, uuid.New())
		Expect(err).To(MatchError(services.ErrRubricNotFound))

		_, err = svc.GetByID(ctx, uuid.New())
		Expect(err).To(MatchError(services.ErrRubricNotFound))
	})

	When("the analyzer is available", func() {
		It("stores an llm rubric and caches the analysis", func() {
			gemini := &fakeGemini{responses: []string{
				"```json\n{\"role_level\":\"senior\",\"domain\":\"backend\",\"requirements\":[\"Go\",\"PostgreSQL\"],\"priorities\":[\"Go\"]}\n```",
				`{"skill_alignment": 0.9, "tooling_match": 0.7}`,
			}}
			cache := newMemAnalysisCache()
			analyzer := services.NewJobAnalyzer(gemini, services.NewPromptBuilder(), nil)
			svc = services.NewRubricService(store, newTestCompiler(analyzer, cache), "1.0.0", nil)

			rb, err := svc.EnsureForJob(ctx, job)
			Expect(err).NotTo(HaveOccurred())

			Expect(rb.Source).To(Equal(rubric.SourceLLM))
			Expect(rb.Domain).To(Equal("backend"))
			mapping, err := services.RubricMapping(rb)
			Expect(err).NotTo(HaveOccurred())
			Expect(mapping).To(HaveKeyWithValue("skill_alignment", 0.9))
			Expect(mapping).To(HaveKeyWithValue("clarity", 1.0))
			Expect(mapping).To(HaveLen(6))
			Expect(cache.puts).To(Equal(1))
		})

		It("falls back when the model keeps failing", func() {
			gemini := &fakeGemini{responses: []string{"not json", "still not json"}}
			analyzer := services.NewJobAnalyzer(gemini, services.NewPromptBuilder(), nil)
			svc = services.NewRubricService(store, newTestCompiler(analyzer, nil), "1.0.0", nil)

			rb, err := svc.EnsureForJob(ctx, job)
			Expect(err).NotTo(HaveOccurred())

			Expect(rb.Source).To(Equal(rubric.SourceFallback))
			Expect(rb.FallbackReason).To(HavePrefix("analysis:"))
			Expect(gemini.prompts).To(HaveLen(2))
		})
	})
})
