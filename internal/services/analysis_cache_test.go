package services_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"alfredoptarigan/resume-rubric/internal/rubric"
	"alfredoptarigan/resume-rubric/internal/services"
)

var _ = Describe("LayeredAnalysisCache", func() {
	var (
		ctx      context.Context
		fast     *memAnalysisCache
		slow     *memAnalysisCache
		cache    rubric.AnalysisCache
		analysis rubric.JobAnalysis
	)

	BeforeEach(func() {
		ctx = context.Background()
		fast = newMemAnalysisCache()
		slow = newMemAnalysisCache()
		cache = services.NewLayeredAnalysisCache(nil, fast, nil, slow)
		analysis = rubric.JobAnalysis{RoleLevel: "mid", Domain: "data", Requirements: []string{"SQL"}, Priorities: []string{"SQL"}}
	})

	It("backfills the upper layer on a lower hit", func() {
		slow.entries["h1"] = analysis

		got, ok, err := cache.GetAnalysis(ctx, "h1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(*got).To(Equal(analysis))
		Expect(fast.entries).To(HaveKeyWithValue("h1", analysis))
	})

	It("writes through every layer", func() {
		Expect(cache.PutAnalysis(ctx, "h2", &analysis)).To(Succeed())
		Expect(fast.puts).To(Equal(1))
		Expect(slow.puts).To(Equal(1))
	})

	It("reads past a failing layer", func() {
		fast.getErr = errors.New("connection refused")
		slow.entries["h3"] = analysis

		got, ok, err := cache.GetAnalysis(ctx, "h3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got.Domain).To(Equal("data"))
	})

	It("reports layer errors on a miss", func() {
		fast.getErr = errors.New("connection refused")

		_, ok, err := cache.GetAnalysis(ctx, "missing")
		Expect(ok).To(BeFalse())
		Expect(err).To(MatchError(ContainSubstring("connection refused")))
	})
})
