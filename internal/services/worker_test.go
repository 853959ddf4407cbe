package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"alfredoptarigan/resume-rubric/internal/services"
)

var _ = Describe("Worker", func() {
	var (
		mu        sync.Mutex
		processed []int
		record    func(context.Context, int) error
	)

	seen := func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), processed...)
	}

	BeforeEach(func() {
		processed = nil
		record = func(_ context.Context, n int) error {
			mu.Lock()
			defer mu.Unlock()
			processed = append(processed, n)
			if n < 0 {
				return errors.New("negative task")
			}
			return nil
		}
	})

	It("drains queued tasks on Stop", func() {
		w := services.NewWorker(record, services.WorkerOptions[int]{Concurrency: 3}, nil)
		w.Start(context.Background())

		for i := 1; i <= 20; i++ {
			Expect(w.Enqueue(i)).To(BeTrue())
		}
		w.Stop()

		Expect(seen()).To(HaveLen(20))
		Expect(w.Enqueue(21)).To(BeFalse())
	})

	It("keeps going after a failed task", func() {
		w := services.NewWorker(record, services.WorkerOptions[int]{}, nil)
		w.Start(context.Background())

		Expect(w.Enqueue(-1)).To(BeTrue())
		Expect(w.Enqueue(2)).To(BeTrue())
		w.Stop()

		Expect(seen()).To(Equal([]int{-1, 2}))
	})

	It("picks up polled tasks", func() {
		var once sync.Once
		w := services.NewWorker(record, services.WorkerOptions[int]{
			PollInterval: 10 * time.Millisecond,
			Poll: func(context.Context) ([]int, error) {
				var out []int
				once.Do(func() { out = []int{7, 8} })
				return out, nil
			},
		}, nil)
		w.Start(context.Background())
		DeferCleanup(w.Stop)

		Eventually(seen).Should(ConsistOf(7, 8))
	})

	It("tolerates repeated Stop calls", func() {
		w := services.NewWorker(record, services.WorkerOptions[int]{}, nil)
		w.Start(context.Background())
		w.Stop()
		w.Stop()
	})
})
