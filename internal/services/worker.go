package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Worker runs tasks on a fixed number of goroutines.
type Worker[T any] interface {
	Start(ctx context.Context)
	// Stop rejects new tasks, lets queued ones finish and waits for the workers.
	Stop()
	// Enqueue reports false once the worker is stopped.
	Enqueue(task T) bool
}

type WorkerOptions[T any] struct {
	Name        string
	Concurrency int
	QueueSize   int
	// Poll, when set, is called every PollInterval to pick up work that was
	// never enqueued, such as tasks lost in a restart.
	Poll         func(ctx context.Context) ([]T, error)
	PollInterval time.Duration
}

type worker[T any] struct {
	process func(ctx context.Context, task T) error
	opts    WorkerOptions[T]
	logger  *zap.Logger

	queue    chan T
	mu       sync.RWMutex
	stopped  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	pollWG   sync.WaitGroup
}

func NewWorker[T any](process func(ctx context.Context, task T) error, opts WorkerOptions[T], log *zap.Logger) Worker[T] {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.Name == "" {
		opts.Name = "worker"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &worker[T]{
		process:  process,
		opts:     opts,
		logger:   log.Named(opts.Name),
		queue:    make(chan T, opts.QueueSize),
		stopChan: make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker[T]) Start(ctx context.Context) {
	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.processTasks(ctx, i+1)
	}

	if w.opts.Poll != nil {
		w.pollWG.Add(1)
		go w.pollPending(ctx)
	}

	w.logger.Info("worker started", zap.Int("concurrency", w.opts.Concurrency))
}

// Stop implements Worker.
func (w *worker[T]) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopChan)
	w.mu.Unlock()

	w.pollWG.Wait()

	w.mu.Lock()
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// Enqueue implements Worker. It blocks while the queue is full.
func (w *worker[T]) Enqueue(task T) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}

	select {
	case w.queue <- task:
		return true
	case <-w.stopChan:
		return false
	}
}

func (w *worker[T]) processTasks(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker", workerID))

	for task := range w.queue {
		if err := w.process(ctx, task); err != nil {
			log.Warn("task failed", zap.Any("task", task), zap.Error(err))
			continue
		}
		log.Debug("task completed", zap.Any("task", task))
	}
}

func (w *worker[T]) pollPending(ctx context.Context) {
	defer w.pollWG.Done()
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := w.opts.Poll(ctx)
			if err != nil {
				w.logger.Warn("failed to fetch pending tasks", zap.Error(err))
				continue
			}
			if len(pending) > 0 {
				w.logger.Info("found pending tasks", zap.Int("count", len(pending)))
			}
			for _, task := range pending {
				if !w.Enqueue(task) {
					return
				}
			}
		}
	}
}
