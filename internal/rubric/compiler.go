package rubric

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Rubric sources.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

const (
	defaultTimeout     = 20 * time.Second
	defaultMaxAttempts = 2
)

// Compilation is the outcome of compiling one posting. It carries everything
// a persisted rubric needs plus the audit trail of how it was produced.
type Compilation struct {
	PostingHash    string
	Analysis       JobAnalysis
	Mapping        DimensionMapping
	Source         string
	RulesetVersion string
	FallbackReason string
	Tags           []string
	Evidence       map[string][]string
}

// CompilerConfig bounds the LLM path.
type CompilerConfig struct {
	// Timeout applies to each individual LLM call.
	Timeout time.Duration
	// MaxAttempts is the number of tries per LLM step, revalidating each one.
	MaxAttempts    int
	RulesetVersion string
}

// Compiler turns posting text into a weighted dimension mapping.
// A nil analyzer runs the fallback path only.
type Compiler struct {
	catalog    *Catalog
	classifier *Classifier
	analyzer   Analyzer
	cache      AnalysisCache
	cfg        CompilerConfig
	logger     *zap.Logger
}

func NewCompiler(catalog *Catalog, classifier *Classifier, analyzer Analyzer, cache AnalysisCache, cfg CompilerConfig, logger *zap.Logger) *Compiler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		catalog:    catalog,
		classifier: classifier,
		analyzer:   analyzer,
		cache:      cache,
		cfg:        cfg,
		logger:     logger.Named("compiler"),
	}
}

// Catalog returns the catalog the compiler selects from.
func (c *Compiler) Catalog() *Catalog {
	return c.catalog
}

// RulesetVersion returns the version stamped on every compilation.
func (c *Compiler) RulesetVersion() string {
	return c.cfg.RulesetVersion
}

// Compile runs analysis then mapping through the analyzer, falling back to the
// classifier when either step keeps failing. Only a misconfigured catalog is
// returned as an error.
func (c *Compiler) Compile(ctx context.Context, posting string) (*Compilation, error) {
	hash := PostingHash(posting)
	log := c.logger.With(zap.String("posting_hash", hash))

	fb, err := c.classifier.Classify(posting)
	if err != nil {
		return nil, err
	}
	mapping, err := ValidateMapping(fb.Mapping, c.catalog)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback mapping rejected: %v", ErrCatalog, err)
	}

	out := &Compilation{
		PostingHash:    hash,
		Analysis:       fb.Analysis,
		Mapping:        mapping,
		Source:         SourceFallback,
		RulesetVersion: c.cfg.RulesetVersion,
		Tags:           fb.Tags,
		Evidence:       fb.Evidence,
	}

	if c.analyzer == nil {
		out.FallbackReason = "llm disabled"
		log.Debug("compiled rubric", zap.String("source", out.Source), zap.String("reason", out.FallbackReason))
		return out, nil
	}

	analysis, err := c.analyze(ctx, hash, posting)
	if err != nil {
		out.FallbackReason = "analysis: " + err.Error()
		log.Warn("falling back", zap.String("stage", "analysis"), zap.String("reason", err.Error()))
		return out, nil
	}
	out.Analysis = *analysis

	llmMapping, err := c.mapDimensions(ctx, analysis)
	if err != nil {
		out.FallbackReason = "mapping: " + err.Error()
		log.Warn("falling back", zap.String("stage", "mapping"), zap.String("reason", err.Error()))
		return out, nil
	}

	out.Mapping = llmMapping
	out.Source = SourceLLM
	out.Evidence = nil
	log.Debug("compiled rubric", zap.String("source", out.Source), zap.Int("dimensions", len(llmMapping)))
	return out, nil
}

func (c *Compiler) analyze(ctx context.Context, hash, posting string) (*JobAnalysis, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.GetAnalysis(ctx, hash)
		switch {
		case err != nil:
			c.logger.Warn("analysis cache read failed", zap.String("posting_hash", hash), zap.Error(err))
		case ok && ValidateAnalysis(cached) == nil:
			return cached, nil
		}
	}

	var analysis *JobAnalysis
	err := c.retry(ctx, "analysis", func(ctx context.Context) error {
		a, err := callWithTimeout(ctx, c.cfg.Timeout, func(ctx context.Context) (*JobAnalysis, error) {
			return c.analyzer.Analyze(ctx, posting)
		})
		if err != nil {
			return err
		}
		if err := ValidateAnalysis(a); err != nil {
			return err
		}
		analysis = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.PutAnalysis(ctx, hash, analysis); err != nil {
			c.logger.Warn("analysis cache write failed", zap.String("posting_hash", hash), zap.Error(err))
		}
	}
	return analysis, nil
}

func (c *Compiler) mapDimensions(ctx context.Context, analysis *JobAnalysis) (DimensionMapping, error) {
	var mapping DimensionMapping
	err := c.retry(ctx, "mapping", func(ctx context.Context) error {
		m, err := callWithTimeout(ctx, c.cfg.Timeout, func(ctx context.Context) (DimensionMapping, error) {
			return c.analyzer.MapDimensions(ctx, analysis, c.catalog)
		})
		if err != nil {
			return err
		}
		valid, err := ValidateMapping(m, c.catalog)
		if err != nil {
			return err
		}
		mapping = valid
		return nil
	})
	return mapping, err
}

func (c *Compiler) retry(ctx context.Context, stage string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		c.logger.Info("llm step failed",
			zap.String("stage", stage),
			zap.Int("attempt", attempt),
			zap.Bool("validation", errors.Is(err, ErrInvalidAnalysis) || errors.Is(err, ErrInvalidMapping)),
			zap.Error(err),
		)
	}
	return fmt.Errorf("failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

type callResult[T any] struct {
	val T
	err error
}

// callWithTimeout returns when fn does or when the timeout fires, whichever is
// first, so an analyzer that ignores its context cannot stall compilation.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- callResult[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
