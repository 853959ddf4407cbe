package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-rubric/internal/config"
	"alfredoptarigan/resume-rubric/internal/logger"
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/rubric"
	"alfredoptarigan/resume-rubric/internal/scoring"
	"alfredoptarigan/resume-rubric/internal/services"
)

type batchItem struct {
	index int
	path  string
}

type batchResult struct {
	File       string              `json:"file"`
	Evaluation *scoring.Evaluation `json:"evaluation,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type batchReport struct {
	PostingHash    string                  `json:"posting_hash"`
	Source         string                  `json:"source"`
	RulesetVersion string                  `json:"ruleset_version"`
	Mapping        rubric.DimensionMapping `json:"mapping"`
	Results        []batchResult           `json:"results"`
}

var (
	postingPath string
	resumesDir  string
	concurrency int
	asJSON      bool
	debug       bool
)

var rootCmd = &cobra.Command{
	Use:   "batch_evaluate",
	Short: "Compile a rubric from a job posting and score every resume in a folder against it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&postingPath, "posting", "p", "", "job posting file (.pdf, .txt or .md)")
	rootCmd.Flags().StringVarP(&resumesDir, "resumes", "r", "", "folder of resumes to evaluate")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "number of concurrent evaluations")
	rootCmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the report as JSON")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.MarkFlagRequired("posting")
	rootCmd.MarkFlagRequired("resumes")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()

	log, err := logger.New(false, debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	extractor := services.NewTextExtractor()
	posting, err := extractor.ExtractText(postingPath)
	if err != nil {
		return fmt.Errorf("failed to read posting: %w", err)
	}

	catalog := rubric.DefaultCatalog()
	classifier, err := rubric.NewClassifier(catalog, rubric.DefaultVocabulary())
	if err != nil {
		return err
	}

	var analyzer rubric.Analyzer
	if cfg.LLMEnabled() {
		gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
		if err != nil {
			return err
		}
		analyzer = services.NewJobAnalyzer(gemini, services.NewPromptBuilder(), log)
	}

	compiler := rubric.NewCompiler(catalog, classifier, analyzer, nil, rubric.CompilerConfig{
		Timeout:        cfg.Compiler.LLMTimeout,
		MaxAttempts:    cfg.Compiler.LLMMaxAttempts,
		RulesetVersion: cfg.Compiler.RulesetVersion,
	}, log)

	compiled, err := compiler.Compile(ctx, posting)
	if err != nil {
		return err
	}
	log.Info("rubric compiled",
		zap.String("source", compiled.Source),
		zap.Int("dimensions", len(compiled.Mapping)),
		zap.String("reason", compiled.FallbackReason),
	)

	files, err := resumeFiles(resumesDir, extractor)
	if err != nil {
		return err
	}

	report := batchReport{
		PostingHash:    compiled.PostingHash,
		Source:         compiled.Source,
		RulesetVersion: compiled.RulesetVersion,
		Mapping:        compiled.Mapping,
		Results:        make([]batchResult, len(files)),
	}

	parser := resume.NewParser(resume.DefaultTools())
	evaluator := scoring.NewEvaluator(catalog, scoring.DefaultRegistry())

	var mu sync.Mutex
	pool := services.NewWorker(
		func(_ context.Context, item batchItem) error {
			res := batchResult{File: filepath.Base(item.path)}
			defer func() {
				mu.Lock()
				report.Results[item.index] = res
				mu.Unlock()
			}()

			text, err := extractor.ExtractText(item.path)
			if err != nil {
				res.Error = err.Error()
				return err
			}
			ev, err := evaluator.Evaluate(parser.Parse(text), compiled.Mapping)
			if err != nil {
				res.Error = err.Error()
				return err
			}
			res.Evaluation = ev
			return nil
		},
		services.WorkerOptions[batchItem]{Name: "batch", Concurrency: concurrency},
		log,
	)

	pool.Start(ctx)
	for i, f := range files {
		pool.Enqueue(batchItem{index: i, path: f})
	}
	pool.Stop()

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printTable(report)
}

// resumeFiles lists supported files in dir in lexical order.
func resumeFiles(dir string, extractor services.TextExtractor) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read resumes folder: %w", err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !extractor.Supports(filepath.Ext(e.Name())) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func printTable(report batchReport) error {
	fmt.Printf("rubric %s (%s, ruleset %s)\n\n", report.PostingHash, report.Source, report.RulesetVersion)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tOVERALL\tBULLETS\tTOP PRIORITY")
	for _, r := range report.Results {
		if r.Evaluation == nil {
			fmt.Fprintf(w, "%s\t-\t-\t%s\n", r.File, r.Error)
			continue
		}
		top := "-"
		if len(r.Evaluation.Recommendations) > 0 {
			top = r.Evaluation.Recommendations[0].Dimension
		}
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%s\n", r.File, r.Evaluation.Overall, r.Evaluation.BulletCount, top)
	}
	return w.Flush()
}
