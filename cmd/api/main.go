package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-rubric/internal/config"
	"alfredoptarigan/resume-rubric/internal/handlers"
	"alfredoptarigan/resume-rubric/internal/logger"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/rubric"
	"alfredoptarigan/resume-rubric/internal/scoring"
	"alfredoptarigan/resume-rubric/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !cfg.EnvFileLoaded {
		log.Info("no .env file found, using environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	jobRepo := repositories.NewJobRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	rubricRepo := repositories.NewRubricRepository(db)
	resumeRepo := repositories.NewResumeRepository(db)
	evalRepo := repositories.NewEvaluationRepository(db)

	// Rubric compilation
	catalog := rubric.DefaultCatalog()
	vocab := rubric.DefaultVocabulary()
	classifier, err := rubric.NewClassifier(catalog, vocab)
	if err != nil {
		log.Fatal("invalid vocabulary", zap.Error(err))
	}

	var analysisCache rubric.AnalysisCache = analysisRepo
	if cfg.Redis.URL != "" {
		client, err := services.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal("failed to initialize redis", zap.Error(err))
		}
		defer client.Close()
		analysisCache = services.NewLayeredAnalysisCache(log,
			services.NewRedisAnalysisCache(client, cfg.Redis.TTL),
			analysisRepo,
		)
		log.Info("redis analysis cache enabled")
	}

	var analyzer rubric.Analyzer
	if cfg.LLMEnabled() {
		gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
		if err != nil {
			log.Fatal("failed to initialize gemini", zap.Error(err))
		}
		analyzer = services.NewJobAnalyzer(gemini, services.NewPromptBuilder(), log)
		log.Info("llm analysis enabled", logger.ModelFields("gemini", gemini.Model())...)
	} else {
		log.Warn("GEMINI_API_KEY not set, rubrics are compiled by the fallback classifier only")
	}

	compiler := rubric.NewCompiler(catalog, classifier, analyzer, analysisCache, rubric.CompilerConfig{
		Timeout:        cfg.Compiler.LLMTimeout,
		MaxAttempts:    cfg.Compiler.LLMMaxAttempts,
		RulesetVersion: cfg.Compiler.RulesetVersion,
	}, log)

	// Services
	extractor := services.NewTextExtractor()
	storageService := services.NewStorageService(cfg.Storage.UploadPath, extractor.Supports)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("failed to create upload directory", zap.Error(err))
	}

	rubricService := services.NewRubricService(rubricRepo, compiler, cfg.Compiler.BaseRubricVersion, log)
	evalService := services.NewEvaluationService(
		evalRepo,
		resumeRepo,
		rubricRepo,
		scoring.NewEvaluator(catalog, scoring.DefaultRegistry()),
		log,
	)

	reevaluator := services.NewWorker(
		func(ctx context.Context, resumeID uuid.UUID) error {
			_, err := evalService.EvaluateCurrent(ctx, resumeID)
			return err
		},
		services.WorkerOptions[uuid.UUID]{
			Name:        "reevaluator",
			Concurrency: cfg.Worker.Concurrency,
			Poll: func(ctx context.Context) ([]uuid.UUID, error) {
				return evalService.Stale(ctx, 50)
			},
			PollInterval: time.Minute,
		},
		log,
	)
	reevaluator.Start(ctx)

	jobService := services.NewJobService(jobRepo, resumeRepo, evalRepo, rubricService, reevaluator, storageService, log)
	resumeService := services.NewResumeService(
		jobRepo,
		resumeRepo,
		rubricService,
		evalService,
		storageService,
		extractor,
		resume.NewParser(resume.DefaultTools()),
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      "Resume Rubric API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(handlers.CORS())

	handlers.Register(app.Group("/api/v1"), handlers.Handlers{
		Jobs:    handlers.NewJobHandler(jobService),
		Resumes: handlers.NewResumeHandler(resumeService, cfg.Storage.MaxFileSize),
		Results: handlers.NewResultHandler(evalService),
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":         "Resume Rubric API",
			"version":         "1.0.0",
			"ruleset_version": compiler.RulesetVersion(),
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-quit
		log.Info("shutting down server")
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
		reevaluator.Stop()
		cancel()
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
	<-done
}
