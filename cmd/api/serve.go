package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-academic-api/internal/config"
	"github.com/noah-isme/gema-academic-api/internal/database"
	"github.com/noah-isme/gema-academic-api/internal/events"
	"github.com/noah-isme/gema-academic-api/internal/handler"
	"github.com/noah-isme/gema-academic-api/internal/middleware"
	"github.com/noah-isme/gema-academic-api/internal/repository"
	"github.com/noah-isme/gema-academic-api/internal/router"
	"github.com/noah-isme/gema-academic-api/internal/service"
	"github.com/noah-isme/gema-academic-api/pkg/ai"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := newLogger(cmd, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cmd, cfg, logger)
	if err != nil {
		return err
	}
	if cfg.AppEnv == "development" {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	checks := map[string]handler.DependencyCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// Redis and NATS are optional; without them the limiter is per process and events are dropped.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer natsConn.Drain()
		checks["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("nats status %s", natsConn.Status())
			}
			return nil
		}
	}

	gateway, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	deps := service.AIDependencies{
		Gateway:   gateway,
		Publisher: events.NewBroker(natsConn, redisClient, cfg.EventPrefix, logger),
		Activity:  activityService,
		Validator: validate,
		Logger:    logger,
	}

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	files := service.NewFileURLPolicy(cfg.FileFetchAllowedHosts)
	text := service.NewSubmissionTextExtractor(files, cfg.FileFetchTimeout, cfg.FileFetchMaxBytes)

	quizService := service.NewQuizService(repository.NewQuizRepository(db), deps, service.QuizConfig{
		Task:             taskSettings(cfg.AI, cfg.AI.Generation),
		DefaultQuestions: cfg.Quiz.DefaultQuestions,
		TimeLimitMinutes: cfg.Quiz.TimeLimitMinutes,
	})
	draftService := service.NewAssignmentGenerationService(deps, service.AssignmentGenerationConfig{
		Task:               taskSettings(cfg.AI, cfg.AI.Generation),
		DefaultAssignments: cfg.Quiz.DefaultAssignments,
	})
	plagiarismService := service.NewPlagiarismService(submissionRepo, repository.NewPlagiarismReportRepository(db), text, deps, service.PlagiarismConfig{
		Task:            taskSettings(cfg.AI, cfg.AI.Plagiarism),
		FlagThreshold:   cfg.Plagiarism.FlagThreshold,
		TargetMaxChars:  cfg.Plagiarism.TargetMaxChars,
		SiblingMaxChars: cfg.Plagiarism.SiblingMaxChars,
		MaxComparisons:  cfg.Plagiarism.MaxComparisons,
	})
	evaluationService := service.NewEvaluationService(submissionRepo, repository.NewSubmissionEvaluationRepository(db), text, deps, service.EvaluationConfig{
		Task: taskSettings(cfg.AI, cfg.AI.Evaluation),
	})
	learningPathService := service.NewLearningPathService(submissionRepo, repository.NewGradeRepository(db), deps, service.LearningPathConfig{
		Task: taskSettings(cfg.AI, cfg.AI.LearningPath),
	})

	var limiterStorage fiber.Storage
	if redisClient != nil {
		limiterStorage = middleware.NewRedisStorage(redisClient, cfg.EventPrefix+":limiter:")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AIHandler: handler.NewAIHandler(handler.AIServices{
			Quizzes:      quizService,
			Drafts:       draftService,
			Plagiarism:   plagiarismService,
			Evaluations:  evaluationService,
			LearningPath: learningPathService,
		}, logger),
		AssignmentHandler: handler.NewAssignmentHandler(service.NewAssignmentService(assignmentRepo, validate, logger), logger),
		SubmissionHandler: handler.NewSubmissionHandler(service.NewSubmissionService(submissionRepo, assignmentRepo, files, validate, logger), evaluationService, plagiarismService, logger),
		QuizHandler:       handler.NewQuizHandler(quizService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		HealthChecks:      checks,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		RoleMiddleware:    middleware.ResolveRole(roleRepo, logger),
		AIRateLimiter:     middleware.RateLimit("ai", cfg.RateLimit.Max, cfg.RateLimit.Window, limiterStorage),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("provider", cfg.AI.Provider).Str("model", gateway.Model()).Msg("http server starting")
		listenErr <- app.Listen(cfg.HTTPAddress())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func newGateway(cfg config.Config, logger zerolog.Logger) (ai.Gateway, error) {
	switch cfg.AI.Provider {
	case "anthropic":
		gateway, err := ai.NewAnthropicGateway(ai.AnthropicConfig{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create anthropic gateway: %w", err)
		}
		return gateway, nil
	default:
		gateway, err := ai.NewOpenAIGateway(ai.OpenAIConfig{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai gateway: %w", err)
		}
		return gateway, nil
	}
}

func taskSettings(cfg config.AIConfig, task config.TaskSettings) service.TaskSettings {
	return service.TaskSettings{
		Temperature: task.Temperature,
		Seed:        task.Seed,
		MaxTokens:   cfg.MaxTokens,
	}
}
