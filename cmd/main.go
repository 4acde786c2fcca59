package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raflytch/prepwise-server/internal/config"
	"github.com/raflytch/prepwise-server/internal/database"
	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/handler"
	"github.com/raflytch/prepwise-server/internal/jobs"
	"github.com/raflytch/prepwise-server/internal/metrics"
	"github.com/raflytch/prepwise-server/internal/middleware"
	"github.com/raflytch/prepwise-server/internal/repository"
	"github.com/raflytch/prepwise-server/internal/routes"
	"github.com/raflytch/prepwise-server/internal/service"
	"github.com/raflytch/prepwise-server/pkg/genai"
	"github.com/raflytch/prepwise-server/pkg/imagekit"
	"github.com/raflytch/prepwise-server/pkg/jwt"
	"github.com/raflytch/prepwise-server/pkg/logger"
	"github.com/raflytch/prepwise-server/pkg/midtrans"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load(".env")

	cfg := config.Load()

	log := logger.Must(cfg.App.Env)
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Info("no .env file found, using environment variables")
	}

	ctx := context.Background()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	interviewRepo, closeStore, err := newInterviewRepository(ctx, cfg, db)
	if err != nil {
		log.Fatal("failed to open interview store", zap.Error(err))
	}
	defer closeStore()
	log.Info("interview store ready", zap.String("driver", string(cfg.Store.Driver)))

	var textGenerator service.TextGenerator
	genaiClient, err := genai.NewClient(ctx, genai.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
	if err != nil {
		log.Warn("AI client disabled, interview generation and evaluation will fail", zap.Error(err))
	} else {
		textGenerator = genaiClient
	}

	jwtManager := jwt.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	imagekitClient := imagekit.NewClient(imagekit.Config{
		PublicKey:   cfg.ImageKit.PublicKey,
		PrivateKey:  cfg.ImageKit.PrivateKey,
		URLEndpoint: cfg.ImageKit.URLEndpoint,
	})

	midtransClient := midtrans.NewClient(midtrans.Config{
		ServerKey:    cfg.Midtrans.ServerKey,
		ClientKey:    cfg.Midtrans.ClientKey,
		IsProduction: cfg.Midtrans.IsProduction,
	})

	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	planRepo := repository.NewPlanRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	quotaService := service.NewQuotaService(subscriptionRepo, usageRepo)
	authService := service.NewAuthService(userRepo, cacheRepo, cfg.Google, jwtManager, log.Named("auth"))
	userService := service.NewUserService(userRepo, cacheRepo, subscriptionRepo, quotaService, log.Named("user"))
	planService := service.NewPlanService(planRepo, cacheRepo)
	transactionService := service.NewTransactionService(transactionRepo, planRepo, subscriptionRepo, userRepo, midtransClient, log.Named("billing"))
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, log.Named("billing"))
	statsService := service.NewStatsService(interviewRepo, cacheRepo, cfg.Interview.StatsCacheTTL, log.Named("stats"))
	interviewService := service.NewInterviewService(
		interviewRepo,
		service.NewQuestionGenerator(textGenerator, log.Named("generator")),
		service.NewAnswerEvaluator(textGenerator, log.Named("evaluator")),
		quotaService,
		statsService,
		log.Named("interview"),
		service.InterviewServiceConfig{
			PerPage:      cfg.Interview.PerPage,
			SweeperGrace: cfg.Interview.SweeperGrace,
		},
	)

	sweeper := jobs.NewInterviewSweeper(interviewService, cfg.Interview.SweeperSchedule, log.Named("sweeper"))
	if err := sweeper.Start(); err != nil {
		log.Fatal("failed to start interview sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	authMiddleware := middleware.NewAuthMiddleware(authService)

	app := fiber.New(fiber.Config{
		AppName:      "Prepwise API",
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	if cfg.Metrics.Enabled {
		app.Use(metrics.Middleware())
	}
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: false,
	}))

	routes.Setup(app, routes.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService, imagekitClient),
		Interview:    handler.NewInterviewHandler(interviewService, statsService),
		Plan:         handler.NewPlanHandler(planService),
		Transaction:  handler.NewTransactionHandler(transactionService, log.Named("webhook")),
		Subscription: handler.NewSubscriptionHandler(subscriptionService),
	}, routes.Middlewares{
		Auth: authMiddleware,
	}, routes.Options{
		Metrics: cfg.Metrics.Enabled,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	port := cfg.App.Port
	if port == "" {
		port = "3000"
	}

	log.Info("server starting", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// newInterviewRepository selects the interview store. Accounts, plans and
// billing always live in Postgres.
func newInterviewRepository(ctx context.Context, cfg *config.Config, db *sql.DB) (domain.InterviewRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres, "":
		return repository.NewInterviewRepository(db), func() {}, nil
	case config.StoreDriverMongo:
		client, mongoDB, err := database.NewMongoConnection(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}

		setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		repo, err := repository.NewInterviewMongoRepository(setupCtx, mongoDB)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.ErrorWithCode(c, fe.Code, "http", fe.Message)
		}

		kind := domain.KindOf(err)
		if kind == domain.KindInternal {
			log.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			return response.InternalError(c, "internal server error")
		}
		return response.ErrorWithCode(c, handler.StatusOf(kind), string(kind), domain.MessageOf(err))
	}
}
