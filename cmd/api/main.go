package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/citizencircle/civic-api/internal/api/http"
	"github.com/citizencircle/civic-api/internal/api/http/handlers"
	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/config"
	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/media"
	"github.com/citizencircle/civic-api/internal/observability"
	"github.com/citizencircle/civic-api/internal/persistence"
	"github.com/citizencircle/civic-api/internal/ratelimit"
	"github.com/citizencircle/civic-api/internal/repository"
	"github.com/citizencircle/civic-api/internal/repository/memory"
	"github.com/citizencircle/civic-api/internal/service"
	"github.com/citizencircle/civic-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var mediaHost media.Host
	if cfg.Media.Enabled() {
		host, err := media.NewS3Host(ctx, cfg.Media, logger)
		if err != nil {
			logger.Fatal("failed to init media host", zap.Error(err))
		}
		mediaHost = host
	} else {
		logger.Warn("media bucket not configured; image uploads disabled")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	var (
		userRepo      repository.UserRepository
		issueRepo     repository.IssueRepository
		voteRepo      repository.VoteRepository
		commentRepo   repository.CommentRepository
		dashboardRepo repository.DashboardRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		userRepo = repository.NewUserRepository(pool)
		issueRepo = repository.NewIssueRepository(pool)
		voteRepo = repository.NewVoteRepository(pool)
		commentRepo = repository.NewCommentRepository(pool)
		dashboardRepo = repository.NewDashboardRepository(pool)
	} else {
		if cfg.App.IsProduction() {
			logger.Fatal("POSTGRES_DSN is required in production")
		}
		logger.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		userRepo = store.Users()
		issueRepo = store.Issues()
		voteRepo = store.Votes()
		commentRepo = store.Comments()
		dashboardRepo = store.Dashboard()
	}

	authService := service.NewAuthService(*cfg, userRepo)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:           issueRepo,
		MediaHost:           mediaHost,
		Dispatcher:          dispatcher,
		Logger:              logger,
		MediaKeyPrefix:      cfg.Media.KeyPrefix,
		MaxUploadBytes:      cfg.Media.MaxUploadBytes,
		DefaultRadiusMeters: cfg.Geo.DefaultRadiusMeters,
	})
	voteService := service.NewVoteService(voteRepo, issueRepo, dispatcher, logger)
	commentService := service.NewCommentService(commentRepo, issueRepo, dispatcher, logger)
	dashboardService := service.NewDashboardService(dashboardRepo)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	limiter := ratelimit.NewRedisLimiter(redis.Client, cfg.RateLimit.KeyPrefix, cfg.RateLimit.IssuesPerWindow, cfg.RateLimit.Window())

	readinessDeps := map[string]handlers.Pinger{"redis": redis}
	if pg.PoolHandle() != nil {
		readinessDeps["postgres"] = pg
	}

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// base64 data URIs inflate uploads by a third
		BodyLimit: int(cfg.Media.MaxUploadBytes * 2),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readinessDeps),
		Auth:           handlers.NewAuthHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Votes:          handlers.NewVotesHandler(voteService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Admin:          handlers.NewAdminHandler(dashboardService, authService, voteService, metrics),
		AuthMiddleware: authMiddleware,
		IssueLimiter: ratelimit.Middleware(limiter, func(c *fiber.Ctx) string {
			principal, _ := auth.PrincipalFromContext(c)
			return principal.ID()
		}, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
