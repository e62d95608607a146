package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richxcame/postguard/internal/classifier"
	"github.com/richxcame/postguard/internal/detection"
	"github.com/richxcame/postguard/internal/features"
	"github.com/richxcame/postguard/internal/posts"
	"github.com/richxcame/postguard/internal/reputation"
	"github.com/richxcame/postguard/internal/rules"
	"github.com/richxcame/postguard/internal/urlcache"
	"github.com/richxcame/postguard/pkg/config"
	"github.com/richxcame/postguard/pkg/database"
	"github.com/richxcame/postguard/pkg/events"
	"github.com/richxcame/postguard/pkg/health"
	"github.com/richxcame/postguard/pkg/logger"
	"github.com/richxcame/postguard/pkg/middleware"
	"github.com/richxcame/postguard/pkg/redis"
	"github.com/richxcame/postguard/pkg/resilience"
	"github.com/richxcame/postguard/pkg/telemetry"
)

const (
	serviceName    = "postguard"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger.Get()); err != nil {
		logger.Fatal("postguard exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	sentryEnabled, err := telemetry.Init(cfg.Sentry.DSN, cfg.Server.Environment, serviceVersion)
	if err != nil {
		log.Warn("Failed to initialize Sentry, continuing without error reporting", zap.Error(err))
	} else if sentryEnabled {
		log.Info("Sentry error reporting enabled")
		defer telemetry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.Database.URL(), log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.NewPostgresPool(ctx, &cfg.Database, serviceName)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	log.Info("Connected to PostgreSQL database")

	checks := map[string]health.Check{
		"database": health.DatabaseChecker(db),
	}

	var redisClient *redis.Client
	if cfg.URLCache.Backend == config.CacheBackendRedis {
		redisClient, err = redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		checks["redis"] = health.RedisCheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		log.Info("Connected to Redis")
	}

	publisher, err := events.New(cfg.Events.NATSURL, serviceName)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer publisher.Close()

	orchestrator, err := buildOrchestrator(cfg, db, redisClient, publisher, checks, log)
	if err != nil {
		return err
	}

	router := buildRouter(cfg, orchestrator, posts.NewHandler(posts.NewService(posts.NewRepository(db))), checks)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	worker := detection.NewWorker(orchestrator, cfg.Detection.Interval, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		worker.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildOrchestrator(cfg *config.Config, db *pgxpool.Pool, redisClient *redis.Client, publisher events.Publisher, checks map[string]health.Check, log *zap.Logger) (*detection.Orchestrator, error) {
	var store urlcache.Store
	switch cfg.URLCache.Backend {
	case config.CacheBackendRedis:
		store = urlcache.NewRedisStore(redisClient, cfg.URLCache.TTL)
	case config.CacheBackendMemory:
		store = urlcache.NewMemoryStore(cfg.URLCache.MaxEntries, cfg.URLCache.TTL)
	default:
		store = urlcache.NewPostgresStore(db, cfg.URLCache.TTL)
	}

	reputationActive := cfg.Reputation.ReputationActive()
	if !reputationActive {
		log.Warn("URL reputation checking disabled, links are treated as safe",
			zap.Bool("enabled", cfg.Reputation.Enabled),
			zap.Bool("api_key_set", cfg.Reputation.APIKey != ""),
		)
	}

	breaker := resilience.NewCircuitBreaker(
		resilience.Settings{
			Name:             "reputation",
			Timeout:          time.Duration(cfg.Reputation.BreakerTimeout) * time.Second,
			FailureThreshold: uint32(max(cfg.Reputation.BreakerFailures, 0)),
		},
		resilience.GracefulDegradation("reputation"),
	)
	if reputationActive {
		checks["reputation"] = health.BreakerCheck(breaker.Name(), breaker.Open)
	}
	checker := reputation.NewSafeBrowsingClient(reputation.Options{
		BaseURL: cfg.Reputation.BaseURL,
		APIKey:  cfg.Reputation.APIKey,
		Timeout: cfg.Reputation.Timeout,
		Breaker: breaker,
	})
	links := urlcache.NewCache(store, checker, urlcache.Options{
		Enabled: reputationActive,
		Logger:  log,
	})

	if len(cfg.Detection.PhishingKeywords) == 0 {
		log.Warn("PHISHING_KEYWORDS is empty, keyword rule disabled")
	}
	if len(cfg.Detection.ShortenerDomains) == 0 {
		log.Warn("SHORTENER_DOMAINS is empty, shortener rule disabled")
	}

	opts := classifier.DefaultTrainingOptions()
	opts.Seed = cfg.Classifier.Seed
	opts.Samples = cfg.Classifier.Samples
	started := time.Now()
	model, err := classifier.TrainSynthetic(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}
	log.Info("Classifier trained",
		zap.Int("trees", model.Trees()),
		zap.Int("samples", opts.Samples),
		zap.Duration("took", time.Since(started)),
	)

	metadata := features.NewStaticMetadata(cfg.Features.DefaultAccountAgeDays, cfg.Features.DefaultFollowerRatio)

	return detection.NewOrchestrator(detection.Dependencies{
		Store:     detection.NewRepository(db),
		Extractor: features.NewExtractor(cfg.Detection.PhishingKeywords, cfg.Detection.ShortenerDomains, metadata, log),
		Scorer:    model,
		Rules:     rules.NewEngine(cfg.Detection.PhishingKeywords, cfg.Detection.ShortenerDomains),
		Links:     links,
		Publisher: publisher,
	}, detection.Options{
		ProbabilityThreshold: cfg.Detection.ProbabilityThreshold,
		EscalationThreshold:  cfg.Detection.EscalationThreshold,
		ClaimTimeout:         cfg.Detection.ClaimTimeout,
		Logger:               log,
	}), nil
}

func buildRouter(cfg *config.Config, orchestrator *detection.Orchestrator, postsHandler *posts.Handler, checks map[string]health.Check) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SentryReporter()...)
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics(serviceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.Server.CORSOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", health.Handler(serviceName, serviceVersion, health.DefaultCheckerConfig(), checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1",
		middleware.MaxBodySize(cfg.Server.MaxBodyBytes),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)
	postsHandler.RegisterRoutes(api)
	detection.NewHandler(orchestrator).RegisterRoutes(api)

	return router
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
