package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/caira/backend/internal/api/handlers"
	"github.com/caira/backend/internal/cache/redis"
	"github.com/caira/backend/internal/corpus"
	"github.com/caira/backend/internal/history"
	"github.com/caira/backend/internal/llm"
	"github.com/caira/backend/internal/metrics"
	"github.com/caira/backend/internal/middleware/ratelimit"
	"github.com/caira/backend/internal/middleware/security"
	"github.com/caira/backend/internal/middleware/validation"
	"github.com/caira/backend/internal/query"
	"github.com/caira/backend/internal/retrieval"
	"github.com/caira/backend/internal/status"
	"github.com/caira/backend/internal/storage/sqlite"
	"github.com/caira/backend/pkg/config"
	appLogger "github.com/caira/backend/pkg/logger"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting C-AIRA API server")

	metrics.Init()

	// Retrieval must never run against a partial corpus; any load failure is
	// fatal.
	store, err := corpus.Load(cfg.Corpus.Root, cfg.Corpus.Categories)
	if err != nil {
		appLogger.Fatal("Failed to load document corpus", zap.Error(err))
	}

	dataset, err := history.LoadCSV(cfg.History.CSVPath)
	if err != nil {
		appLogger.Fatal("Failed to load incident history", zap.Error(err))
	}

	keywords, err := history.LoadKeywordMap(cfg.History.KeywordsPath)
	if err != nil {
		appLogger.Fatal("Failed to load keyword map", zap.Error(err))
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without response cache", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	statusClient := status.NewClient(
		cfg.Status.BaseURL,
		time.Duration(cfg.Status.CacheTTL)*time.Second,
		time.Duration(cfg.Status.TimeoutSec)*time.Second,
	)

	retriever := retrieval.New(store, cfg.Retrieval.TopK)
	matcher := history.NewMatcher(dataset, keywords)
	analytics := history.NewAnalytics(dataset)

	engine := query.NewEngine(retriever, matcher, llmClient, sqliteClient, cacheClient, cfg.Assembly.MaxContextChars)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(rateLimiter.Middleware())
	app.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	queryHandler := handlers.NewQueryHandler(engine, sqliteClient)
	feedbackHandler := handlers.NewFeedbackHandler(sqliteClient)
	analyticsHandler := handlers.NewAnalyticsHandler(analytics)
	statusHandler := handlers.NewStatusHandler(statusClient)
	corpusHandler := handlers.NewCorpusHandler(store)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/query", queryHandler.HandleQuery)
	api.Get("/query/history", queryHandler.GetQueryHistory)
	api.Get("/query/ws", websocket.New(wsHandler.HandleConnection))

	api.Post("/feedback", feedbackHandler.HandleFeedback)

	api.Get("/analytics/summary", analyticsHandler.HandleSummary)
	api.Get("/analytics/charts", analyticsHandler.HandleCharts)

	api.Get("/status", statusHandler.HandleStatus)

	api.Get("/documents", corpusHandler.HandleList)
	api.Get("/documents/:id", corpusHandler.HandleGet)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ready",
			"documents": store.Len(),
			"records":   len(dataset.Records),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting",
		zap.String("address", addr),
		zap.Int("documents", store.Len()),
		zap.Int("history_records", len(dataset.Records)),
	)

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
