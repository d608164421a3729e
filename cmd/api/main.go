package main

import (
	"context"
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
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/api/handlers"
	rediscache "github.com/community-helpdesk/backend/internal/cache/redis"
	"github.com/community-helpdesk/backend/internal/compose"
	"github.com/community-helpdesk/backend/internal/ingestion"
	"github.com/community-helpdesk/backend/internal/llm"
	"github.com/community-helpdesk/backend/internal/metrics"
	"github.com/community-helpdesk/backend/internal/middleware/ratelimit"
	"github.com/community-helpdesk/backend/internal/middleware/security"
	"github.com/community-helpdesk/backend/internal/middleware/validation"
	"github.com/community-helpdesk/backend/internal/query"
	"github.com/community-helpdesk/backend/internal/retrieval"
	"github.com/community-helpdesk/backend/internal/storage/sqlite"
	"github.com/community-helpdesk/backend/internal/vector/milvus"
	"github.com/community-helpdesk/backend/pkg/config"
	appLogger "github.com/community-helpdesk/backend/pkg/logger"
)

func main() {
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

	appLogger.Info("Starting Community Helpdesk API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.APIKey,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	err = milvusClient.EnsureCollection(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	// Redis is best-effort: without it the service answers every request
	// uncached.
	var redisClient *rediscache.Client
	if cfg.Redis.Enabled {
		redisClient, err = rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	llmOpts := llm.Options{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		TimeoutSec:     cfg.LLM.TimeoutSec,
	}
	if redisClient != nil {
		llmOpts.Cache = redisClient
	}
	llmClient := llm.NewClient(llmOpts)

	composer := compose.New(llmClient, compose.Config{
		City:        cfg.Location.City,
		State:       cfg.Location.State,
		CarePhone:   cfg.CustomerCare.Phone,
		CareEmail:   cfg.CustomerCare.Email,
		CareHours:   cfg.CustomerCare.Hours,
		CarePortal:  cfg.CustomerCare.Portal,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	retriever := retrieval.NewService(llmClient, milvusClient, cfg.RAG.SimilarityThreshold)
	ingestor := ingestion.NewIngestor(llmClient, milvusClient, sqliteClient)

	engineOpts := query.Options{
		TopK:     cfg.RAG.TopK,
		CacheTTL: time.Duration(cfg.RAG.CacheTTLMinutes) * time.Minute,
	}
	var engine *query.Engine
	if redisClient != nil {
		engine = query.NewEngine(retriever, composer, milvusClient, sqliteClient, redisClient, engineOpts)
	} else {
		engine = query.NewEngine(retriever, composer, milvusClient, sqliteClient, nil, engineOpts)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	rateLimiter := ratelimit.New(ratelimit.Config{MaxRequestsPerMinute: 60})
	defer rateLimiter.Stop()
	app.Use(rateLimiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxIngestBodySize: cfg.Server.BodyLimit,
	}))

	chatHandler := handlers.NewChatHandler(engine, sqliteClient)
	feedbackHandler := handlers.NewFeedbackHandler(sqliteClient)
	infoHandler := handlers.NewInfoHandler(engine, llmClient, cfg)
	wsHandler := handlers.NewWebSocketHandler(engine)

	var ingestHandler *handlers.IngestHandler
	if redisClient != nil {
		ingestHandler = handlers.NewIngestHandler(ingestor, engine, redisClient)
	} else {
		ingestHandler = handlers.NewIngestHandler(ingestor, engine, nil)
	}

	api := app.Group("/api/v1")

	api.Post("/chat", chatHandler.HandleChat)
	api.Get("/chat/history", chatHandler.GetChatHistory)
	api.Post("/feedback", feedbackHandler.HandleFeedback)

	api.Post("/ingest", ingestHandler.HandleIngest)

	api.Get("/stats", infoHandler.GetStats)
	api.Get("/categories", infoHandler.GetCategories)
	api.Get("/customer-care", infoHandler.GetCustomerCare)
	api.Get("/health", infoHandler.GetHealth)
	api.Get("/ready", infoHandler.GetReady)

	api.Use("/chat/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/chat/stream", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

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
