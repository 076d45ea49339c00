package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"paperai-backend/internal/ai"
	"paperai-backend/internal/config"
	"paperai-backend/internal/graphdb"
	"paperai-backend/internal/logger"
	"paperai-backend/internal/queue"
	"paperai-backend/internal/telemetry"
	"paperai-backend/middleware"
	"paperai-backend/routes"
	"paperai-backend/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg, "api")

	shutdownTracer, err := telemetry.InitTracer("paperai-backend")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	ctx := context.Background()

	store, err := graphdb.NewNeo4jStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j:", err)
	}
	defer store.Close(ctx)

	if err := store.SetupSchema(ctx, cfg.EmbeddingDimension); err != nil {
		log.Fatal("Failed to set up graph schema:", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to build queue options:", err)
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}
	if embedder == nil {
		logger.Warn("GEMINI_API_KEY not set, running without semantic search")
	}

	var llm *ai.GeminiClient
	if cfg.GeminiAPIKey != "" {
		llm, err = ai.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to create LLM client:", err)
		}
		defer llm.Close()
	}

	jobs := services.NewJobStore(mongoClient.Database(cfg.DBName))
	enqueuer := queue.NewEnqueuer(asynqClient, jobs)
	discovery := services.NewDiscoveryService(cfg.ArxivAPIURL, cfg.PDFStoragePath)
	optimizer := services.NewQueryOptimizer(llm)
	generator := services.NewAnswerGenerator(llm)
	exporter := services.NewExportService(store)

	var retriever *services.HybridRetriever
	if embedder != nil {
		retriever = services.NewHybridRetriever(embedder, store, metrics)
	} else {
		retriever = services.NewHybridRetriever(nil, store, metrics)
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	router.GET("/health", func(c *gin.Context) {
		health := "healthy"
		neo4jStatus := "connected"
		status := http.StatusOK
		if err := store.Ping(c.Request.Context()); err != nil {
			health = "unhealthy"
			neo4jStatus = "disconnected"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":    health,
			"neo4j":     neo4jStatus,
			"timestamp": time.Now().UTC(),
		})
	})

	routes.SetupPaperRoutes(router, store, discovery)
	routes.SetupChatRoutes(router, optimizer, retriever, generator)
	routes.SetupIngestRoutes(router, enqueuer, jobs)
	routes.SetupDashboardRoutes(router, store, exporter)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
