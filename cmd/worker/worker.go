package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"

	"paperai-backend/internal/ai"
	"paperai-backend/internal/chunker"
	"paperai-backend/internal/config"
	"paperai-backend/internal/graphdb"
	"paperai-backend/internal/logger"
	"paperai-backend/internal/queue"
	"paperai-backend/internal/telemetry"
	"paperai-backend/services"
)

// staleJobAge is how long a job may sit untouched in pending or
// processing before the sweeper fails it.
const staleJobAge = 2 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg, "worker")

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

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(disconnectCtx)
	}()

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}
	if embedder == nil {
		logger.Warn("GEMINI_API_KEY not set, ingesting without embeddings")
	}

	ch := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	var pipeline *services.IngestionPipeline
	if embedder != nil {
		pipeline = services.NewIngestionPipeline(ch, embedder, store, cfg.EmbeddingDimension, metrics)
	} else {
		pipeline = services.NewIngestionPipeline(ch, nil, store, cfg.EmbeddingDimension, metrics)
	}

	jobs := services.NewJobStore(mongoClient.Database(cfg.DBName))
	discovery := services.NewDiscoveryService(cfg.ArxivAPIURL, cfg.PDFStoragePath)
	extractor := services.NewPDFExtractor(cfg.PDFStoragePath, metrics)
	processor := queue.NewTaskProcessor(discovery, extractor, pipeline, jobs)

	// Sweep jobs orphaned by crashed workers.
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(15).Minutes().Do(func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := jobs.SweepStale(sweepCtx, staleJobAge); err != nil {
			logger.Error("Stale job sweep failed", "error", err)
		}
	})
	scheduler.StartAsync()
	defer scheduler.Stop()

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to build queue options:", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestPaper, processor.HandleIngestPaper)

	logger.Info("Starting ingestion worker", "redis", redisOpt.Addr, "concurrency", 10)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
