package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Neo4j graph store
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// MongoDB (ingestion job tracking)
	MongoURI string
	DBName   string

	// Redis (asynq broker)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Gemini API
	GeminiAPIKey           string
	EmbeddingModel         string
	LLMModel               string
	EmbedRequestsPerMinute int
	LLMRequestsPerMinute   int

	// Processing
	ChunkSize          int
	ChunkOverlap       int
	EmbeddingDimension int
	MaxContextTokens   int

	// Storage
	PDFStoragePath string

	// HTTP rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// arXiv API
	ArxivAPIURL string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/paperai"),
		DBName:   getEnv("DB_NAME", "paperai"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		EmbeddingModel:         getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		LLMModel:               getEnv("LLM_MODEL", "gemini-2.0-flash"),
		EmbedRequestsPerMinute: getEnvInt("EMBED_RPM", 100),
		LLMRequestsPerMinute:   getEnvInt("LLM_RPM", 10),

		ChunkSize:          getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 200),
		EmbeddingDimension: getEnvInt("VECTOR_DIM", 768),
		MaxContextTokens:   getEnvInt("MAX_CONTEXT_TOKENS", 8000),

		PDFStoragePath: getEnv("PDF_STORAGE_PATH", "./storage/pdfs"),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		ArxivAPIURL: getEnv("ARXIV_API_URL", "https://export.arxiv.org/api/query"),
	}

	// Validate required fields
	if cfg.Neo4jPassword == "" {
		return nil, fmt.Errorf("NEO4J_PASSWORD is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize || cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be in [0, CHUNK_SIZE) with CHUNK_SIZE=%d", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
