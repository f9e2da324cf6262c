// Command server runs the engine's HTTP API: search (exact + vibe match),
// ingest, catalog browsing, and archival audio serving.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundtrace/engine/internal/audio"
	"github.com/soundtrace/engine/internal/cache"
	"github.com/soundtrace/engine/internal/config"
	"github.com/soundtrace/engine/internal/container"
	"github.com/soundtrace/engine/internal/database"
	"github.com/soundtrace/engine/internal/dedup"
	"github.com/soundtrace/engine/internal/embedding"
	"github.com/soundtrace/engine/internal/fingerprintindex"
	"github.com/soundtrace/engine/internal/httpapi"
	"github.com/soundtrace/engine/internal/ingest"
	"github.com/soundtrace/engine/internal/lanes"
	"github.com/soundtrace/engine/internal/logger"
	"github.com/soundtrace/engine/internal/middleware"
	"github.com/soundtrace/engine/internal/rawstore"
	"github.com/soundtrace/engine/internal/repository"
	"github.com/soundtrace/engine/internal/telemetry"
	"github.com/soundtrace/engine/internal/vectorstore"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("starting server",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.ListenPort),
	)

	c := container.New()
	c.SetLogger(logger.Log)

	tracingEnabled := false
	if cfg.OTelEnabled {
		tracerProvider, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:  "soundtrace-engine",
			Environment:  cfg.Environment,
			OTLPEndpoint: cfg.OTelEndpoint,
			Enabled:      cfg.OTelEnabled,
			SamplingRate: cfg.OTelSamplingRate,
		})
		if err != nil {
			logger.FatalWithFields("failed to initialize tracer", err)
		}
		if tracerProvider != nil {
			tracingEnabled = true
			c.OnCleanup(func(ctx context.Context) error {
				return tracerProvider.Shutdown(ctx)
			})
		}
	}

	if err := audio.CheckInstallation(""); err != nil {
		logger.Log.Warn("decoder binary check failed, continuing anyway", zap.Error(err))
	}

	db, err := database.Initialize(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		logger.FatalWithFields("failed to connect to database", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.FatalWithFields("failed to run migrations", err)
	}
	c.SetDB(db)
	c.OnCleanup(func(ctx context.Context) error {
		return database.Close(db)
	})

	if cfg.RedisHost != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("failed to connect to redis, continuing without cache", zap.Error(err))
		} else {
			c.SetCache(redisClient)
			c.SetCacheManager(middleware.NewCacheManager(redisClient))
			c.OnCleanup(func(ctx context.Context) error {
				return redisClient.Close()
			})
		}
	}

	rawStore, err := rawstore.New(cfg.StorageRoot)
	if err != nil {
		logger.FatalWithFields("failed to initialize raw store", err)
	}
	c.SetRawStore(rawStore)

	if cfg.S3Bucket != "" {
		mirror, err := rawstore.NewMirror(context.Background(), cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			logger.Log.Warn("failed to initialize S3 mirror, continuing without it", zap.Error(err))
		} else {
			if err := mirror.CheckBucketAccess(context.Background()); err != nil {
				logger.Log.Warn("S3 mirror bucket access check failed", zap.Error(err))
			}
			c.SetMirror(mirror)
		}
	}

	fingerprints, err := fingerprintindex.New(cfg.FingerprintToolPath, cfg.FingerprintIndexDir)
	if err != nil {
		logger.FatalWithFields("failed to initialize fingerprint index", err)
	}
	if err := fingerprints.CheckInstallation(context.Background()); err != nil {
		logger.FatalWithFields("fingerprint tool check failed", err)
	}
	c.SetFingerprintIndex(fingerprints)

	if cfg.VectorStoreURL != "" {
		os.Setenv("ELASTICSEARCH_URL", cfg.VectorStoreURL)
	}
	vectors, err := vectorstore.NewClient(cfg.VectorStoreCollection)
	if err != nil {
		logger.FatalWithFields("failed to connect to vector store", err)
	}
	if err := vectors.EnsureCollection(context.Background(), cfg.EmbeddingDim); err != nil {
		logger.FatalWithFields("failed to ensure vector store collection", err)
	}
	c.SetVectorStore(vectors)

	tracks := repository.NewTrackRepository(db)
	c.SetTrackRepository(tracks)

	decoder := audio.NewDecoder("")
	c.SetDecoder(decoder)

	embedder, err := embedding.NewEngine(cfg.EmbeddingONNXLibPath, cfg.EmbeddingModelPath, audio.EmbeddingRate, cfg.EmbeddingDim, cfg.EmbeddingConcurrency)
	if err != nil {
		logger.FatalWithFields("failed to load embedding model", err)
	}
	c.SetEmbedder(embedder)
	c.OnCleanup(func(ctx context.Context) error {
		embedder.Close()
		return nil
	})

	dedupFP := dedup.New(dedup.DefaultConfig())

	pipeline := ingest.NewPipeline(decoder, dedupFP, rawStore, c.Mirror(), fingerprints, embedder, vectors, tracks, cfg.EmbeddingModelID)
	c.SetPipeline(pipeline)

	exactLane := lanes.NewExactLane(fingerprints, tracks, cfg.StrongMatchHashes, cfg.MinAlignedHashes)
	vibeLane := lanes.NewVibeLane(embedder, vectors, tracks, cfg.VibeMatchThreshold)
	orchestrator := lanes.NewOrchestrator(exactLane, vibeLane, cfg.ExactLaneTimeout, cfg.VibeLaneTimeout, cfg.TotalRequestTimeout, cfg.ExactTrustThreshold)
	c.SetOrchestrator(orchestrator)

	if err := c.Validate(); err != nil {
		logger.FatalWithFields("container validation failed", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	if tracingEnabled {
		router.Use(otelgin.Middleware("soundtrace-engine"))
	}
	router.Use(cors.New(corsConfig()))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := httpapi.NewServer(
		decoder,
		orchestrator,
		pipeline,
		tracks,
		rawStore,
		c.CacheManager(),
		cfg.AdminKey,
		cfg.SearchMaxFileBytes,
		cfg.IngestMaxFileBytes,
	)
	server.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ListenPort),
		Handler: router,
	}

	go func() {
		logger.Log.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		logger.Log.Error("cleanup failed", zap.Error(err))
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Log.Error("server shutdown failed", zap.Error(err))
	}

	logger.Log.Info("shutdown complete")
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	origins := os.Getenv("ALLOWED_ORIGINS")
	if origins == "" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = splitAndTrim(origins)
	}
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key", "X-Request-ID"}
	return cfg
}

func splitAndTrim(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			part := s[start:i]
			for len(part) > 0 && part[0] == ' ' {
				part = part[1:]
			}
			for len(part) > 0 && part[len(part)-1] == ' ' {
				part = part[:len(part)-1]
			}
			if part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
