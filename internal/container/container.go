// Package container provides dependency injection management for the
// engine. It consolidates all services and provides type-safe access to
// dependencies.
package container

import (
	"context"
	"sync"

	"github.com/soundtrace/engine/internal/audio"
	"github.com/soundtrace/engine/internal/cache"
	"github.com/soundtrace/engine/internal/embedding"
	"github.com/soundtrace/engine/internal/fingerprintindex"
	"github.com/soundtrace/engine/internal/ingest"
	"github.com/soundtrace/engine/internal/lanes"
	"github.com/soundtrace/engine/internal/logger"
	"github.com/soundtrace/engine/internal/middleware"
	"github.com/soundtrace/engine/internal/rawstore"
	"github.com/soundtrace/engine/internal/repository"
	"github.com/soundtrace/engine/internal/vectorstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies and provides type-safe access.
// It implements the Service Locator pattern with additional lifecycle management.
type Container struct {
	// Core infrastructure
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.RedisClient

	// Stores
	rawStore     *rawstore.Store
	mirror       *rawstore.Mirror
	fingerprints *fingerprintindex.Index
	vectors      *vectorstore.Client
	tracks       *repository.TrackRepository

	// Audio + embedding
	decoder  *audio.Decoder
	embedder *embedding.Engine

	// Domain services
	pipeline     *ingest.Pipeline
	orchestrator *lanes.Orchestrator
	cacheManager *middleware.CacheManager

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty container.
// Services should be registered using Set* methods.
func New() *Container {
	return &Container{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// ============================================================================
// CORE INFRASTRUCTURE SETTERS/GETTERS
// ============================================================================

func (c *Container) SetDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

func (c *Container) SetLogger(l *zap.Logger) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

func (c *Container) SetCache(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// ============================================================================
// STORE SETTERS/GETTERS
// ============================================================================

func (c *Container) SetRawStore(s *rawstore.Store) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rawStore = s
	return c
}

func (c *Container) RawStore() *rawstore.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rawStore
}

func (c *Container) SetMirror(m *rawstore.Mirror) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mirror = m
	return c
}

func (c *Container) Mirror() *rawstore.Mirror {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mirror
}

func (c *Container) SetFingerprintIndex(idx *fingerprintindex.Index) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprints = idx
	return c
}

func (c *Container) FingerprintIndex() *fingerprintindex.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fingerprints
}

func (c *Container) SetVectorStore(v *vectorstore.Client) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = v
	return c
}

func (c *Container) VectorStore() *vectorstore.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vectors
}

func (c *Container) SetTrackRepository(r *repository.TrackRepository) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracks = r
	return c
}

func (c *Container) TrackRepository() *repository.TrackRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tracks
}

// ============================================================================
// AUDIO + EMBEDDING SETTERS/GETTERS
// ============================================================================

func (c *Container) SetDecoder(d *audio.Decoder) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoder = d
	return c
}

func (c *Container) Decoder() *audio.Decoder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.decoder
}

func (c *Container) SetEmbedder(e *embedding.Engine) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embedder = e
	return c
}

func (c *Container) Embedder() *embedding.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embedder
}

// ============================================================================
// DOMAIN SERVICE SETTERS/GETTERS
// ============================================================================

func (c *Container) SetPipeline(p *ingest.Pipeline) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipeline = p
	return c
}

func (c *Container) Pipeline() *ingest.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pipeline
}

func (c *Container) SetOrchestrator(o *lanes.Orchestrator) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orchestrator = o
	return c
}

func (c *Container) Orchestrator() *lanes.Orchestrator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orchestrator
}

func (c *Container) SetCacheManager(m *middleware.CacheManager) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheManager = m
	return c
}

func (c *Container) CacheManager() *middleware.CacheManager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cacheManager
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup performs graceful shutdown of all registered services.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger
	if log == nil {
		log = logger.Log
	}

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			log.Error("cleanup function failed", zap.Int("index", i), zap.Error(err))
		}
	}

	return nil
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that all required dependencies are registered.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	missingDeps := []string{}

	if c.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if c.decoder == nil {
		missingDeps = append(missingDeps, "audio decoder")
	}
	if c.fingerprints == nil {
		missingDeps = append(missingDeps, "fingerprint index")
	}
	if c.vectors == nil {
		missingDeps = append(missingDeps, "vector store")
	}
	if c.tracks == nil {
		missingDeps = append(missingDeps, "track repository")
	}
	if c.pipeline == nil {
		missingDeps = append(missingDeps, "ingestion pipeline")
	}
	if c.orchestrator == nil {
		missingDeps = append(missingDeps, "search orchestrator")
	}

	if len(missingDeps) > 0 {
		return NewInitializationError("missing required dependencies", missingDeps)
	}

	return nil
}
