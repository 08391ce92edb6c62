// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/ecowander/ecoproof/internal/adapters/mq/queue"
	workerpool "github.com/ecowander/ecoproof/internal/adapters/mq/worker"
	"github.com/ecowander/ecoproof/internal/adapters/repository"
	"github.com/ecowander/ecoproof/internal/config"
	"github.com/ecowander/ecoproof/internal/domain/classify"
	"github.com/ecowander/ecoproof/internal/domain/fraud"
	"github.com/ecowander/ecoproof/internal/domain/fusion"
	"github.com/ecowander/ecoproof/internal/domain/geo"
	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/internal/domain/rules"
	"github.com/ecowander/ecoproof/internal/platform/tflite"
	"github.com/ecowander/ecoproof/pkg/logger"
	"github.com/ecowander/ecoproof/pkg/metrics"
)

// Service implements the API dependencies for the verification system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	clsModel   classify.Model
	engine     *fusion.Engine
	hashStore  fraud.HashStore
	results    repository.ResultStore
	jobQueue   jobqueue.Queue
	locations  []model.EcoLocation
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithModel injects a classifier model, bypassing model loading from
// disk. Used by tests and by deployments without a model file.
func WithModel(m classify.Model) Option {
	return func(s *Service) {
		if m != nil {
			s.clsModel = m
		}
	}
}

// WithLocations overrides the built-in eco-location registry.
func WithLocations(locations []model.EcoLocation) Option {
	return func(s *Service) {
		if len(locations) > 0 {
			s.locations = locations
		}
	}
}

// WithHashStore injects a custom seen-hash store.
func WithHashStore(store fraud.HashStore) Option {
	return func(s *Service) {
		if store != nil {
			s.hashStore = store
		}
	}
}

// New constructs a new Service from configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:         cfg,
		workerCount: runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:   10000,                // Default queue size
		locations:   geo.DefaultRegistry(),
		stopCh:      make(chan struct{}),
		logger:      nil, // Will be replaced when service starts
	}

	if cfg != nil {
		if cfg.WorkerCount > 0 {
			s.workerCount = cfg.WorkerCount
		}
		if cfg.QueueSize > 0 {
			s.queueSize = cfg.QueueSize
		}
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting verification service...")

	cfg := s.cfg
	if cfg == nil {
		cfg = config.New(ctx)
	}

	labels, err := classify.LoadLabels(cfg.LabelPath)
	if err != nil {
		return fmt.Errorf("load label map: %w", err)
	}

	if s.clsModel == nil {
		if cfg.ModelPath != "" {
			handle, err := tflite.Open(cfg.ModelPath, cfg.InputHeight, cfg.InputWidth)
			if err != nil {
				return fmt.Errorf("open model: %w", err)
			}
			s.clsModel = handle
			s.logger.Info(ctx, "using tflite model", logger.String("path", cfg.ModelPath))
		} else {
			s.clsModel = classify.NewStaticModel(
				classify.WithInputShape(cfg.InputHeight, cfg.InputWidth),
			)
			s.logger.Warn(ctx, "no model path configured, using static model")
		}
	}

	classifier, err := classify.New(s.clsModel, labels)
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}

	ruleRegistry := rules.NewRegistry(
		rules.WithSeason(cfg.SeasonStartMonth, cfg.SeasonStartDay, cfg.SeasonEndMonth, cfg.SeasonEndDay),
		rules.WithPinkRatioThreshold(cfg.PinkRatioThreshold),
		rules.WithMinConfidence(cfg.MinConfidence),
	)

	geoScorer := geo.NewScorer(
		geo.WithRegistry(s.locations),
		geo.WithMaxDistance(cfg.MaxDistanceMeters),
		geo.WithTimestampMaxAge(time.Duration(cfg.TimestampMaxAgeSec)*time.Second),
	)

	if s.hashStore == nil {
		if cfg.RedisAddr != "" {
			s.hashStore = repository.NewRedisHashStore(cfg.RedisAddr)
			s.logger.Info(ctx, "using redis hash store", logger.String("addr", cfg.RedisAddr))
		} else {
			s.hashStore = repository.NewInMemoryHashStore()
		}
	}

	fraudScorer := fraud.NewScorer(s.hashStore,
		fraud.WithHashSize(cfg.HashSize),
		fraud.WithEdgeVarianceThreshold(cfg.EdgeVarianceThreshold),
		fraud.WithEditedScore(cfg.EditedFraudScore),
	)

	s.engine = fusion.New(classifier, ruleRegistry, geoScorer, fraudScorer,
		fusion.WithWeights(fusion.Weights{
			Confidence: cfg.ConfidenceWeight,
			Location:   cfg.LocationWeight,
			Fraud:      cfg.FraudWeight,
		}),
		fusion.WithLocationMinScore(cfg.LocationMinScore),
		fusion.WithFraudMaxScore(cfg.FraudMaxScore),
		fusion.WithMaxImageBytes(cfg.MaxImageBytes),
		fusion.WithLogger(s.logger.Named("fusion")),
	)

	s.results = repository.NewInMemoryResultStore()
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	// Create and start worker pool
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.engine, s.results)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "verification service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("locations", len(s.locations)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping verification service...")

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close queue
	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Close model handle
	if s.clsModel != nil {
		_ = s.clsModel.Close()
	}

	// Close hash store if it holds external connections
	if closer, ok := s.hashStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "verification service stopped")
}

// Enqueue submits a verification job for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, job model.Job) bool {
	success := s.jobQueue.Enqueue(ctx, job)
	if success {
		metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
	}
	return success
}

// Verify runs the full verification synchronously, bypassing the queue.
// Used by callers that need the result inline.
func (s *Service) Verify(ctx context.Context, req model.VerificationRequest) (model.VerificationResult, error) {
	return s.engine.Verify(ctx, req)
}

// Result returns the stored verification result for a job id.
func (s *Service) Result(ctx context.Context, id string) (model.VerificationResult, error) {
	return s.results.Get(ctx, id)
}

// Locations lists the known eco-locations, optionally filtered by
// challenge type.
func (s *Service) Locations(_ context.Context, challenge string) []model.EcoLocation {
	if challenge == "" {
		out := make([]model.EcoLocation, len(s.locations))
		copy(out, s.locations)
		return out
	}
	return geo.FilterByChallenge(s.locations, challenge)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"locations":   len(s.locations),
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		resultCount := s.results.Count(ctx)

		stats["queueLength"] = queueLen
		stats["resultsStored"] = resultCount

		if hashCount, err := s.hashStore.Size(ctx); err == nil {
			stats["seenHashes"] = hashCount
			metrics.UpdateHashStoreSize(hashCount)
		}

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateResultsStored(resultCount)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
