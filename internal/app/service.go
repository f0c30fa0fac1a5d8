// Package service wires the strokes-gained core to storage, baselines and
// the worker pool, and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sgengine/internal/adapters/identity"
	"github.com/okian/sgengine/internal/adapters/repository"
	"github.com/okian/sgengine/internal/adapters/worker"
	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/dedupe"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/strokesgained"
	"github.com/okian/sgengine/pkg/logger"
	"github.com/okian/sgengine/pkg/metrics"
)

// baselineSource is implemented by stores that persist baseline models.
type baselineSource interface {
	LoadBaselines(ctx context.Context) ([]baseline.ModelSpec, error)
}

// Service implements the API dependencies of the strokes-gained engine.
type Service struct {
	mu      sync.Mutex
	started atomic.Bool

	// Core components
	store     repository.Store
	baselines *baseline.MemoryStore
	calc      *strokesgained.BaselineCalculator
	ranker    *leaderboard.Ranker
	deduper   dedupe.Deduper
	teams     identity.Resolver
	pool      *worker.Pool

	// Configuration
	backend          string
	workerCount      int
	dedupeSize       int
	fetchRetries     int
	retryBackoff     time.Duration
	maxRollingWindow int
	defaultModel     string
	shortGameYards   float64
	baselineFile     string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend and the name reported in stats.
func WithStore(name string, store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.backend = name
		}
	}
}

// WithIdentity sets the resolver for team-scoped leaderboards.
func WithIdentity(r identity.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.teams = r
		}
	}
}

// WithWorkerCount bounds per-round enrichment concurrency.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets the size of the submission deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithFetchRetries sets how often a data-unavailable fetch is retried.
func WithFetchRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.fetchRetries = n
		}
	}
}

// WithRetryBackoff sets the initial wait between retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryBackoff = d
		}
	}
}

// WithMaxRollingWindow caps the rolling-average window.
func WithMaxRollingWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRollingWindow = n
		}
	}
}

// WithDefaultModel names the baseline used when a request names none.
func WithDefaultModel(name string) Option {
	return func(s *Service) {
		if name = strings.TrimSpace(name); name != "" {
			s.defaultModel = name
		}
	}
}

// WithShortGameYards sets the threshold given to models created at runtime.
func WithShortGameYards(yards float64) Option {
	return func(s *Service) {
		if yards > 0 {
			s.shortGameYards = yards
		}
	}
}

// WithBaselineFile loads extra baseline models from a YAML file at start.
func WithBaselineFile(path string) Option {
	return func(s *Service) {
		s.baselineFile = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend:          "memory",
		workerCount:      runtime.NumCPU() * 2,
		dedupeSize:       100_000,
		fetchRetries:     2,
		retryBackoff:     50 * time.Millisecond,
		maxRollingWindow: 50,
		defaultModel:     "tour",
		shortGameYards:   baseline.DefaultShortGameYards,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and hydrates baselines: bundled models
// first, then the baseline file, then models persisted in the store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting strokes-gained service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.teams == nil {
		s.teams = identity.NewStoreResolver(s.store)
	}

	bopts := []baseline.Option{
		baseline.WithDefaultParams(baseline.Params{ShortGameYards: s.shortGameYards, ProxyLie: baseline.DefaultProxyLie}),
		baseline.WithOnChange(metrics.UpdateBaselineModels),
	}
	if p, ok := s.store.(baseline.Persister); ok {
		bopts = append(bopts, baseline.WithPersister(p))
	}
	s.baselines = baseline.NewMemoryStore(bopts...)
	s.calc = strokesgained.New(s.baselines,
		strokesgained.WithResultHook(func(r strokesgained.Result) {
			metrics.RecordSGResult(string(r.Category))
		}),
		strokesgained.WithLookupHook(func(k baseline.Kind) {
			metrics.RecordBaselineLookup(string(k))
		}),
	)
	s.ranker = leaderboard.NewRanker()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.pool = worker.NewPool(s.workerCount, worker.WithLogger(s.logger.Named("pool")))

	if err := s.hydrateBaselines(ctx); err != nil {
		return err
	}

	s.started.Store(true)
	s.logger.Info(ctx, "strokes-gained service started",
		logger.String("backend", s.backend),
		logger.Int("workers", s.workerCount),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("defaultModel", s.defaultModel),
		logger.Any("models", s.baselines.Models(ctx)),
	)
	return nil
}

func (s *Service) hydrateBaselines(ctx context.Context) error {
	models, err := baseline.Default()
	if err != nil {
		return fmt.Errorf("load bundled baselines: %w", err)
	}
	if err := s.baselines.Load(ctx, models); err != nil {
		return fmt.Errorf("load bundled baselines: %w", err)
	}

	if s.baselineFile != "" {
		models, err := baseline.LoadFile(s.baselineFile)
		if err != nil {
			return err
		}
		if err := s.baselines.Load(ctx, models); err != nil {
			return fmt.Errorf("load %s: %w", s.baselineFile, err)
		}
		s.logger.Info(ctx, "baseline file loaded", logger.String("path", s.baselineFile), logger.Int("models", len(models)))
	}

	if src, ok := s.store.(baselineSource); ok {
		models, err := fetch(ctx, s, "load_baselines", src.LoadBaselines)
		if err != nil {
			return fmt.Errorf("load stored baselines: %w", err)
		}
		if err := s.baselines.Load(ctx, models); err != nil {
			return fmt.Errorf("load stored baselines: %w", err)
		}
	}
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return
	}
	s.logger.Info(context.Background(), "stopping strokes-gained service...")
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "error closing store", logger.Error(err))
	}
	s.started.Store(false)
	s.logger.Info(context.Background(), "strokes-gained service stopped")
}

func (s *Service) ready() error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) modelOrDefault(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return s.defaultModel
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	stats := map[string]any{
		"started":          s.started.Load(),
		"backend":          s.backend,
		"workerCount":      s.workerCount,
		"dedupeSize":       s.dedupeSize,
		"fetchRetries":     s.fetchRetries,
		"defaultModel":     s.defaultModel,
		"maxRollingWindow": s.maxRollingWindow,
	}
	if s.started.Load() {
		models := s.baselines.Models(context.Background())
		stats["dedupeEntries"] = s.deduper.Size()
		stats["baselineModels"] = models
		metrics.UpdateBaselineModels(len(models))
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
