// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/offsuit/analyzer/internal/adapters/repository"
	"github.com/offsuit/analyzer/internal/adapters/scoreboard"
	"github.com/offsuit/analyzer/internal/config"
	"github.com/offsuit/analyzer/internal/domain/identity"
	"github.com/offsuit/analyzer/internal/domain/leaderboard"
	"github.com/offsuit/analyzer/internal/domain/model"
	"github.com/offsuit/analyzer/internal/domain/names"
	"github.com/offsuit/analyzer/internal/domain/skill"
	"github.com/offsuit/analyzer/pkg/logger"
	"github.com/offsuit/analyzer/pkg/metrics"
)

// skillCacheKey caches rating replays alongside the leaderboard kinds.
const skillCacheKey = "skill"

// Service wires the engines, stores, and collaborators together and
// implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	boards   *scoreboard.Client
	builder  *leaderboard.Builder
	engine   *skill.Engine
	resolver *identity.Resolver
	notifier identity.Notifier
	cache    *Cache

	// Configuration
	cfg *config.Config

	// Background jobs
	scheduler gocron.Scheduler

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to the in-memory store when
// no Postgres DSN is configured.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithBoardClient sets the scoreboard client.
func WithBoardClient(c *scoreboard.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.boards = c
		}
	}
}

// WithNotifier sets the clash notification sink.
func WithNotifier(n identity.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service from configuration. Engines get their
// thresholds here; they carry no defaults of their own.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:   cfg,
		cache: NewCache(),
		builder: leaderboard.New(
			leaderboard.WithMinRounds(cfg.MinRoundsRequired),
			leaderboard.WithITMPercent(cfg.ITMPercent),
			leaderboard.WithPayout(cfg.ROIPayoutPercent, cfg.ROISteepness),
		),
		engine: skill.New(
			skill.WithPrior(cfg.Skill.Mu, cfg.Skill.Sigma),
			skill.WithBeta(cfg.Skill.Beta),
			skill.WithTau(cfg.Skill.Tau),
			skill.WithDrawProbability(cfg.Skill.DrawProbability),
		),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes remaining components and launches the background jobs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.logger.Info(ctx, "starting analyzer service...")

	if s.store == nil {
		if s.cfg.PostgresDSN != "" {
			store, err := repository.NewPostgresStore(ctx, s.cfg.PostgresDSN)
			if err != nil {
				return err
			}
			s.store = store
			s.logger.Info(ctx, "using postgres store")
		} else {
			s.store = repository.NewMemoryStore()
			s.logger.Info(ctx, "using in-memory store")
		}
	}
	if s.boards == nil {
		s.boards = scoreboard.New()
	}
	// A nil notifier is fine; the resolver treats it as "nobody to tell".
	s.resolver = identity.New(s.store.NameClashes(),
		identity.WithSimilarityThreshold(s.cfg.NameSimilarityThreshold),
		identity.WithNotifier(s.notifier),
		identity.WithLogger(s.logger.Named("identity")),
	)

	if err := s.startScheduler(ctx); err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "analyzer service started",
		logger.Int("bars", len(s.cfg.Bars)),
		logger.Int("minRounds", s.cfg.MinRoundsRequired),
	)
	return nil
}

func (s *Service) startScheduler(ctx context.Context) error {
	refreshEvery := time.Duration(s.cfg.RefreshIntervalMinutes) * time.Minute
	resolveEvery := time.Duration(s.cfg.ResolverIntervalMinutes) * time.Minute
	if refreshEvery <= 0 && resolveEvery <= 0 {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	if refreshEvery > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(refreshEvery),
			gocron.NewTask(func() {
				jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				if err := s.Refresh(jobCtx); err != nil {
					s.logger.Error(jobCtx, "scheduled refresh failed", logger.Error(err))
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("refresh job: %w", err)
		}
	}

	if resolveEvery > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(resolveEvery),
			gocron.NewTask(func() {
				jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				if _, err := s.ResolveNames(jobCtx); err != nil {
					s.logger.Error(jobCtx, "scheduled name resolution failed", logger.Error(err))
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("resolver job: %w", err)
		}
	}

	sched.Start()
	s.scheduler = sched
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping analyzer service...")

	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.Warn(context.Background(), "scheduler shutdown", logger.Error(err))
		}
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "analyzer service stopped")
}

// Refresh pulls every configured bar's board, reconciles rounds into the
// store, regenerates data warnings, and invalidates derived results.
// Partial board failures do not abort the refresh; whatever fetched gets
// stored.
func (s *Service) Refresh(ctx context.Context) error {
	rounds, fetchErr := s.boards.FetchRounds(ctx, s.cfg.Bars)
	if fetchErr != nil {
		metrics.RecordRefreshError()
		s.logger.Warn(ctx, "some boards failed to fetch", logger.Error(fetchErr))
	}

	if len(rounds) > 0 {
		if err := s.store.Rounds().Upsert(ctx, rounds); err != nil {
			metrics.RecordRefreshError()
			return fmt.Errorf("store rounds: %w", err)
		}
		metrics.RecordRoundsRefreshed(len(rounds))
	}

	if err := s.refreshWarnings(ctx); err != nil {
		return err
	}

	s.cache.InvalidateAll()
	s.updateGauges(ctx)

	s.logger.Info(ctx, "refresh complete", logger.Int("roundsFetched", len(rounds)))
	return nil
}

// refreshWarnings regenerates the stored data quality warnings from the
// full round history.
func (s *Service) refreshWarnings(ctx context.Context) error {
	all, err := s.store.Rounds().FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch rounds: %w", err)
	}
	warnings := names.DetectClashes(all, s.cfg.NameSimilarityThreshold)
	if err := s.store.Warnings().ReplaceAll(ctx, warnings); err != nil {
		return fmt.Errorf("store warnings: %w", err)
	}
	return nil
}

// Leaderboard returns the table for the given kind, cached until the next
// refresh.
func (s *Service) Leaderboard(ctx context.Context, kind leaderboard.Kind) (leaderboard.Table, error) {
	v, err := s.cache.Get(string(kind), func() (any, error) {
		return s.buildLeaderboard(ctx, kind)
	})
	if err != nil {
		return leaderboard.Table{}, err
	}
	return v.(leaderboard.Table), nil
}

func (s *Service) buildLeaderboard(ctx context.Context, kind leaderboard.Kind) (leaderboard.Table, error) {
	rounds, err := s.store.Rounds().FetchAll(ctx)
	if err != nil {
		metrics.RecordLeaderboardError(string(kind))
		return leaderboard.Table{}, fmt.Errorf("fetch rounds: %w", err)
	}

	start := time.Now()
	var table leaderboard.Table
	switch kind {
	case leaderboard.KindPercentile:
		table = s.builder.Percentile(rounds)
	case leaderboard.KindFirstPlace:
		table = s.builder.FirstPlace(rounds)
	case leaderboard.KindTopThree:
		table = s.builder.TopThree(rounds)
	case leaderboard.KindITM:
		table = s.builder.ITM(rounds)
	case leaderboard.KindOutlasted:
		table = s.builder.PlayersOutlasted(rounds)
	case leaderboard.KindROI:
		table = s.builder.ROI(rounds)
	default:
		metrics.RecordLeaderboardError(string(kind))
		return leaderboard.Table{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	metrics.RecordLeaderboardBuild(string(kind), time.Since(start).Seconds())
	return table, nil
}

// SkillRatings replays the full history through the rating engine, cached
// until the next refresh.
func (s *Service) SkillRatings(ctx context.Context) ([]skill.PlayerRating, error) {
	v, err := s.cache.Get(skillCacheKey, func() (any, error) {
		rounds, err := s.store.Rounds().FetchAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch rounds: %w", err)
		}
		start := time.Now()
		ratings := s.engine.Evaluate(rounds)
		metrics.RecordLeaderboardBuild(skillCacheKey, time.Since(start).Seconds())
		return ratings, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]skill.PlayerRating), nil
}

// WarmCache precomputes every leaderboard kind plus the skill replay.
func (s *Service) WarmCache(ctx context.Context) {
	kinds := []string{
		string(leaderboard.KindPercentile),
		string(leaderboard.KindFirstPlace),
		string(leaderboard.KindTopThree),
		string(leaderboard.KindITM),
		string(leaderboard.KindOutlasted),
		string(leaderboard.KindROI),
	}
	s.cache.Warm(kinds, func(key string) (any, error) {
		return s.buildLeaderboard(ctx, leaderboard.Kind(key))
	})
	s.cache.Warm([]string{skillCacheKey}, func(string) (any, error) {
		rounds, err := s.store.Rounds().FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		return s.engine.Evaluate(rounds), nil
	})
}

// Warnings returns the stored data quality warnings.
func (s *Service) Warnings(ctx context.Context) ([]string, error) {
	return s.store.Warnings().FetchAll(ctx)
}

// ScanNames re-runs clash detection on demand and returns the fresh
// warnings after persisting them.
func (s *Service) ScanNames(ctx context.Context) ([]string, error) {
	if err := s.refreshWarnings(ctx); err != nil {
		return nil, err
	}
	return s.store.Warnings().FetchAll(ctx)
}

// NameClashes returns the outstanding clash records.
func (s *Service) NameClashes(ctx context.Context) ([]model.NameClash, error) {
	return s.store.NameClashes().FetchAll(ctx)
}

// ResolveNames runs one adaptive identity pass: retract records fixed at
// the source, detect new clashes, notify the league admins.
func (s *Service) ResolveNames(ctx context.Context) (identity.Result, error) {
	rounds, err := s.store.Rounds().FetchAll(ctx)
	if err != nil {
		return identity.Result{}, fmt.Errorf("fetch rounds: %w", err)
	}

	res, err := s.resolver.Run(ctx, rounds)
	if err != nil {
		return identity.Result{}, err
	}

	metrics.RecordClashesDetected(len(res.Detected))
	metrics.RecordClashesRetracted(len(res.Retracted))
	if active, err := s.store.NameClashes().FetchAll(ctx); err == nil {
		metrics.UpdateClashesActive(len(active))
	}
	return res, nil
}

// AddRound stores a manually entered round. An empty round id gets a
// generated one; player names are normalized the same way board ingestion
// does it.
func (s *Service) AddRound(ctx context.Context, round model.Round) (model.Round, error) {
	if round.RoundID == "" {
		round.RoundID = uuid.NewString()
	}
	if round.BarName == "" {
		return model.Round{}, fmt.Errorf("%w: bar name required", ErrInvalidRound)
	}

	players := make([]model.PlayerScore, 0, len(round.Players))
	for _, p := range round.Players {
		if p.Points <= 0 {
			continue
		}
		players = append(players, model.PlayerScore{
			Name:   names.Normalize(p.Name),
			Points: p.Points,
		})
	}
	if len(players) == 0 {
		return model.Round{}, fmt.Errorf("%w: no players with positive points", ErrInvalidRound)
	}
	round.Players = players

	if err := s.store.Rounds().Upsert(ctx, []model.Round{round}); err != nil {
		return model.Round{}, fmt.Errorf("store round: %w", err)
	}

	s.cache.InvalidateAll()
	s.updateGauges(ctx)
	return round, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   started,
		"bars":      len(s.cfg.Bars),
		"minRounds": s.cfg.MinRoundsRequired,
	}

	rounds, err := s.store.Rounds().FetchAll(ctx)
	if err != nil {
		return stats
	}
	stats["totalRounds"] = len(rounds)
	stats["totalPlayers"] = countPlayers(rounds)

	if warnings, err := s.store.Warnings().FetchAll(ctx); err == nil {
		stats["warnings"] = len(warnings)
	}
	if clashes, err := s.store.NameClashes().FetchAll(ctx); err == nil {
		stats["activeNameClashes"] = len(clashes)
	}
	return stats
}

func (s *Service) updateGauges(ctx context.Context) {
	rounds, err := s.store.Rounds().FetchAll(ctx)
	if err != nil {
		return
	}
	metrics.UpdateRoundsStored(len(rounds))
	metrics.UpdatePlayersTracked(countPlayers(rounds))
}

func countPlayers(rounds []model.Round) int {
	seen := make(map[string]struct{})
	for _, r := range rounds {
		for _, p := range r.Players {
			seen[p.Name] = struct{}{}
		}
	}
	return len(seen)
}
