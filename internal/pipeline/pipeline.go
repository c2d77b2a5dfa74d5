// Package pipeline orchestrates the nowcast analysis cycle: load inputs,
// detect and track storm objects, estimate motion, score boundaries,
// assess impacts, persist the new track state, and publish the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/storm-nowcast-service/internal/config"
	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
	"github.com/couchcryptid/storm-nowcast-service/internal/observability"
)

// GridSource supplies the latest composite grid.
type GridSource interface {
	LatestComposite(ctx context.Context) (domain.GridField, error)
}

// StationSource supplies the latest surface observation snapshot.
type StationSource interface {
	LatestObservations(ctx context.Context) ([]domain.StationObservation, error)
}

// TargetSource supplies the impact target list.
type TargetSource interface {
	Targets(ctx context.Context) ([]domain.Target, error)
}

// TrackStore persists track state between cycles. Load reports found=false
// when no previous state exists.
type TrackStore interface {
	LoadTracks(ctx context.Context) (state domain.TrackState, found bool, err error)
	StoreTracks(ctx context.Context, state domain.TrackState) error
}

// Publisher pushes a completed nowcast to downstream consumers.
type Publisher interface {
	PublishNowcast(ctx context.Context, nowcast domain.Nowcast) error
}

// Pipeline runs the detect-track-forecast cycle.
type Pipeline struct {
	grids     GridSource
	stations  StationSource
	targets   TargetSource
	tracks    TrackStore
	publisher Publisher // nil when no sink is configured
	logger    *slog.Logger
	metrics   *observability.Metrics
	cfg       *config.Config

	ready atomic.Bool

	// mu single-flights cycles: the persisted track state is read at the
	// start and written at the end, so two overlapping cycles would race.
	mu sync.Mutex

	latestMu sync.RWMutex
	latest   *domain.Nowcast
}

// New creates a Pipeline with the given collaborators. publisher may be
// nil to disable downstream publishing.
func New(grids GridSource, stations StationSource, targets TargetSource, tracks TrackStore,
	publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, cfg *config.Config) *Pipeline {
	return &Pipeline{
		grids:     grids,
		stations:  stations,
		targets:   targets,
		tracks:    tracks,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// CheckReadiness returns nil once at least one analysis cycle has
// completed, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no analysis cycle has completed yet")
	}
	return nil
}

// LatestNowcast returns the most recent completed cycle, or false if none
// has completed yet.
func (p *Pipeline) LatestNowcast() (domain.Nowcast, bool) {
	p.latestMu.RLock()
	defer p.latestMu.RUnlock()
	if p.latest == nil {
		return domain.Nowcast{}, false
	}
	return *p.latest, true
}

// RunCycle executes one full analysis cycle. If a cycle is already in
// flight the call is skipped: overlapping cycles would race on the
// persisted track state.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	if !p.mu.TryLock() {
		p.logger.Warn("previous cycle still running, skipping")
		return nil
	}
	defer p.mu.Unlock()

	p.metrics.CyclesTotal.Inc()
	start := time.Now()

	nowcast, err := p.analyze(ctx)
	if err != nil {
		p.metrics.CycleErrors.Inc()
		return err
	}

	p.latestMu.Lock()
	p.latest = &nowcast
	p.latestMu.Unlock()

	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastCycleUnix.Set(float64(nowcast.UpdatedAt.Unix()))
	p.ready.Store(true)

	p.logger.Info("cycle complete",
		"objects", len(nowcast.Objects),
		"dissipated", len(nowcast.DissipatedIDs),
		"boundary_candidates", len(nowcast.BoundaryCandidates),
		"impact_hits", len(nowcast.ImpactHits),
		"duration", time.Since(start),
	)

	if p.publisher != nil {
		if err := p.publisher.PublishNowcast(ctx, nowcast); err != nil {
			// The cycle itself succeeded and its state is persisted; a
			// publish failure only delays downstream consumers.
			p.logger.Error("publish failed", "error", err)
		}
	}
	return nil
}

// analyze performs the detect-track-forecast pass and persists the new
// track state.
func (p *Pipeline) analyze(ctx context.Context) (domain.Nowcast, error) {
	grid, err := p.grids.LatestComposite(ctx)
	if err != nil {
		return domain.Nowcast{}, fmt.Errorf("loading composite grid: %w", err)
	}

	previous, hadPrevious, err := p.tracks.LoadTracks(ctx)
	if err != nil {
		return domain.Nowcast{}, fmt.Errorf("loading track state: %w", err)
	}

	now := domain.Now()

	raw := domain.DetectObjects(grid, p.cfg.CompositeThreshold, p.cfg.MinPixels)
	objects, dissipated := domain.TrackObjects(raw, previous.Objects, p.cfg.MaxMatchKm)
	if hadPrevious {
		objects = domain.EstimateMotion(objects, previous, now)
	}

	p.metrics.ObjectsPerCycle.Observe(float64(len(objects)))
	p.metrics.ObjectsDetected.Add(float64(len(objects)))
	p.metrics.TracksDropped.Add(float64(len(dissipated)))
	matched := 0
	for _, obj := range objects {
		if obj.Motion != nil {
			matched++
		}
	}
	p.metrics.ObjectsMatched.Add(float64(matched))
	p.metrics.ObjectsNew.Add(float64(len(objects) - matched))

	nowcast := domain.Nowcast{
		UpdatedAt:     now,
		Threshold:     p.cfg.CompositeThreshold,
		MinPixels:     p.cfg.MinPixels,
		Objects:       objects,
		DissipatedIDs: dissipated,
	}

	// Boundary detection degrades gracefully: a broken station feed
	// costs the boundary products, not the whole cycle.
	if err := p.addBoundaries(ctx, &nowcast); err != nil {
		p.logger.Warn("boundary detection skipped", "error", err)
	}

	if err := p.addImpacts(ctx, &nowcast); err != nil {
		p.logger.Warn("impact assessment skipped", "error", err)
	}

	if err := p.tracks.StoreTracks(ctx, nowcast.TrackState()); err != nil {
		return domain.Nowcast{}, fmt.Errorf("persisting track state: %w", err)
	}
	return nowcast, nil
}

func (p *Pipeline) addBoundaries(ctx context.Context, nowcast *domain.Nowcast) error {
	stations, err := p.stations.LatestObservations(ctx)
	if err != nil {
		return err
	}
	if len(stations) == 0 {
		return nil
	}

	candidates, scored, err := domain.DetectBoundaries(stations, domain.DefaultTopCandidates, domain.DefaultNeighbors)
	if err != nil {
		return err
	}
	grid := domain.BoundaryGrid(scored, p.cfg.BBox, p.cfg.BoundaryResDeg, domain.DefaultBoundaryRadiusDeg)

	nowcast.BoundaryCandidates = candidates
	nowcast.BoundaryGrid = &grid
	p.metrics.BoundaryCandidates.Add(float64(len(candidates)))
	return nil
}

func (p *Pipeline) addImpacts(ctx context.Context, nowcast *domain.Nowcast) error {
	targets, err := p.targets.Targets(ctx)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	hits := domain.ImpactHits(nowcast.Objects, targets, p.cfg.ImpactRadiusKm, p.cfg.ImpactHorizon)
	nowcast.ImpactHits = hits
	p.metrics.ImpactHitsTotal.Add(float64(len(hits)))
	return nil
}

// Run executes cycles at the configured refresh interval until the
// context is cancelled. The first cycle runs immediately. Failed cycles
// log and wait for the next tick; the inputs are refreshed externally so
// tight retries would just reread the same broken files.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "refresh_interval", p.cfg.RefreshInterval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if err := p.RunCycle(ctx); err != nil {
		p.logger.Error("cycle failed", "error", err)
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(fmt.Sprintf("@every %s", p.cfg.RefreshInterval), func() {
		if err := p.RunCycle(ctx); err != nil {
			p.logger.Error("cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling cycles: %w", err)
	}
	scheduler.Start()

	<-ctx.Done()
	p.logger.Info("pipeline stopping", "reason", ctx.Err())

	// Stop returns a context that completes when in-flight jobs finish.
	<-scheduler.Stop().Done()
	return nil
}
