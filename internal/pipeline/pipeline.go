// Package pipeline orchestrates the resolve and materialize phases over the
// event bus. Resolution stays pure; every mutation goes through the
// materialization engine; observers see each phase as bus events.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"animehub/internal/config"
	"animehub/internal/domain"
	"animehub/internal/events"
	"animehub/internal/library"
	"animehub/internal/logging"
	"animehub/internal/materialize"
	"animehub/internal/resolution"
)

// Report summarizes one full pipeline run.
type Report struct {
	Observed         int
	Resolved         int
	ResolutionFailed int

	Files    *materialize.BatchSummary
	Episodes *materialize.BatchSummary

	Duration time.Duration
}

// ResolvedFile pairs a successful resolution with the event that announced
// it, so every ledger record traces back to its source.
type ResolvedFile struct {
	Resolution *resolution.Resolution
	EventID    uuid.UUID
}

// Pipeline drives observations through resolution into materialization.
type Pipeline struct {
	bus      *events.Bus
	resolver *resolution.Resolver
	engine   *materialize.Engine
	log      *slog.Logger
}

// New wires a pipeline onto the bus. Incoming FileObserved events are
// processed end to end, so a watcher only needs to publish observations.
func New(cfg *config.Config, store *library.Store, bus *events.Bus, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		bus:      bus,
		resolver: resolution.NewResolver(store, cfg.Resolution.MatchThreshold),
		engine:   materialize.NewEngine(store, bus, logger),
		log:      logging.NewComponentLogger(logger, "pipeline"),
	}
	events.Subscribe(bus, p.onFileObserved)
	return p
}

// onFileObserved handles a single live observation (watch mode): resolve it,
// then materialize the file resolution in place.
func (p *Pipeline) onFileObserved(event events.FileObserved) error {
	resolved, err := p.resolveOne(context.Background(), observationFromEvent(event))
	if err != nil {
		return err
	}
	if resolved == nil {
		return nil
	}
	p.engine.MaterializeFile(context.Background(), resolved.Resolution, resolved.EventID)
	return nil
}

// Run drives a batch of observations through both phases and reports what
// happened. Replaying the same batch is safe; already-materialized
// resolutions surface as skips.
func (p *Pipeline) Run(ctx context.Context, observations []resolution.Observation) (*Report, error) {
	started := time.Now()
	report := &Report{
		Observed: len(observations),
		Files:    materialize.NewBatchSummary(),
		Episodes: materialize.NewBatchSummary(),
	}

	resolved, err := p.ResolveBatch(ctx, observations)
	if err != nil {
		return nil, err
	}
	report.Resolved = len(resolved)
	report.ResolutionFailed = report.Observed - report.Resolved

	var resolutions []*resolution.Resolution
	for _, rf := range resolved {
		report.Files.Add(p.engine.MaterializeFile(ctx, rf.Resolution, rf.EventID))
		resolutions = append(resolutions, rf.Resolution)
	}
	for _, group := range resolution.GroupByEpisode(resolutions) {
		event := episodeResolvedEvent(group)
		p.publish(event)
		report.Episodes.Add(p.engine.MaterializeEpisode(ctx, group, event.EventID()))
	}
	p.publish(report.Episodes.Event())

	report.Duration = time.Since(started)
	p.log.Info("pipeline run complete",
		"observed", report.Observed,
		"resolved", report.Resolved,
		"resolution_failed", report.ResolutionFailed,
		"applied", report.Files.Applied+report.Episodes.Applied,
		"skipped", report.Files.Skipped+report.Episodes.Skipped,
		"failed", report.Files.Failed+report.Episodes.Failed,
	)
	return report, nil
}

// ResolveBatch runs the pure phase only, publishing outcome events and
// returning the successful resolutions. Nothing is written.
func (p *Pipeline) ResolveBatch(ctx context.Context, observations []resolution.Observation) ([]ResolvedFile, error) {
	started := time.Now()
	var resolved []ResolvedFile

	for _, obs := range observations {
		rf, err := p.resolveOne(ctx, obs)
		if err != nil {
			return nil, err
		}
		if rf != nil {
			resolved = append(resolved, *rf)
		}
	}

	p.publish(events.ResolutionBatchCompleted{
		Meta:     events.NewMeta(),
		Total:    len(observations),
		Resolved: len(resolved),
		Failed:   len(observations) - len(resolved),
		Duration: time.Since(started),
	})
	return resolved, nil
}

// resolveOne resolves a single observation and publishes the outcome as a
// fact. Parse failures yield (nil, nil); only catalog errors propagate.
func (p *Pipeline) resolveOne(ctx context.Context, obs resolution.Observation) (*ResolvedFile, error) {
	outcome, err := p.resolver.Resolve(ctx, obs)
	if err != nil {
		return nil, err
	}
	if outcome.Failure != nil {
		p.log.Warn("resolution failed",
			logging.FieldFileID, outcome.Failure.FileID.String(),
			"path", outcome.Failure.Path,
			"reason", outcome.Failure.Reason,
		)
		p.publish(events.ResolutionFailed{
			Meta:   events.NewMeta(),
			FileID: outcome.Failure.FileID,
			Path:   outcome.Failure.Path,
			Reason: outcome.Failure.Reason,
			Detail: outcome.Failure.Detail,
		})
		return nil, nil
	}

	res := outcome.Resolution
	event := events.FileResolved{
		Meta:             events.NewMeta(),
		FileID:           res.FileID,
		Path:             res.Path,
		AnimeTitle:       res.AnimeTitle,
		MatchedAnimeID:   res.MatchedAnimeID,
		EpisodeNumber:    res.EpisodeNumber.Label(),
		MatchedEpisodeID: res.MatchedEpisodeID,
		FileRole:         string(res.Role),
		Confidence:       res.Confidence,
		Source:           string(res.Source),
	}
	p.publish(event)
	return &ResolvedFile{Resolution: res, EventID: event.EventID()}, nil
}

func (p *Pipeline) publish(event events.Event) {
	result := p.bus.Publish(event)
	for _, handlerErr := range result.Errors {
		p.log.Warn("event handler failed",
			logging.FieldEventType, result.Type,
			logging.FieldEventID, result.EventID.String(),
			"handler", handlerErr.Index,
			"error", handlerErr.Err.Error(),
		)
	}
}

func observationFromEvent(event events.FileObserved) resolution.Observation {
	return resolution.Observation{
		FileID:     event.FileID,
		Path:       event.Path,
		Role:       domain.FileRole(event.Role),
		Size:       event.Size,
		ModifiedAt: event.ModifiedAt,
	}
}

func episodeResolvedEvent(group *resolution.EpisodeGroup) events.EpisodeResolved {
	return events.EpisodeResolved{
		Meta:             events.NewMeta(),
		AnimeTitle:       group.AnimeTitle,
		MatchedAnimeID:   group.MatchedAnimeID,
		EpisodeNumber:    group.EpisodeNumber.Label(),
		MatchedEpisodeID: group.MatchedEpisodeID,
		VideoFileID:      group.VideoFileID,
		SubtitleFileIDs:  group.SubtitleFileIDs,
		Confidence:       group.Confidence,
	}
}
