// Package stats maintains derived library statistics. The reactor sits at
// the downstream end of the bus: it consumes materialization facts, rebuilds
// the counts, and announces the fresh snapshot. Statistics never feed back
// into the pipeline.
package stats

import (
	"context"
	"log/slog"

	"animehub/internal/events"
	"animehub/internal/library"
	"animehub/internal/logging"
)

// Reactor recomputes statistics when the library changes.
type Reactor struct {
	store *library.Store
	bus   *events.Bus
	log   *slog.Logger
}

// NewReactor wires the reactor onto the bus. Batch completions trigger one
// rebuild per run; individual link events cover watch mode, where no batch
// summary follows.
func NewReactor(store *library.Store, bus *events.Bus, logger *slog.Logger) *Reactor {
	r := &Reactor{
		store: store,
		bus:   bus,
		log:   logging.NewComponentLogger(logger, "stats"),
	}
	events.Subscribe(bus, func(events.MaterializationBatchCompleted) error {
		return r.Refresh(context.Background())
	})
	events.Subscribe(bus, func(events.FileLinkedToEpisode) error {
		return r.Refresh(context.Background())
	})
	return r
}

// Refresh rebuilds the snapshot from the library, persists it, and
// announces it.
func (r *Reactor) Refresh(ctx context.Context) error {
	snapshot, err := r.store.ComputeStats(ctx)
	if err != nil {
		return err
	}
	if err := r.store.SaveStats(ctx, snapshot); err != nil {
		return err
	}

	r.bus.Publish(events.StatisticsUpdated{
		Meta:         events.NewMeta(),
		AnimeCount:   snapshot.AnimeCount,
		EpisodeCount: snapshot.EpisodeCount,
		FileCount:    snapshot.FileCount,
		WatchedCount: snapshot.WatchedCount,
	})
	r.log.Debug("statistics refreshed",
		"anime", snapshot.AnimeCount,
		"episodes", snapshot.EpisodeCount,
		"files", snapshot.FileCount,
		"watched", snapshot.WatchedCount,
	)
	return nil
}
