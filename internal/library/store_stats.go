package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"animehub/internal/domain"
)

// ComputeStats derives current library statistics from the entity tables.
// Statistics are derived data only; nothing in the pipeline reads them back.
func (s *Store) ComputeStats(ctx context.Context) (StatsSnapshot, error) {
	ctx = ensureContext(ctx)
	snapshot := StatsSnapshot{ComputedAt: time.Now().UTC()}

	countQueries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM anime`, &snapshot.AnimeCount},
		{`SELECT COUNT(1) FROM episodes`, &snapshot.EpisodeCount},
		{`SELECT COUNT(1) FROM files`, &snapshot.FileCount},
	}
	for _, cq := range countQueries {
		if err := s.db.QueryRowContext(ctx, cq.query).Scan(cq.dest); err != nil {
			return StatsSnapshot{}, fmt.Errorf("compute stats: %w", err)
		}
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM episodes WHERE state = ?`, string(domain.EpisodeStateCompleted),
	).Scan(&snapshot.WatchedCount)
	if err != nil {
		return StatsSnapshot{}, fmt.Errorf("compute stats: %w", err)
	}

	return snapshot, nil
}

// SaveStats appends a statistics snapshot.
func (s *Store) SaveStats(ctx context.Context, snapshot StatsSnapshot) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO library_stats (anime_count, episode_count, file_count, watched_count, computed_at)
         VALUES (?, ?, ?, ?, ?)`,
		snapshot.AnimeCount,
		snapshot.EpisodeCount,
		snapshot.FileCount,
		snapshot.WatchedCount,
		formatTime(snapshot.ComputedAt),
	)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// LatestStats fetches the newest statistics snapshot. Missing rows yield
// (nil, nil).
func (s *Store) LatestStats(ctx context.Context) (*StatsSnapshot, error) {
	ctx = ensureContext(ctx)
	var (
		snapshot    StatsSnapshot
		computedRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT anime_count, episode_count, file_count, watched_count, computed_at
         FROM library_stats ORDER BY id DESC LIMIT 1`,
	).Scan(&snapshot.AnimeCount, &snapshot.EpisodeCount, &snapshot.FileCount, &snapshot.WatchedCount, &computedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest stats: %w", err)
	}
	if computed, err := parseTimeString(computedRaw); err == nil {
		snapshot.ComputedAt = computed
	}
	return &snapshot, nil
}
