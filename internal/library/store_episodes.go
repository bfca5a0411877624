package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"animehub/internal/domain"
)

const episodeColumns = "id, anime_id, number, special_label, title, expected_duration_ms, progress_ms, state, created_at, updated_at"

// CreateEpisode validates and inserts a new episode. The parent anime must
// exist; the foreign key rejects orphans.
func (s *Store) CreateEpisode(ctx context.Context, episode *domain.Episode) error {
	return insertEpisode(ensureContext(ctx), s.db, episode)
}

func insertEpisode(ctx context.Context, q querier, episode *domain.Episode) error {
	if episode == nil {
		return errors.New("episode is nil")
	}
	if err := episode.Validate(); err != nil {
		return err
	}

	_, err := q.ExecContext(
		ctx,
		`INSERT INTO episodes (`+episodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.ID.String(),
		episode.AnimeID.String(),
		episode.Number.Number,
		episode.Number.Special,
		episode.Title,
		episode.ExpectedDuration.Milliseconds(),
		episode.Progress.Milliseconds(),
		string(episode.State),
		formatTime(episode.CreatedAt),
		formatTime(episode.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// GetEpisode fetches an episode by id. Missing rows yield (nil, nil).
func (s *Store) GetEpisode(ctx context.Context, id uuid.UUID) (*domain.Episode, error) {
	return getEpisode(ensureContext(ctx), s.db, id)
}

func getEpisode(ctx context.Context, q querier, id uuid.UUID) (*domain.Episode, error) {
	row := q.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id.String())
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// EpisodesForAnime returns an anime's episodes in deterministic order:
// regular numbers first, then specials by label.
func (s *Store) EpisodesForAnime(ctx context.Context, animeID uuid.UUID) ([]*domain.Episode, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE anime_id = ?
         ORDER BY special_label != '', number, special_label, id`,
		animeID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*domain.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// FindEpisode locates an anime's episode by its number. Missing rows yield
// (nil, nil).
func (s *Store) FindEpisode(ctx context.Context, animeID uuid.UUID, number domain.EpisodeNumber) (*domain.Episode, error) {
	return findEpisode(ensureContext(ctx), s.db, animeID, number)
}

func findEpisode(ctx context.Context, q querier, animeID uuid.UUID, number domain.EpisodeNumber) (*domain.Episode, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE anime_id = ? AND number = ? AND special_label = ?`,
		animeID.String(),
		number.Number,
		number.Special,
	)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find episode: %w", err)
	}
	return episode, nil
}

// UpdateEpisode persists changes to an existing episode. The parent anime
// reference never changes through this path.
func (s *Store) UpdateEpisode(ctx context.Context, episode *domain.Episode) error {
	if episode == nil {
		return errors.New("episode is nil")
	}
	if err := episode.Validate(); err != nil {
		return err
	}
	episode.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes
         SET title = ?, expected_duration_ms = ?, progress_ms = ?, state = ?, updated_at = ?
         WHERE id = ?`,
		episode.Title,
		episode.ExpectedDuration.Milliseconds(),
		episode.Progress.Milliseconds(),
		string(episode.State),
		formatTime(episode.UpdatedAt),
		episode.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update episode %s: %w", episode.ID, ErrNotFound)
	}
	return nil
}

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*domain.Episode, error) {
	var (
		idRaw      string
		animeRaw   string
		number     int
		special    string
		title      string
		durationMS int64
		progressMS int64
		state      string
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&idRaw,
		&animeRaw,
		&number,
		&special,
		&title,
		&durationMS,
		&progressMS,
		&state,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	episode := &domain.Episode{
		ID:               parseID(idRaw),
		AnimeID:          parseID(animeRaw),
		Number:           domain.EpisodeNumber{Number: number, Special: special},
		Title:            title,
		ExpectedDuration: time.Duration(durationMS) * time.Millisecond,
		Progress:         time.Duration(progressMS) * time.Millisecond,
		State:            domain.EpisodeState(state),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		episode.UpdatedAt = updated
	}
	return episode, nil
}
