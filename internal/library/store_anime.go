package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"animehub/internal/domain"
)

const animeColumns = "id, title, alternative_titles, kind, status, total_episodes, started_at, ended_at, created_at, updated_at"

// maxAliasDepth bounds alias chain traversal; anything deeper indicates a
// corrupted alias table.
const maxAliasDepth = 32

// CreateAnime validates and inserts a new anime.
func (s *Store) CreateAnime(ctx context.Context, anime *domain.Anime) error {
	return insertAnime(ensureContext(ctx), s.db, anime)
}

func insertAnime(ctx context.Context, q querier, anime *domain.Anime) error {
	if anime == nil {
		return errors.New("anime is nil")
	}
	if err := anime.Validate(); err != nil {
		return err
	}

	altJSON, err := json.Marshal(anime.AlternativeTitles)
	if err != nil {
		return fmt.Errorf("marshal alternative titles: %w", err)
	}

	_, err = q.ExecContext(
		ctx,
		`INSERT INTO anime (`+animeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		anime.ID.String(),
		anime.Title,
		string(altJSON),
		string(anime.Kind),
		string(anime.Status),
		anime.TotalEpisodes,
		nullableTime(anime.StartedAt),
		nullableTime(anime.EndedAt),
		formatTime(anime.CreatedAt),
		formatTime(anime.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert anime: %w", err)
	}
	return nil
}

// GetAnime fetches an anime by id. Missing rows yield (nil, nil).
func (s *Store) GetAnime(ctx context.Context, id uuid.UUID) (*domain.Anime, error) {
	return getAnime(ensureContext(ctx), s.db, id)
}

func getAnime(ctx context.Context, q querier, id uuid.UUID) (*domain.Anime, error) {
	row := q.QueryRowContext(ctx, `SELECT `+animeColumns+` FROM anime WHERE id = ?`, id.String())
	anime, err := scanAnime(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get anime: %w", err)
	}
	return anime, nil
}

// ListAnime returns all anime ordered deterministically by creation time and
// then id.
func (s *Store) ListAnime(ctx context.Context) ([]*domain.Anime, error) {
	return listAnime(ensureContext(ctx), s.db)
}

func listAnime(ctx context.Context, q querier) ([]*domain.Anime, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+animeColumns+` FROM anime ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list anime: %w", err)
	}
	defer rows.Close()

	var result []*domain.Anime
	for rows.Next() {
		anime, err := scanAnime(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, anime)
	}
	return result, rows.Err()
}

// UpdateAnime persists changes to an existing anime.
func (s *Store) UpdateAnime(ctx context.Context, anime *domain.Anime) error {
	if anime == nil {
		return errors.New("anime is nil")
	}
	if err := anime.Validate(); err != nil {
		return err
	}
	anime.UpdatedAt = time.Now().UTC()

	altJSON, err := json.Marshal(anime.AlternativeTitles)
	if err != nil {
		return fmt.Errorf("marshal alternative titles: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE anime
         SET title = ?, alternative_titles = ?, kind = ?, status = ?,
             total_episodes = ?, started_at = ?, ended_at = ?, updated_at = ?
         WHERE id = ?`,
		anime.Title,
		string(altJSON),
		string(anime.Kind),
		string(anime.Status),
		anime.TotalEpisodes,
		nullableTime(anime.StartedAt),
		nullableTime(anime.EndedAt),
		formatTime(anime.UpdatedAt),
		anime.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update anime: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update anime %s: %w", anime.ID, ErrNotFound)
	}
	return nil
}

// DeleteAnime removes an anime. Episodes cascade; ledger references are
// nulled, not deleted.
func (s *Store) DeleteAnime(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM anime WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete anime: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MergeAnime records that aliasID has been absorbed into principalID. Both
// rows survive; the alias row preserves history and lookups against the
// alias follow the chain to the principal.
func (s *Store) MergeAnime(ctx context.Context, principalID, aliasID uuid.UUID) (*domain.AnimeAlias, error) {
	ctx = ensureContext(ctx)

	principal, err := s.GetAnime(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, fmt.Errorf("principal anime %s: %w", principalID, ErrNotFound)
	}
	aliased, err := s.GetAnime(ctx, aliasID)
	if err != nil {
		return nil, err
	}
	if aliased == nil {
		return nil, fmt.Errorf("alias anime %s: %w", aliasID, ErrNotFound)
	}

	alias, err := domain.NewAnimeAlias(principalID, aliasID)
	if err != nil {
		return nil, err
	}

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO anime_aliases (id, principal_id, alias_id, created_at) VALUES (?, ?, ?, ?)`,
		alias.ID.String(),
		alias.PrincipalID.String(),
		alias.AliasID.String(),
		formatTime(alias.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("anime %s is already merged", aliasID)
		}
		return nil, fmt.Errorf("insert alias: %w", err)
	}
	return alias, nil
}

// ResolveAliasChain follows merge records from id to the current principal.
// An anime that was never merged resolves to itself.
func (s *Store) ResolveAliasChain(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return resolveAliasChain(ensureContext(ctx), s.db, id)
}

func resolveAliasChain(ctx context.Context, q querier, id uuid.UUID) (uuid.UUID, error) {
	current := id
	for depth := 0; depth < maxAliasDepth; depth++ {
		var principal string
		err := q.QueryRowContext(ctx,
			`SELECT principal_id FROM anime_aliases WHERE alias_id = ?`, current.String(),
		).Scan(&principal)
		if errors.Is(err, sql.ErrNoRows) {
			return current, nil
		}
		if err != nil {
			return uuid.Nil, fmt.Errorf("resolve alias: %w", err)
		}
		current = parseID(principal)
	}
	return uuid.Nil, fmt.Errorf("alias chain from %s exceeds depth %d", id, maxAliasDepth)
}

// AliasesFor returns the merge records pointing at principalID.
func (s *Store) AliasesFor(ctx context.Context, principalID uuid.UUID) ([]*domain.AnimeAlias, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, principal_id, alias_id, created_at FROM anime_aliases WHERE principal_id = ? ORDER BY created_at`,
		principalID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*domain.AnimeAlias
	for rows.Next() {
		var (
			idRaw, principalRaw, aliasRaw, createdRaw string
		)
		if err := rows.Scan(&idRaw, &principalRaw, &aliasRaw, &createdRaw); err != nil {
			return nil, err
		}
		alias := &domain.AnimeAlias{
			ID:          parseID(idRaw),
			PrincipalID: parseID(principalRaw),
			AliasID:     parseID(aliasRaw),
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			alias.CreatedAt = created
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}

// AddExternalReference attaches an external catalog reference to an anime.
func (s *Store) AddExternalReference(ctx context.Context, ref *domain.ExternalReference) error {
	if ref == nil {
		return errors.New("reference is nil")
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO external_references (id, anime_id, source, external_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		ref.ID.String(),
		ref.AnimeID.String(),
		ref.Source,
		ref.ExternalID,
		formatTime(ref.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("anime %s already references %s", ref.AnimeID, ref.Source)
		}
		return fmt.Errorf("insert external reference: %w", err)
	}
	return nil
}

// ExternalReferencesFor lists an anime's external catalog references.
func (s *Store) ExternalReferencesFor(ctx context.Context, animeID uuid.UUID) ([]*domain.ExternalReference, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, anime_id, source, external_id, created_at FROM external_references WHERE anime_id = ? ORDER BY source`,
		animeID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list external references: %w", err)
	}
	defer rows.Close()

	var refs []*domain.ExternalReference
	for rows.Next() {
		var idRaw, animeRaw, source, externalID, createdRaw string
		if err := rows.Scan(&idRaw, &animeRaw, &source, &externalID, &createdRaw); err != nil {
			return nil, err
		}
		ref := &domain.ExternalReference{
			ID:         parseID(idRaw),
			AnimeID:    parseID(animeRaw),
			Source:     source,
			ExternalID: externalID,
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			ref.CreatedAt = created
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func scanAnime(scanner interface{ Scan(dest ...any) error }) (*domain.Anime, error) {
	var (
		idRaw      string
		title      string
		altRaw     string
		kind       string
		status     string
		totalEps   int
		startedRaw sql.NullString
		endedRaw   sql.NullString
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&idRaw,
		&title,
		&altRaw,
		&kind,
		&status,
		&totalEps,
		&startedRaw,
		&endedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	anime := &domain.Anime{
		ID:            parseID(idRaw),
		Title:         title,
		Kind:          domain.AnimeKind(kind),
		Status:        domain.AnimeStatus(status),
		TotalEpisodes: totalEps,
	}
	if altRaw != "" {
		if err := json.Unmarshal([]byte(altRaw), &anime.AlternativeTitles); err != nil {
			return nil, fmt.Errorf("unmarshal alternative titles: %w", err)
		}
	}
	if startedRaw.Valid {
		if parsed, err := parseTimeString(startedRaw.String); err == nil {
			anime.StartedAt = parsed
		}
	}
	if endedRaw.Valid {
		if parsed, err := parseTimeString(endedRaw.String); err == nil {
			anime.EndedAt = parsed
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		anime.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		anime.UpdatedAt = updated
	}
	return anime, nil
}
