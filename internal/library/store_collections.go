package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"animehub/internal/domain"
)

// CreateCollection validates and inserts a collection.
func (s *Store) CreateCollection(ctx context.Context, collection *domain.Collection) error {
	if collection == nil {
		return errors.New("collection is nil")
	}
	if err := collection.Validate(); err != nil {
		return err
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO collections (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		collection.ID.String(),
		collection.Name,
		collection.Description,
		formatTime(collection.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("collection %q already exists", collection.Name)
		}
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

// ListCollections returns all collections ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]*domain.Collection, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM collections ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []*domain.Collection
	for rows.Next() {
		var idRaw, name, description, createdRaw string
		if err := rows.Scan(&idRaw, &name, &description, &createdRaw); err != nil {
			return nil, err
		}
		collection := &domain.Collection{
			ID:          parseID(idRaw),
			Name:        name,
			Description: description,
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			collection.CreatedAt = created
		}
		collections = append(collections, collection)
	}
	return collections, rows.Err()
}

// AddToCollection places an anime in a collection. Re-adding is a no-op.
func (s *Store) AddToCollection(ctx context.Context, collectionID, animeID uuid.UUID) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO collection_anime (collection_id, anime_id, added_at) VALUES (?, ?, ?)`,
		collectionID.String(),
		animeID.String(),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("add to collection: %w", err)
	}
	return nil
}

// RemoveFromCollection takes an anime out of a collection.
func (s *Store) RemoveFromCollection(ctx context.Context, collectionID, animeID uuid.UUID) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM collection_anime WHERE collection_id = ? AND anime_id = ?`,
		collectionID.String(),
		animeID.String(),
	)
	if err != nil {
		return false, fmt.Errorf("remove from collection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// AnimeInCollection lists the anime in a collection, oldest membership
// first.
func (s *Store) AnimeInCollection(ctx context.Context, collectionID uuid.UUID) ([]*domain.Anime, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.title, a.alternative_titles, a.kind, a.status, a.total_episodes,
                a.started_at, a.ended_at, a.created_at, a.updated_at
         FROM anime a
         JOIN collection_anime ca ON ca.anime_id = a.id
         WHERE ca.collection_id = ?
         ORDER BY ca.added_at, a.id`,
		collectionID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list collection anime: %w", err)
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
