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

const fileColumns = "id, path, role, size, hash, modified_at, origin, created_at, updated_at"

// CreateFile validates and inserts a new file record.
func (s *Store) CreateFile(ctx context.Context, file *domain.File) error {
	if file == nil {
		return errors.New("file is nil")
	}
	if err := file.Validate(); err != nil {
		return err
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID.String(),
		file.Path,
		string(file.Role),
		file.Size,
		nullableString(file.Hash),
		formatTime(file.ModifiedAt),
		string(file.Origin),
		formatTime(file.CreatedAt),
		formatTime(file.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("file path %s already recorded", file.Path)
		}
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// UpsertFileByPath records an observed file, updating size and modification
// time when the path is already known. The returned file carries the stored
// identity either way.
func (s *Store) UpsertFileByPath(ctx context.Context, path string, role domain.FileRole, size int64, modifiedAt time.Time, origin domain.FileOrigin) (*domain.File, error) {
	ctx = ensureContext(ctx)

	existing, err := s.FindFileByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Changed(size, modifiedAt) {
			return existing, nil
		}
		existing.UpdateObserved(size, modifiedAt)
		if err := s.UpdateFile(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	file, err := domain.NewFile(path, role, size, modifiedAt, origin)
	if err != nil {
		return nil, err
	}
	if err := s.CreateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// GetFile fetches a file by id. Missing rows yield (nil, nil).
func (s *Store) GetFile(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	return getFile(ensureContext(ctx), s.db, id)
}

func getFile(ctx context.Context, q querier, id uuid.UUID) (*domain.File, error) {
	row := q.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id.String())
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// FindFileByPath fetches a file by absolute path. Missing rows yield
// (nil, nil).
func (s *Store) FindFileByPath(ctx context.Context, path string) (*domain.File, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE path = ?`, path)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find file by path: %w", err)
	}
	return file, nil
}

// UpdateFile persists changes to an existing file record.
func (s *Store) UpdateFile(ctx context.Context, file *domain.File) error {
	if file == nil {
		return errors.New("file is nil")
	}
	if err := file.Validate(); err != nil {
		return err
	}
	file.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE files
         SET path = ?, role = ?, size = ?, hash = ?, modified_at = ?, origin = ?, updated_at = ?
         WHERE id = ?`,
		file.Path,
		string(file.Role),
		file.Size,
		nullableString(file.Hash),
		formatTime(file.ModifiedAt),
		string(file.Origin),
		formatTime(file.UpdatedAt),
		file.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update file %s: %w", file.ID, ErrNotFound)
	}
	return nil
}

// LinkFileToEpisode associates a file with an episode. Linking is additive
// and never deletes or rewrites the file itself.
func (s *Store) LinkFileToEpisode(ctx context.Context, episodeID, fileID uuid.UUID, role domain.FileRole) error {
	return linkFileToEpisode(ensureContext(ctx), s.db, episodeID, fileID, role)
}

func linkFileToEpisode(ctx context.Context, q querier, episodeID, fileID uuid.UUID, role domain.FileRole) error {
	_, err := q.ExecContext(
		ctx,
		`INSERT INTO episode_files (episode_id, file_id, file_role, linked_at) VALUES (?, ?, ?, ?)`,
		episodeID.String(),
		fileID.String(),
		string(role),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("link file to episode: %w", err)
	}
	return nil
}

// FilesForEpisode lists the files linked to an episode.
func (s *Store) FilesForEpisode(ctx context.Context, episodeID uuid.UUID) ([]*domain.File, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.path, f.role, f.size, f.hash, f.modified_at, f.origin, f.created_at, f.updated_at
         FROM files f
         JOIN episode_files ef ON ef.file_id = f.id
         WHERE ef.episode_id = ?
         ORDER BY ef.linked_at, f.id`,
		episodeID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list files for episode: %w", err)
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// EpisodeForFile returns the episode a file is linked to, or (uuid.Nil, nil)
// when the file is unlinked.
func (s *Store) EpisodeForFile(ctx context.Context, fileID uuid.UUID) (uuid.UUID, error) {
	ctx = ensureContext(ctx)
	var episodeRaw string
	err := s.db.QueryRowContext(ctx,
		`SELECT episode_id FROM episode_files WHERE file_id = ? ORDER BY linked_at LIMIT 1`,
		fileID.String(),
	).Scan(&episodeRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("episode for file: %w", err)
	}
	return parseID(episodeRaw), nil
}

// UnlinkedFiles returns files not yet associated with any episode, oldest
// first.
func (s *Store) UnlinkedFiles(ctx context.Context) ([]*domain.File, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files
         WHERE id NOT IN (SELECT file_id FROM episode_files)
         ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list unlinked files: %w", err)
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func scanFile(scanner interface{ Scan(dest ...any) error }) (*domain.File, error) {
	var (
		idRaw       string
		path        string
		role        string
		size        int64
		hash        sql.NullString
		modifiedRaw string
		origin      string
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&idRaw,
		&path,
		&role,
		&size,
		&hash,
		&modifiedRaw,
		&origin,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	file := &domain.File{
		ID:     parseID(idRaw),
		Path:   path,
		Role:   domain.FileRole(role),
		Size:   size,
		Hash:   hash.String,
		Origin: domain.FileOrigin(origin),
	}
	if modified, err := parseTimeString(modifiedRaw); err == nil {
		file.ModifiedAt = modified
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		file.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		file.UpdatedAt = updated
	}
	return file, nil
}
