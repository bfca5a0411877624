package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"animehub/internal/domain"
)

// CreateSubtitle validates and inserts a subtitle record.
func (s *Store) CreateSubtitle(ctx context.Context, subtitle *domain.Subtitle) error {
	if subtitle == nil {
		return errors.New("subtitle is nil")
	}
	if err := subtitle.Validate(); err != nil {
		return err
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO subtitles (id, file_id, format, language, version, original, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		subtitle.ID.String(),
		subtitle.FileID.String(),
		string(subtitle.Format),
		subtitle.Language,
		subtitle.Version,
		boolToInt(subtitle.Original),
		formatTime(subtitle.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert subtitle: %w", err)
	}
	return nil
}

// SubtitlesForFile lists the subtitle versions stored for a file, oldest
// version first.
func (s *Store) SubtitlesForFile(ctx context.Context, fileID uuid.UUID) ([]*domain.Subtitle, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_id, format, language, version, original, created_at
         FROM subtitles WHERE file_id = ? ORDER BY version, id`,
		fileID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list subtitles: %w", err)
	}
	defer rows.Close()

	var subtitles []*domain.Subtitle
	for rows.Next() {
		var (
			idRaw      string
			fileRaw    string
			format     string
			language   string
			version    int
			original   int
			createdRaw string
		)
		if err := rows.Scan(&idRaw, &fileRaw, &format, &language, &version, &original, &createdRaw); err != nil {
			return nil, err
		}
		subtitle := &domain.Subtitle{
			ID:       parseID(idRaw),
			FileID:   parseID(fileRaw),
			Format:   domain.SubtitleFormat(format),
			Language: language,
			Version:  version,
			Original: original != 0,
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			subtitle.CreatedAt = created
		}
		subtitles = append(subtitles, subtitle)
	}
	return subtitles, rows.Err()
}
