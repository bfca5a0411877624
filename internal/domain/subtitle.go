package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubtitleFormat identifies a subtitle container format.
type SubtitleFormat string

const (
	SubtitleFormatSRT SubtitleFormat = "srt"
	SubtitleFormatASS SubtitleFormat = "ass"
	SubtitleFormatVTT SubtitleFormat = "vtt"
)

// SubtitleFormatFromExtension maps a file extension to a format. The second
// return value is false for unrecognized extensions.
func SubtitleFormatFromExtension(ext string) (SubtitleFormat, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "srt":
		return SubtitleFormatSRT, true
	case "ass", "ssa":
		return SubtitleFormatASS, true
	case "vtt":
		return SubtitleFormatVTT, true
	default:
		return "", false
	}
}

// Subtitle references subtitle data inside a file. Subtitles are versioned
// and never destructively edited; a transformation yields a new version.
type Subtitle struct {
	ID        uuid.UUID
	FileID    uuid.UUID
	Format    SubtitleFormat
	Language  string
	Version   int
	Original  bool
	CreatedAt time.Time
}

// NewSubtitle constructs a validated original Subtitle for a file.
func NewSubtitle(fileID uuid.UUID, format SubtitleFormat, language string) (*Subtitle, error) {
	subtitle := &Subtitle{
		ID:        uuid.New(),
		FileID:    fileID,
		Format:    format,
		Language:  language,
		Version:   1,
		Original:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := subtitle.Validate(); err != nil {
		return nil, err
	}
	return subtitle, nil
}

// Derive creates the next version of this subtitle, stored in newFileID.
func (s *Subtitle) Derive(newFileID uuid.UUID, format SubtitleFormat) (*Subtitle, error) {
	derived := &Subtitle{
		ID:        uuid.New(),
		FileID:    newFileID,
		Format:    format,
		Language:  s.Language,
		Version:   s.Version + 1,
		Original:  false,
		CreatedAt: time.Now().UTC(),
	}
	if err := derived.Validate(); err != nil {
		return nil, err
	}
	return derived, nil
}

// Validate checks the entity's invariants.
func (s *Subtitle) Validate() error {
	if s.FileID == uuid.Nil {
		return invariantf("subtitle requires a source file")
	}
	switch s.Format {
	case SubtitleFormatSRT, SubtitleFormatASS, SubtitleFormatVTT:
	default:
		return invariantf("unknown subtitle format %q", s.Format)
	}
	if s.Version < 1 {
		return invariantf("subtitle version must be positive, got %d", s.Version)
	}
	return nil
}
