package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnimeKind classifies the kind of work.
type AnimeKind string

const (
	AnimeKindTV      AnimeKind = "tv"
	AnimeKindMovie   AnimeKind = "movie"
	AnimeKindOVA     AnimeKind = "ova"
	AnimeKindSpecial AnimeKind = "special"
)

// AnimeStatus tracks the airing state of a work.
type AnimeStatus string

const (
	AnimeStatusAiring    AnimeStatus = "airing"
	AnimeStatusFinished  AnimeStatus = "finished"
	AnimeStatusCancelled AnimeStatus = "cancelled"
)

// Anime is the root entity for a work. The identifier is immutable; duplicate
// titles are allowed until an explicit merge resolves them.
type Anime struct {
	ID                uuid.UUID
	Title             string
	AlternativeTitles []string
	Kind              AnimeKind
	Status            AnimeStatus
	TotalEpisodes     int
	StartedAt         time.Time
	EndedAt           time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewAnime constructs a validated Anime.
func NewAnime(title string, kind AnimeKind) (*Anime, error) {
	now := time.Now().UTC()
	anime := &Anime{
		ID:        uuid.New(),
		Title:     title,
		Kind:      kind,
		Status:    AnimeStatusAiring,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := anime.Validate(); err != nil {
		return nil, err
	}
	return anime, nil
}

// Validate checks the entity's invariants.
func (a *Anime) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return invariantf("anime title cannot be empty")
	}
	switch a.Kind {
	case AnimeKindTV, AnimeKindMovie, AnimeKindOVA, AnimeKindSpecial:
	default:
		return invariantf("unknown anime kind %q", a.Kind)
	}
	if a.TotalEpisodes < 0 {
		return invariantf("total episodes cannot be negative, got %d", a.TotalEpisodes)
	}
	if !a.StartedAt.IsZero() && !a.EndedAt.IsZero() && a.StartedAt.After(a.EndedAt) {
		return invariantf("start date %s is after end date %s", a.StartedAt.Format(time.RFC3339), a.EndedAt.Format(time.RFC3339))
	}
	return nil
}

// Touch updates the modification timestamp. CreatedAt never changes.
func (a *Anime) Touch() {
	a.UpdatedAt = time.Now().UTC()
}
