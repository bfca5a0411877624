package resolution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"animehub/internal/domain"
	"animehub/internal/textutil"
)

// Failure reasons surfaced when a path cannot be resolved.
const (
	ReasonUnsupportedFileType = "unsupported_file_type"
	ReasonUnparsableTitle     = "unparsable_title"
	ReasonUnparsableEpisode   = "unparsable_episode_number"
)

// Confidence scoring constants. The base score assumes a successful parse;
// the bonuses reward corroborating evidence and the penalty flags titles too
// short to trust.
const (
	baseConfidence      = 0.5
	animeMatchBonus     = 0.2
	episodeMatchBonus   = 0.15
	filenameSourceBonus = 0.1
	shortTitlePenalty   = 0.2
	regularNumberBonus  = 0.05
	shortTitleThreshold = 3
)

// Catalog is the read-only view of the library a resolver scores against.
// *library.Store satisfies it.
type Catalog interface {
	ListAnime(ctx context.Context) ([]*domain.Anime, error)
	FindEpisode(ctx context.Context, animeID uuid.UUID, number domain.EpisodeNumber) (*domain.Episode, error)
}

// Observation describes a file the scanner saw. Resolution never reads the
// file itself; the path is the only evidence.
type Observation struct {
	FileID     uuid.UUID
	Path       string
	Role       domain.FileRole
	Size       int64
	ModifiedAt time.Time
}

// Resolution is a successful inference. MatchedAnimeID and MatchedEpisodeID
// are uuid.Nil when the score fell below the match threshold and the
// materializer should create the entity instead.
type Resolution struct {
	FileID           uuid.UUID
	Path             string
	AnimeTitle       string
	MatchedAnimeID   uuid.UUID
	EpisodeNumber    domain.EpisodeNumber
	MatchedEpisodeID uuid.UUID
	Role             domain.FileRole
	Confidence       float64
	Source           Source
}

// Failure records why an observation could not be resolved.
type Failure struct {
	FileID uuid.UUID
	Path   string
	Reason string
	Detail string
}

// Outcome holds exactly one of Resolution or Failure.
type Outcome struct {
	Resolution *Resolution
	Failure    *Failure
}

// Resolver scores path evidence against the catalog. It never mutates
// anything; two calls with the same observation and catalog state produce
// the same outcome.
type Resolver struct {
	catalog   Catalog
	threshold float64
}

// NewResolver builds a resolver. The threshold gates matching against an
// existing anime versus proposing a new one.
func NewResolver(catalog Catalog, threshold float64) *Resolver {
	return &Resolver{catalog: catalog, threshold: threshold}
}

// Resolve produces exactly one outcome for the observation. The returned
// error is reserved for catalog failures; parse problems come back as a
// Failure outcome.
func (r *Resolver) Resolve(ctx context.Context, obs Observation) (Outcome, error) {
	if obs.Role == domain.FileRoleOther {
		return failure(obs, ReasonUnsupportedFileType, fmt.Sprintf("no resolution rules for role %q", obs.Role)), nil
	}

	title, titleSource, ok := ParseTitle(obs.Path)
	if !ok {
		return failure(obs, ReasonUnparsableTitle, "no title pattern matched the filename or folder"), nil
	}

	number, episodeSource, ok := ParseEpisode(obs.Path)
	if !ok {
		return failure(obs, ReasonUnparsableEpisode, "no episode pattern matched the filename"), nil
	}

	match, titleScore, err := r.bestMatch(ctx, title)
	if err != nil {
		return Outcome{}, err
	}

	res := &Resolution{
		FileID:        obs.FileID,
		Path:          obs.Path,
		AnimeTitle:    title,
		EpisodeNumber: number,
		Role:          obs.Role,
		Source:        combineSources(titleSource, episodeSource),
	}

	confidence := baseConfidence
	if match != nil && titleScore >= r.threshold {
		res.MatchedAnimeID = match.ID
		confidence += animeMatchBonus * titleScore

		episode, err := r.catalog.FindEpisode(ctx, match.ID, number)
		if err != nil {
			return Outcome{}, err
		}
		if episode != nil {
			res.MatchedEpisodeID = episode.ID
			confidence += episodeMatchBonus
		}
	}
	if titleSource == SourceFilename {
		confidence += filenameSourceBonus
	}
	if episodeSource == SourceFilename {
		confidence += filenameSourceBonus
	}
	if len(title) < shortTitleThreshold {
		confidence -= shortTitlePenalty
	}
	if !number.IsSpecial() {
		confidence += regularNumberBonus
	}
	res.Confidence = clamp(confidence)

	return Outcome{Resolution: res}, nil
}

// bestMatch scores the parsed title against every catalog entry and returns
// the strongest candidate. Ties break deterministically by score, then
// creation time, then id.
func (r *Resolver) bestMatch(ctx context.Context, title string) (*domain.Anime, float64, error) {
	catalog, err := r.catalog.ListAnime(ctx)
	if err != nil {
		return nil, 0, err
	}

	var (
		best      *domain.Anime
		bestScore float64
	)
	for _, candidate := range catalog {
		score := titleScore(title, candidate)
		if best == nil || score > bestScore || (score == bestScore && olderThan(candidate, best)) {
			best, bestScore = candidate, score
		}
	}
	if best == nil || bestScore == 0 {
		return nil, 0, nil
	}
	return best, bestScore, nil
}

// titleScore is the best agreement between the parsed title and any of the
// candidate's titles. An exact normalized match scores 1.0; otherwise the
// cosine similarity of the token vectors.
func titleScore(title string, candidate *domain.Anime) float64 {
	normalized := NormalizeTitle(title)
	parsed := textutil.NewVector(title)

	best := scoreAgainst(normalized, parsed, candidate.Title)
	for _, alt := range candidate.AlternativeTitles {
		if s := scoreAgainst(normalized, parsed, alt); s > best {
			best = s
		}
	}
	return best
}

func scoreAgainst(normalized string, parsed *textutil.Vector, candidateTitle string) float64 {
	if NormalizeTitle(candidateTitle) == normalized {
		return 1.0
	}
	return textutil.Similarity(parsed, textutil.NewVector(candidateTitle))
}

func olderThan(a, b *domain.Anime) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}

func combineSources(titleSource, episodeSource Source) Source {
	if titleSource == episodeSource {
		return titleSource
	}
	return SourceCombined
}

func failure(obs Observation, reason, detail string) Outcome {
	return Outcome{Failure: &Failure{
		FileID: obs.FileID,
		Path:   obs.Path,
		Reason: reason,
		Detail: detail,
	}}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
