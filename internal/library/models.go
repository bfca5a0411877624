package library

import (
	"time"

	"github.com/google/uuid"
)

// Outcome labels recorded in the ledger.
const (
	OutcomeAnimeCreated   = "anime_created"
	OutcomeAnimeMatched   = "anime_matched"
	OutcomeEpisodeCreated = "episode_created"
	OutcomeEpisodeMatched = "episode_matched"
	OutcomeFileLinked     = "file_linked"
	OutcomeSkipped        = "skipped"
	OutcomeFailed         = "failed"
)

// LedgerRecord is one append-only entry in the materialization ledger. The
// entity references are soft: a deleted entity nulls the reference (uuid.Nil
// here) without invalidating the record.
type LedgerRecord struct {
	ID             uuid.UUID
	Fingerprint    string
	EventType      string
	SourceEventID  uuid.UUID
	AnimeID        uuid.UUID
	EpisodeID      uuid.UUID
	FileID         uuid.UUID
	Outcome        string
	MaterializedAt time.Time
}

// FileLink associates a file with an episode.
type FileLink struct {
	EpisodeID uuid.UUID
	FileID    uuid.UUID
	FileRole  string
	LinkedAt  time.Time
}

// StatsSnapshot is one row of derived library statistics.
type StatsSnapshot struct {
	AnimeCount   int
	EpisodeCount int
	FileCount    int
	WatchedCount int
	ComputedAt   time.Time
}
