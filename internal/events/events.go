package events

import (
	"time"

	"github.com/google/uuid"
)

// Meta carries the identity and timestamp every event shares. Embed it and
// implement EventType on the concrete event.
type Meta struct {
	ID uuid.UUID
	At time.Time
}

// NewMeta returns a fresh Meta for an event being emitted now.
func NewMeta() Meta {
	return Meta{ID: uuid.New(), At: time.Now().UTC()}
}

func (m Meta) EventID() uuid.UUID    { return m.ID }
func (m Meta) OccurredAt() time.Time { return m.At }

// FileObserved is the upstream trigger: a collaborator (scanner, importer)
// saw a file and wants it considered for materialization. The resolution
// engine is its sole pipeline consumer.
type FileObserved struct {
	Meta
	FileID     uuid.UUID
	Path       string
	Role       string
	Size       int64
	ModifiedAt time.Time
}

func (FileObserved) EventType() string { return "FileObserved" }

// FileResolved states what a file is: the inferred title and episode, the
// match or create intent, and the evidence behind it.
type FileResolved struct {
	Meta
	FileID           uuid.UUID
	Path             string
	AnimeTitle       string
	MatchedAnimeID   uuid.UUID
	EpisodeNumber    string
	MatchedEpisodeID uuid.UUID
	FileRole         string
	Confidence       float64
	Source           string
}

func (FileResolved) EventType() string { return "FileResolved" }

// EpisodeResolved aggregates one or more file resolutions into a single
// episode-level fact with its primary video and attached subtitles.
type EpisodeResolved struct {
	Meta
	AnimeTitle       string
	MatchedAnimeID   uuid.UUID
	EpisodeNumber    string
	MatchedEpisodeID uuid.UUID
	VideoFileID      uuid.UUID
	SubtitleFileIDs  []uuid.UUID
	Confidence       float64
}

func (EpisodeResolved) EventType() string { return "EpisodeResolved" }

// ResolutionFailed reports that a file could not be resolved. Non-fatal; the
// pipeline continues with the next observation.
type ResolutionFailed struct {
	Meta
	FileID uuid.UUID
	Path   string
	Reason string
	Detail string
}

func (ResolutionFailed) EventType() string { return "ResolutionFailed" }

// ResolutionBatchCompleted summarizes one batch resolution run.
type ResolutionBatchCompleted struct {
	Meta
	Total    int
	Resolved int
	Failed   int
	Skipped  int
	Duration time.Duration
}

func (ResolutionBatchCompleted) EventType() string { return "ResolutionBatchCompleted" }

// AnimeCreated is the derived fact that materialization created a new anime.
type AnimeCreated struct {
	Meta
	AnimeID uuid.UUID
	Title   string
	Kind    string
}

func (AnimeCreated) EventType() string { return "AnimeCreated" }

// AnimeMatched is the derived fact that a resolution was attached to an
// existing anime instead of creating one.
type AnimeMatched struct {
	Meta
	AnimeID    uuid.UUID
	Title      string
	Confidence float64
}

func (AnimeMatched) EventType() string { return "AnimeMatched" }

// AnimeMerged records that the alias anime was absorbed into the principal.
type AnimeMerged struct {
	Meta
	PrincipalID uuid.UUID
	AliasID     uuid.UUID
}

func (AnimeMerged) EventType() string { return "AnimeMerged" }

// EpisodeCreated is the derived fact that materialization created an episode.
type EpisodeCreated struct {
	Meta
	EpisodeID     uuid.UUID
	AnimeID       uuid.UUID
	EpisodeNumber string
}

func (EpisodeCreated) EventType() string { return "EpisodeCreated" }

// EpisodeMatched is the derived fact that a resolution was attached to an
// existing episode.
type EpisodeMatched struct {
	Meta
	EpisodeID  uuid.UUID
	AnimeID    uuid.UUID
	Confidence float64
}

func (EpisodeMatched) EventType() string { return "EpisodeMatched" }

// FileLinkedToEpisode is the derived fact that a file now belongs to an
// episode.
type FileLinkedToEpisode struct {
	Meta
	FileID    uuid.UUID
	EpisodeID uuid.UUID
	AnimeID   uuid.UUID
	FileRole  string
}

func (FileLinkedToEpisode) EventType() string { return "FileLinkedToEpisode" }

// MaterializationSkipped reports that a resolution's fingerprint was already
// in the ledger, so no mutation was performed. This is the idempotency path,
// not a failure.
type MaterializationSkipped struct {
	Meta
	Fingerprint   string
	SourceEventID uuid.UUID
	Outcome       string
}

func (MaterializationSkipped) EventType() string { return "MaterializationSkipped" }

// MaterializationFailed reports that applying a resolution failed and was
// rolled back. The source event is safe to retry.
type MaterializationFailed struct {
	Meta
	Fingerprint   string
	SourceEventID uuid.UUID
	Reason        string
	Detail        string
}

func (MaterializationFailed) EventType() string { return "MaterializationFailed" }

// MaterializationBatchCompleted summarizes one batch materialization run.
type MaterializationBatchCompleted struct {
	Meta
	Total    int
	Applied  int
	Skipped  int
	Failed   int
	Duration time.Duration
}

func (MaterializationBatchCompleted) EventType() string { return "MaterializationBatchCompleted" }

// StatisticsUpdated announces that derived library statistics were rebuilt.
// Statistics are derived data and never feed back into the pipeline.
type StatisticsUpdated struct {
	Meta
	AnimeCount   int
	EpisodeCount int
	FileCount    int
	WatchedCount int
}

func (StatisticsUpdated) EventType() string { return "StatisticsUpdated" }
