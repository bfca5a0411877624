package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EpisodeState tracks viewing progress.
type EpisodeState string

const (
	EpisodeStateUnwatched  EpisodeState = "unwatched"
	EpisodeStateInProgress EpisodeState = "in_progress"
	EpisodeStateCompleted  EpisodeState = "completed"
)

// completionRatio is the fraction of the expected duration at which an
// episode counts as completed.
const completionRatio = 0.9

// EpisodeNumber is either a regular integer number or a special label such
// as "OVA" or "SP1". Exactly one of the two forms is populated.
type EpisodeNumber struct {
	Number  int
	Special string
}

// RegularEpisode returns a numbered episode.
func RegularEpisode(n int) EpisodeNumber {
	return EpisodeNumber{Number: n}
}

// SpecialEpisode returns a labeled special.
func SpecialEpisode(label string) EpisodeNumber {
	return EpisodeNumber{Special: label}
}

// IsSpecial reports whether the number is a special label.
func (n EpisodeNumber) IsSpecial() bool {
	return n.Special != ""
}

// Label renders the number in its canonical textual form, which is also the
// form used in fingerprints.
func (n EpisodeNumber) Label() string {
	if n.IsSpecial() {
		return n.Special
	}
	return strconv.Itoa(n.Number)
}

func (n EpisodeNumber) String() string {
	return n.Label()
}

// Episode is the unit of viewing progress. It belongs to exactly one Anime
// and that parent never changes.
type Episode struct {
	ID               uuid.UUID
	AnimeID          uuid.UUID
	Number           EpisodeNumber
	Title            string
	ExpectedDuration time.Duration
	Progress         time.Duration
	State            EpisodeState
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewEpisode constructs a validated Episode attached to animeID.
func NewEpisode(animeID uuid.UUID, number EpisodeNumber) (*Episode, error) {
	now := time.Now().UTC()
	episode := &Episode{
		ID:        uuid.New(),
		AnimeID:   animeID,
		Number:    number,
		State:     EpisodeStateUnwatched,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := episode.Validate(); err != nil {
		return nil, err
	}
	return episode, nil
}

// Validate checks the entity's invariants.
func (e *Episode) Validate() error {
	if e.AnimeID == uuid.Nil {
		return invariantf("episode requires a parent anime")
	}
	if e.Number.Number < 0 {
		return invariantf("episode number cannot be negative, got %d", e.Number.Number)
	}
	if e.Number.Number == 0 && strings.TrimSpace(e.Number.Special) == "" {
		return invariantf("episode needs a number or a special label")
	}
	if e.Progress < 0 {
		return invariantf("episode progress cannot be negative")
	}
	if e.ExpectedDuration > 0 && e.Progress > e.ExpectedDuration {
		return invariantf("progress %s exceeds expected duration %s", e.Progress, e.ExpectedDuration)
	}
	return nil
}

// AdvanceProgress moves playback progress forward. Progress never decreases
// through this path and never exceeds the expected duration; a decrease must
// go through ResetProgress as an explicit user action.
func (e *Episode) AdvanceProgress(progress time.Duration) error {
	if progress < 0 {
		return invariantf("episode progress cannot be negative")
	}
	if e.ExpectedDuration > 0 && progress > e.ExpectedDuration {
		return invariantf("progress %s exceeds expected duration %s", progress, e.ExpectedDuration)
	}
	if progress < e.Progress {
		return invariantf("progress cannot decrease from %s to %s", e.Progress, progress)
	}
	e.Progress = progress
	e.State = e.stateForProgress(progress)
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted marks the episode as watched in full.
func (e *Episode) MarkCompleted() {
	e.State = EpisodeStateCompleted
	if e.ExpectedDuration > 0 {
		e.Progress = e.ExpectedDuration
	}
	e.UpdatedAt = time.Now().UTC()
}

// ResetProgress is the explicit path back to zero.
func (e *Episode) ResetProgress() {
	e.Progress = 0
	e.State = EpisodeStateUnwatched
	e.UpdatedAt = time.Now().UTC()
}

func (e *Episode) stateForProgress(progress time.Duration) EpisodeState {
	if progress == 0 {
		return EpisodeStateUnwatched
	}
	if e.ExpectedDuration > 0 && float64(progress) >= float64(e.ExpectedDuration)*completionRatio {
		return EpisodeStateCompleted
	}
	return EpisodeStateInProgress
}
