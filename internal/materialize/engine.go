package materialize

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"animehub/internal/domain"
	"animehub/internal/events"
	"animehub/internal/library"
	"animehub/internal/logging"
	"animehub/internal/resolution"
	"animehub/internal/textutil"
)

// Status labels the terminal state of one materialization attempt.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Failure reasons carried on MaterializationFailed events.
const (
	ReasonStaleMatch         = "stale-match"
	ReasonInvariantViolation = "invariant_violation"
	ReasonTransaction        = "transaction_failure"
)

// Result reports what one materialization attempt did. Record is the ledger
// entry the attempt wrote, or the prior winner's entry when Status is
// StatusSkipped. Failed attempts write no ledger entry so the source event
// stays eligible for retry.
type Result struct {
	Status      Status
	Fingerprint string
	Record      *library.LedgerRecord
	Reason      string
	Detail      string
}

// Engine applies resolutions against the library store and emits derived
// events describing what it did.
type Engine struct {
	store *library.Store
	bus   *events.Bus
	log   *slog.Logger
}

// NewEngine builds an engine. The bus may be nil when no observer cares
// about derived events.
func NewEngine(store *library.Store, bus *events.Bus, logger *slog.Logger) *Engine {
	return &Engine{
		store: store,
		bus:   bus,
		log:   logging.NewComponentLogger(logger, "materialize"),
	}
}

// applyFailure aborts the enclosing transaction with a classified reason.
type applyFailure struct {
	reason string
	detail string
}

func (f *applyFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.reason, f.detail)
}

func staleMatch(detail string) *applyFailure {
	return &applyFailure{reason: ReasonStaleMatch, detail: detail}
}

// resolveAnime pins down the anime a resolution refers to within the
// transaction. A matched id is followed through the alias chain to the
// current principal; a vanished match is a hard failure, never a silent
// downgrade to creation. Creation intents first look for a same-titled anime
// that appeared since resolution ran.
func (e *Engine) resolveAnime(tx *library.Tx, matchedID uuid.UUID, title string, kind domain.AnimeKind, pending *[]events.Event, confidence float64) (*domain.Anime, bool, error) {
	if matchedID != uuid.Nil {
		principalID, err := tx.ResolveAliasChain(matchedID)
		if err != nil {
			return nil, false, err
		}
		anime, err := tx.GetAnime(principalID)
		if err != nil {
			return nil, false, err
		}
		if anime == nil {
			return nil, false, staleMatch(fmt.Sprintf("matched anime %s no longer exists", matchedID))
		}
		*pending = append(*pending, events.AnimeMatched{
			Meta:       events.NewMeta(),
			AnimeID:    anime.ID,
			Title:      anime.Title,
			Confidence: confidence,
		})
		return anime, false, nil
	}

	existing, err := tx.ListAnime()
	if err != nil {
		return nil, false, err
	}
	normalized := resolution.NormalizeTitle(title)
	for _, candidate := range existing {
		if resolution.NormalizeTitle(candidate.Title) == normalized {
			*pending = append(*pending, events.AnimeMatched{
				Meta:       events.NewMeta(),
				AnimeID:    candidate.ID,
				Title:      candidate.Title,
				Confidence: confidence,
			})
			return candidate, false, nil
		}
	}

	anime, err := domain.NewAnime(textutil.DisplayTitle(title), kind)
	if err != nil {
		return nil, false, &applyFailure{reason: ReasonInvariantViolation, detail: err.Error()}
	}
	if err := tx.CreateAnime(anime); err != nil {
		return nil, false, err
	}
	*pending = append(*pending, events.AnimeCreated{
		Meta:    events.NewMeta(),
		AnimeID: anime.ID,
		Title:   anime.Title,
		Kind:    string(anime.Kind),
	})
	return anime, true, nil
}

// resolveEpisode pins down the episode within the transaction, creating it
// under the resolved anime when neither the match nor a lookup finds one.
func (e *Engine) resolveEpisode(tx *library.Tx, anime *domain.Anime, matchedAnimeID, matchedEpisodeID uuid.UUID, number domain.EpisodeNumber, pending *[]events.Event, confidence float64) (*domain.Episode, bool, error) {
	if matchedEpisodeID != uuid.Nil {
		episode, err := tx.GetEpisode(matchedEpisodeID)
		if err != nil {
			return nil, false, err
		}
		if episode == nil {
			return nil, false, staleMatch(fmt.Sprintf("matched episode %s no longer exists", matchedEpisodeID))
		}
		if episode.AnimeID != anime.ID && episode.AnimeID != matchedAnimeID {
			return nil, false, staleMatch(fmt.Sprintf("matched episode %s moved to another anime", matchedEpisodeID))
		}
		*pending = append(*pending, events.EpisodeMatched{
			Meta:       events.NewMeta(),
			EpisodeID:  episode.ID,
			AnimeID:    episode.AnimeID,
			Confidence: confidence,
		})
		return episode, false, nil
	}

	episode, err := tx.FindEpisode(anime.ID, number)
	if err != nil {
		return nil, false, err
	}
	if episode != nil {
		*pending = append(*pending, events.EpisodeMatched{
			Meta:       events.NewMeta(),
			EpisodeID:  episode.ID,
			AnimeID:    episode.AnimeID,
			Confidence: confidence,
		})
		return episode, false, nil
	}

	episode, err = domain.NewEpisode(anime.ID, number)
	if err != nil {
		return nil, false, &applyFailure{reason: ReasonInvariantViolation, detail: err.Error()}
	}
	if err := tx.CreateEpisode(episode); err != nil {
		return nil, false, err
	}
	*pending = append(*pending, events.EpisodeCreated{
		Meta:          events.NewMeta(),
		EpisodeID:     episode.ID,
		AnimeID:       anime.ID,
		EpisodeNumber: number.Label(),
	})
	return episode, true, nil
}

// classify maps an aborted transaction to a failed result, separating the
// idempotency race from genuine failures at the call site.
func (e *Engine) classify(err error, fingerprint string, sourceEventID uuid.UUID) *Result {
	var failure *applyFailure
	if errors.As(err, &failure) {
		return e.failed(fingerprint, sourceEventID, failure.reason, failure.detail)
	}
	if errors.Is(err, domain.ErrInvariantViolation) {
		return e.failed(fingerprint, sourceEventID, ReasonInvariantViolation, err.Error())
	}
	return e.failed(fingerprint, sourceEventID, ReasonTransaction, err.Error())
}

func (e *Engine) failed(fingerprint string, sourceEventID uuid.UUID, reason, detail string) *Result {
	e.log.Error("materialization failed",
		logging.FieldFingerprint, fingerprint,
		"reason", reason,
		"detail", detail,
	)
	e.publish(events.MaterializationFailed{
		Meta:          events.NewMeta(),
		Fingerprint:   fingerprint,
		SourceEventID: sourceEventID,
		Reason:        reason,
		Detail:        detail,
	})
	return &Result{Status: StatusFailed, Fingerprint: fingerprint, Reason: reason, Detail: detail}
}

func (e *Engine) skipped(record *library.LedgerRecord, sourceEventID uuid.UUID) *Result {
	e.log.Debug("already materialized",
		logging.FieldFingerprint, record.Fingerprint,
		logging.FieldOutcome, record.Outcome,
	)
	e.publish(events.MaterializationSkipped{
		Meta:          events.NewMeta(),
		Fingerprint:   record.Fingerprint,
		SourceEventID: sourceEventID,
		Outcome:       record.Outcome,
	})
	return &Result{Status: StatusSkipped, Fingerprint: record.Fingerprint, Record: record}
}

func (e *Engine) publish(event events.Event) {
	if e.bus == nil {
		return
	}
	result := e.bus.Publish(event)
	for _, handlerErr := range result.Errors {
		e.log.Warn("event handler failed",
			logging.FieldEventType, result.Type,
			logging.FieldEventID, result.EventID.String(),
			"handler", handlerErr.Index,
			"error", handlerErr.Err.Error(),
		)
	}
}

func (e *Engine) publishAll(pending []events.Event) {
	for _, event := range pending {
		e.publish(event)
	}
}
