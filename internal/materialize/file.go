package materialize

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"animehub/internal/domain"
	"animehub/internal/events"
	"animehub/internal/fingerprint"
	"animehub/internal/library"
	"animehub/internal/logging"
	"animehub/internal/resolution"
)

// MaterializeFile applies a file resolution: it pins down the anime and
// episode, links the file, and records the outcome in the ledger, all in one
// transaction. The result is terminal; failed attempts leave no trace and
// are safe to retry after re-resolution.
func (e *Engine) MaterializeFile(ctx context.Context, res *resolution.Resolution, sourceEventID uuid.UUID) *Result {
	fp := fingerprint.FileResolution(res.FileID, res.AnimeTitle, res.EpisodeNumber.Label(), string(res.Role))

	prior, err := e.store.LookupLedger(ctx, fp)
	if err != nil {
		return e.failed(fp, sourceEventID, ReasonTransaction, err.Error())
	}
	if prior != nil {
		return e.skipped(prior, sourceEventID)
	}

	var (
		record  *library.LedgerRecord
		pending []events.Event
	)
	err = e.store.WithTx(ctx, func(tx *library.Tx) error {
		pending = pending[:0]

		anime, animeCreated, err := e.resolveAnime(tx, res.MatchedAnimeID, res.AnimeTitle, kindFor(res.EpisodeNumber), &pending, res.Confidence)
		if err != nil {
			return err
		}
		episode, episodeCreated, err := e.resolveEpisode(tx, anime, res.MatchedAnimeID, res.MatchedEpisodeID, res.EpisodeNumber, &pending, res.Confidence)
		if err != nil {
			return err
		}
		if err := tx.LinkFileToEpisode(episode.ID, res.FileID, res.Role); err != nil {
			return err
		}
		pending = append(pending, events.FileLinkedToEpisode{
			Meta:      events.NewMeta(),
			FileID:    res.FileID,
			EpisodeID: episode.ID,
			AnimeID:   anime.ID,
			FileRole:  string(res.Role),
		})

		record = &library.LedgerRecord{
			ID:             uuid.New(),
			Fingerprint:    fp,
			EventType:      events.FileResolved{}.EventType(),
			SourceEventID:  sourceEventID,
			AnimeID:        anime.ID,
			EpisodeID:      episode.ID,
			FileID:         res.FileID,
			Outcome:        outcomeLabel(animeCreated, episodeCreated),
			MaterializedAt: time.Now().UTC(),
		}
		return tx.RecordLedger(record)
	})
	if err != nil {
		if errors.Is(err, library.ErrDuplicateFingerprint) {
			return e.loserSkip(ctx, fp, sourceEventID, err)
		}
		return e.classify(err, fp, sourceEventID)
	}

	e.publishAll(pending)
	e.log.Info("materialized file resolution",
		logging.FieldFingerprint, fp,
		logging.FieldFileID, res.FileID.String(),
		logging.FieldAnimeID, record.AnimeID.String(),
		logging.FieldEpisodeID, record.EpisodeID.String(),
		logging.FieldOutcome, record.Outcome,
	)
	return &Result{Status: StatusApplied, Fingerprint: fp, Record: record}
}

// loserSkip handles losing the unique-fingerprint race: the winner's record
// is read back and the attempt reports success via idempotency.
func (e *Engine) loserSkip(ctx context.Context, fp string, sourceEventID uuid.UUID, raceErr error) *Result {
	winner, err := e.store.LookupLedger(ctx, fp)
	if err != nil {
		return e.failed(fp, sourceEventID, ReasonTransaction, err.Error())
	}
	if winner == nil {
		// The winner's row should be visible once our transaction rolled
		// back; if it is not, surface the original race error.
		return e.failed(fp, sourceEventID, ReasonTransaction, raceErr.Error())
	}
	return e.skipped(winner, sourceEventID)
}

// outcomeLabel reports the most significant thing the attempt did.
func outcomeLabel(animeCreated, episodeCreated bool) string {
	switch {
	case animeCreated:
		return library.OutcomeAnimeCreated
	case episodeCreated:
		return library.OutcomeEpisodeCreated
	default:
		return library.OutcomeFileLinked
	}
}

// kindFor guesses the work's kind from the episode label. Movies stand
// alone; everything else defaults to a TV series until edited.
func kindFor(number domain.EpisodeNumber) domain.AnimeKind {
	switch number.Special {
	case "Movie", "Film":
		return domain.AnimeKindMovie
	default:
		return domain.AnimeKindTV
	}
}
