package materialize

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"animehub/internal/events"
	"animehub/internal/fingerprint"
	"animehub/internal/library"
	"animehub/internal/logging"
	"animehub/internal/resolution"
)

// MaterializeEpisode applies an aggregated episode resolution: the episode's
// anime and the episode itself are pinned down or created, and the primary
// video plus any subtitles are linked, all in one transaction.
func (e *Engine) MaterializeEpisode(ctx context.Context, group *resolution.EpisodeGroup, sourceEventID uuid.UUID) *Result {
	fp := fingerprint.EpisodeResolution(group.AnimeTitle, group.EpisodeNumber.Label(), group.VideoFileID)

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

		anime, animeCreated, err := e.resolveAnime(tx, group.MatchedAnimeID, group.AnimeTitle, kindFor(group.EpisodeNumber), &pending, group.Confidence)
		if err != nil {
			return err
		}
		episode, episodeCreated, err := e.resolveEpisode(tx, anime, group.MatchedAnimeID, group.MatchedEpisodeID, group.EpisodeNumber, &pending, group.Confidence)
		if err != nil {
			return err
		}

		if group.VideoFileID != uuid.Nil {
			if err := e.linkGroupFile(tx, episode.ID, anime.ID, group.VideoFileID, &pending); err != nil {
				return err
			}
		}
		for _, subtitleID := range group.SubtitleFileIDs {
			if err := e.linkGroupFile(tx, episode.ID, anime.ID, subtitleID, &pending); err != nil {
				return err
			}
		}

		outcome := outcomeLabel(animeCreated, episodeCreated)
		if !animeCreated && !episodeCreated {
			outcome = library.OutcomeEpisodeMatched
		}
		record = &library.LedgerRecord{
			ID:             uuid.New(),
			Fingerprint:    fp,
			EventType:      events.EpisodeResolved{}.EventType(),
			SourceEventID:  sourceEventID,
			AnimeID:        anime.ID,
			EpisodeID:      episode.ID,
			FileID:         group.VideoFileID,
			Outcome:        outcome,
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
	e.log.Info("materialized episode resolution",
		logging.FieldFingerprint, fp,
		logging.FieldAnimeID, record.AnimeID.String(),
		logging.FieldEpisodeID, record.EpisodeID.String(),
		logging.FieldOutcome, record.Outcome,
	)
	return &Result{Status: StatusApplied, Fingerprint: fp, Record: record}
}

func (e *Engine) linkGroupFile(tx *library.Tx, episodeID, animeID, fileID uuid.UUID, pending *[]events.Event) error {
	file, err := tx.GetFile(fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return staleMatch("resolved file " + fileID.String() + " no longer exists")
	}
	if err := tx.LinkFileToEpisode(episodeID, fileID, file.Role); err != nil {
		return err
	}
	*pending = append(*pending, events.FileLinkedToEpisode{
		Meta:      events.NewMeta(),
		FileID:    fileID,
		EpisodeID: episodeID,
		AnimeID:   animeID,
		FileRole:  string(file.Role),
	})
	return nil
}
