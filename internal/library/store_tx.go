package library

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"animehub/internal/domain"
)

// Tx exposes the write operations materialization performs inside one
// all-or-nothing transaction. A domain mutation and its ledger record commit
// together or not at all.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// WithTx runs fn inside a transaction. A non-nil error from fn rolls the
// whole transaction back; nothing partial persists.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		sqlTx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = sqlTx.Rollback() }()

		if err := fn(&Tx{ctx: ctx, tx: sqlTx}); err != nil {
			return err
		}
		if err := sqlTx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// CreateAnime inserts a new anime within the transaction.
func (t *Tx) CreateAnime(anime *domain.Anime) error {
	return insertAnime(t.ctx, t.tx, anime)
}

// CreateEpisode inserts a new episode within the transaction.
func (t *Tx) CreateEpisode(episode *domain.Episode) error {
	return insertEpisode(t.ctx, t.tx, episode)
}

// LinkFileToEpisode associates a file with an episode within the
// transaction.
func (t *Tx) LinkFileToEpisode(episodeID, fileID uuid.UUID, role domain.FileRole) error {
	return linkFileToEpisode(t.ctx, t.tx, episodeID, fileID, role)
}

// RecordLedger appends a ledger record within the transaction, failing with
// ErrDuplicateFingerprint when another writer already claimed the
// fingerprint.
func (t *Tx) RecordLedger(record *LedgerRecord) error {
	return insertLedger(t.ctx, t.tx, record)
}

// ListAnime reads all anime within the transaction's snapshot.
func (t *Tx) ListAnime() ([]*domain.Anime, error) {
	return listAnime(t.ctx, t.tx)
}

// FindEpisode locates an anime's episode by number within the transaction's
// snapshot.
func (t *Tx) FindEpisode(animeID uuid.UUID, number domain.EpisodeNumber) (*domain.Episode, error) {
	return findEpisode(t.ctx, t.tx, animeID, number)
}

// GetAnime reads an anime within the transaction's snapshot.
func (t *Tx) GetAnime(id uuid.UUID) (*domain.Anime, error) {
	return getAnime(t.ctx, t.tx, id)
}

// GetEpisode reads an episode within the transaction's snapshot.
func (t *Tx) GetEpisode(id uuid.UUID) (*domain.Episode, error) {
	return getEpisode(t.ctx, t.tx, id)
}

// GetFile reads a file within the transaction's snapshot.
func (t *Tx) GetFile(id uuid.UUID) (*domain.File, error) {
	return getFile(t.ctx, t.tx, id)
}

// ResolveAliasChain follows merge records to the current principal within
// the transaction's snapshot.
func (t *Tx) ResolveAliasChain(id uuid.UUID) (uuid.UUID, error) {
	return resolveAliasChain(t.ctx, t.tx, id)
}
