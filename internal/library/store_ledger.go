package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const ledgerColumns = "id, fingerprint, event_type, source_event_id, anime_id, episode_id, file_id, outcome, materialized_at"

// RecordLedger appends a ledger record. It fails with
// ErrDuplicateFingerprint when the fingerprint is already present; the
// unique constraint at the storage boundary is what makes concurrent or
// replayed materialization safe.
func (s *Store) RecordLedger(ctx context.Context, record *LedgerRecord) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return insertLedger(ctx, s.db, record)
	})
}

func insertLedger(ctx context.Context, q querier, record *LedgerRecord) error {
	if record == nil {
		return errors.New("ledger record is nil")
	}
	if record.Fingerprint == "" {
		return errors.New("ledger record requires a fingerprint")
	}

	_, err := q.ExecContext(
		ctx,
		`INSERT INTO materialization_ledger (`+ledgerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.String(),
		record.Fingerprint,
		record.EventType,
		record.SourceEventID.String(),
		nullableID(record.AnimeID),
		nullableID(record.EpisodeID),
		nullableID(record.FileID),
		record.Outcome,
		formatTime(record.MaterializedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("fingerprint %s: %w", record.Fingerprint, ErrDuplicateFingerprint)
		}
		return fmt.Errorf("insert ledger record: %w", err)
	}
	return nil
}

// LookupLedger fetches the ledger record for a fingerprint. Missing rows
// yield (nil, nil).
func (s *Store) LookupLedger(ctx context.Context, fp string) (*LedgerRecord, error) {
	return lookupLedger(ensureContext(ctx), s.db, fp)
}

func lookupLedger(ctx context.Context, q querier, fp string) (*LedgerRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM materialization_ledger WHERE fingerprint = ?`, fp)
	record, err := scanLedger(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ledger: %w", err)
	}
	return record, nil
}

// LedgerBySourceEvent returns the records produced by one source event.
func (s *Store) LedgerBySourceEvent(ctx context.Context, eventID uuid.UUID) ([]*LedgerRecord, error) {
	return s.queryLedger(ctx,
		`SELECT `+ledgerColumns+` FROM materialization_ledger WHERE source_event_id = ? ORDER BY materialized_at, id`,
		eventID.String(),
	)
}

// LedgerForAnime returns the records referencing an anime, for audit.
func (s *Store) LedgerForAnime(ctx context.Context, animeID uuid.UUID) ([]*LedgerRecord, error) {
	return s.queryLedger(ctx,
		`SELECT `+ledgerColumns+` FROM materialization_ledger WHERE anime_id = ? ORDER BY materialized_at, id`,
		animeID.String(),
	)
}

// LedgerForEpisode returns the records referencing an episode, for audit.
func (s *Store) LedgerForEpisode(ctx context.Context, episodeID uuid.UUID) ([]*LedgerRecord, error) {
	return s.queryLedger(ctx,
		`SELECT `+ledgerColumns+` FROM materialization_ledger WHERE episode_id = ? ORDER BY materialized_at, id`,
		episodeID.String(),
	)
}

// LedgerForFile returns the records referencing a file, for audit.
func (s *Store) LedgerForFile(ctx context.Context, fileID uuid.UUID) ([]*LedgerRecord, error) {
	return s.queryLedger(ctx,
		`SELECT `+ledgerColumns+` FROM materialization_ledger WHERE file_id = ? ORDER BY materialized_at, id`,
		fileID.String(),
	)
}

// ListLedger returns the most recent records, newest first. A limit of zero
// or less returns everything.
func (s *Store) ListLedger(ctx context.Context, limit int) ([]*LedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + ` FROM materialization_ledger ORDER BY materialized_at DESC, id DESC`
	if limit > 0 {
		return s.queryLedger(ctx, query+` LIMIT ?`, limit)
	}
	return s.queryLedger(ctx, query)
}

// LedgerStats counts ledger records grouped by outcome.
func (s *Store) LedgerStats(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(1) FROM materialization_ledger GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

func (s *Store) queryLedger(ctx context.Context, query string, args ...any) ([]*LedgerRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var records []*LedgerRecord
	for rows.Next() {
		record, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanLedger(scanner interface{ Scan(dest ...any) error }) (*LedgerRecord, error) {
	var (
		idRaw           string
		fp              string
		eventType       string
		sourceEventRaw  string
		animeRaw        sql.NullString
		episodeRaw      sql.NullString
		fileRaw         sql.NullString
		outcome         string
		materializedRaw string
	)

	if err := scanner.Scan(
		&idRaw,
		&fp,
		&eventType,
		&sourceEventRaw,
		&animeRaw,
		&episodeRaw,
		&fileRaw,
		&outcome,
		&materializedRaw,
	); err != nil {
		return nil, err
	}

	record := &LedgerRecord{
		ID:            parseID(idRaw),
		Fingerprint:   fp,
		EventType:     eventType,
		SourceEventID: parseID(sourceEventRaw),
		AnimeID:       parseID(animeRaw.String),
		EpisodeID:     parseID(episodeRaw.String),
		FileID:        parseID(fileRaw.String),
		Outcome:       outcome,
	}
	if materialized, err := parseTimeString(materializedRaw); err == nil {
		record.MaterializedAt = materialized
	}
	return record, nil
}
