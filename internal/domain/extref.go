package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExternalReference links a local anime to an entry in an external catalog.
// References are auxiliary: removing one has no structural impact and the
// external source never becomes authoritative over local data.
type ExternalReference struct {
	ID         uuid.UUID
	AnimeID    uuid.UUID
	Source     string
	ExternalID string
	CreatedAt  time.Time
}

// NewExternalReference constructs a validated reference.
func NewExternalReference(animeID uuid.UUID, source, externalID string) (*ExternalReference, error) {
	ref := &ExternalReference{
		ID:         uuid.New(),
		AnimeID:    animeID,
		Source:     source,
		ExternalID: externalID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return ref, nil
}

// Validate checks the entity's invariants.
func (r *ExternalReference) Validate() error {
	if r.AnimeID == uuid.Nil {
		return invariantf("external reference requires an anime")
	}
	if strings.TrimSpace(r.Source) == "" {
		return invariantf("external reference source cannot be empty")
	}
	if strings.TrimSpace(r.ExternalID) == "" {
		return invariantf("external reference id cannot be empty")
	}
	return nil
}
