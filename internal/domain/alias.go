package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnimeAlias records a merge: the alias anime has been absorbed into the
// principal. Alias rows are never deleted, they preserve history. Lookups
// against the alias id must follow the chain to the current principal.
type AnimeAlias struct {
	ID          uuid.UUID
	PrincipalID uuid.UUID
	AliasID     uuid.UUID
	CreatedAt   time.Time
}

// NewAnimeAlias constructs a validated alias relationship.
func NewAnimeAlias(principalID, aliasID uuid.UUID) (*AnimeAlias, error) {
	alias := &AnimeAlias{
		ID:          uuid.New(),
		PrincipalID: principalID,
		AliasID:     aliasID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := alias.Validate(); err != nil {
		return nil, err
	}
	return alias, nil
}

// Validate checks the entity's invariants.
func (a *AnimeAlias) Validate() error {
	if a.PrincipalID == uuid.Nil || a.AliasID == uuid.Nil {
		return invariantf("alias requires both a principal and an alias anime")
	}
	if a.PrincipalID == a.AliasID {
		return invariantf("anime cannot be an alias of itself")
	}
	return nil
}
