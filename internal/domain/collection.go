package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection is a user-defined grouping of anime. Collections are purely
// organizational and never influence resolution or materialization.
type Collection struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}

// NewCollection constructs a validated Collection.
func NewCollection(name, description string) (*Collection, error) {
	collection := &Collection{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := collection.Validate(); err != nil {
		return nil, err
	}
	return collection, nil
}

// Validate checks the entity's invariants.
func (c *Collection) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invariantf("collection name cannot be empty")
	}
	return nil
}
