package store

import (
	"context"
	"errors"

	"github.com/voyagen/drtvfeed/internal/models"
)

// ErrNotFound is returned when no state has been published for an entity.
var ErrNotFound = errors.New("not found")

// DefaultHistoryLimit bounds History when the caller passes limit <= 0.
const DefaultHistoryLimit = 24

// StateStore is the publish target for refresh runs and the read side of the API.
type StateStore interface {
	// Publish replaces the current state of snap.EntityID and records it in history.
	Publish(ctx context.Context, snap models.Snapshot) error
	// Latest returns the current state of an entity, or ErrNotFound.
	Latest(ctx context.Context, entityID string) (*models.Snapshot, error)
	// History returns up to limit past states, newest first.
	History(ctx context.Context, entityID string, limit int) ([]models.Snapshot, error)
}
