// Package ports declares the outbound interfaces the game core needs
// from its hosting platform. Adapters live in subpackages.
package ports

import (
	"context"
	"errors"

	"bigtwo/internal/domain"
)

// ErrPartyNotFound is returned by Load for an unknown or expired party.
var ErrPartyNotFound = errors.New("party not found")

// PartyStore persists table snapshots keyed by party code. Writes are
// whole-snapshot and last-write-wins; readers use TableState.Version to
// detect staleness.
type PartyStore interface {
	Load(ctx context.Context, partyID string) (*domain.TableState, error)
	Save(ctx context.Context, t *domain.TableState) error
	Delete(ctx context.Context, partyID string) error
}
