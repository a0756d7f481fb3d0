package domain

import (
	"context"
	"fmt"
	"strings"
)

// Direction selects the neighbour a map is swapped with when reordering.
type Direction string

// Reorder directions. Up moves towards lower sort orders.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up" or "down" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	default:
		return "", ValidationError{Field: "direction", Message: fmt.Sprintf("unknown direction %q", s)}
	}
}

// MapStore is the document store holding saved maps. Implementations return
// clones so callers never share state with the store.
type MapStore interface {
	// FetchBySignature lists maps in the group ordered by ascending sort
	// order, leaving out excludeID when it is non-empty.
	FetchBySignature(ctx context.Context, sig ChestSignature, excludeID string) ([]StoredMap, error)
	// FetchByID returns ErrNotFound when the id is unknown.
	FetchByID(ctx context.Context, id string) (StoredMap, error)
	// FetchAll lists every map ordered by signature, then sort order.
	FetchAll(ctx context.Context) ([]StoredMap, error)
	// MaxSortOrder reports the largest sort order in the group; ok is false
	// for an empty group.
	MaxSortOrder(ctx context.Context, sig ChestSignature) (max int, ok bool, err error)
	Exists(ctx context.Context, id string) (bool, error)
	// Insert stores m under m.ID and fails with ErrAlreadyExists when taken.
	Insert(ctx context.Context, m StoredMap) error
	// Update applies mutator to the stored document and saves the result.
	Update(ctx context.Context, id string, mutator func(*StoredMap) error) (StoredMap, error)
	Delete(ctx context.Context, id string) error
	// Neighbor finds the adjacent map in the group: the greatest sort order
	// below sortOrder for up, the smallest above it for down.
	Neighbor(ctx context.Context, sig ChestSignature, sortOrder int, dir Direction) (StoredMap, bool, error)
	// SwapSortOrder exchanges the sort orders of two maps.
	SwapSortOrder(ctx context.Context, idA, idB string) error
	Driver() string
	Close() error
}
