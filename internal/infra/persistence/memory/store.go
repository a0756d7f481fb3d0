// Package memory provides an in-memory MapStore used for tests, ephemeral
// sessions, and as the query engine behind the SQL backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"treasuremap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.MapStore = (*Store)(nil)

// Snapshot captures a point-in-time clone of every stored map.
type Snapshot struct {
	Maps []domain.StoredMap `json:"maps"`
}

// Store keeps map documents keyed by id.
type Store struct {
	mu   sync.RWMutex
	maps map[string]domain.StoredMap
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{maps: make(map[string]domain.StoredMap)}
}

// Driver identifies the backend.
func (s *Store) Driver() string { return "memory" }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ExportState returns a clone of every map ordered by signature, then sort order.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Maps: s.sortedLocked(func(domain.StoredMap) bool { return true })}
}

// ImportState replaces the store contents with snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	maps := make(map[string]domain.StoredMap, len(snapshot.Maps))
	for _, m := range snapshot.Maps {
		maps[m.ID] = m.Clone()
	}
	s.mu.Lock()
	s.maps = maps
	s.mu.Unlock()
}

// Put stores m unconditionally, replacing any map with the same id. The SQL
// backends use it to roll back a change their database refused.
func (s *Store) Put(m domain.StoredMap) {
	s.mu.Lock()
	s.maps[m.ID] = m.Clone()
	s.mu.Unlock()
}

// Remove drops id without reporting whether it existed.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.maps, id)
	s.mu.Unlock()
}

// sortedLocked returns clones of the maps accepted by keep, ordered by
// signature, then sort order, then id.
func (s *Store) sortedLocked(keep func(domain.StoredMap) bool) []domain.StoredMap {
	out := make([]domain.StoredMap, 0, len(s.maps))
	for _, m := range s.maps {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ChestSignature != b.ChestSignature {
			return a.ChestSignature < b.ChestSignature
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
	return out
}

// FetchBySignature lists the group in ascending sort order.
func (s *Store) FetchBySignature(ctx context.Context, sig domain.ChestSignature, excludeID string) ([]domain.StoredMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(m domain.StoredMap) bool {
		return m.ChestSignature == sig && (excludeID == "" || m.ID != excludeID)
	}), nil
}

// FetchByID returns domain.ErrNotFound for an unknown id.
func (s *Store) FetchByID(ctx context.Context, id string) (domain.StoredMap, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredMap{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[id]
	if !ok {
		return domain.StoredMap{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return m.Clone(), nil
}

// FetchAll lists every map.
func (s *Store) FetchAll(ctx context.Context) ([]domain.StoredMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(domain.StoredMap) bool { return true }), nil
}

// MaxSortOrder reports the largest sort order in the group.
func (s *Store) MaxSortOrder(ctx context.Context, sig domain.ChestSignature) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	max, found := 0, false
	for _, m := range s.maps {
		if m.ChestSignature != sig {
			continue
		}
		if !found || m.SortOrder > max {
			max, found = m.SortOrder, true
		}
	}
	return max, found, nil
}

// Exists reports whether id is taken.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.maps[id]
	return ok, nil
}

// Insert stores a new map.
func (s *Store) Insert(ctx context.Context, m domain.StoredMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.ID == "" {
		return domain.ValidationError{Field: "id", Message: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maps[m.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, m.ID)
	}
	s.maps[m.ID] = m.Clone()
	return nil
}

// Update applies mutator to a copy and stores it when mutator succeeds. The
// id cannot be changed.
func (s *Store) Update(ctx context.Context, id string, mutator func(*domain.StoredMap) error) (domain.StoredMap, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredMap{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.maps[id]
	if !ok {
		return domain.StoredMap{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	next := current.Clone()
	if err := mutator(&next); err != nil {
		return domain.StoredMap{}, err
	}
	next.ID = id
	s.maps[id] = next
	return next.Clone(), nil
}

// Delete removes a map.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maps[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	delete(s.maps, id)
	return nil
}

// Neighbor finds the adjacent map of the group in direction dir.
func (s *Store) Neighbor(ctx context.Context, sig domain.ChestSignature, sortOrder int, dir domain.Direction) (domain.StoredMap, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredMap{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  domain.StoredMap
		found bool
	)
	for _, m := range s.maps {
		if m.ChestSignature != sig {
			continue
		}
		switch dir {
		case domain.DirectionUp:
			if m.SortOrder < sortOrder && (!found || m.SortOrder > best.SortOrder) {
				best, found = m, true
			}
		case domain.DirectionDown:
			if m.SortOrder > sortOrder && (!found || m.SortOrder < best.SortOrder) {
				best, found = m, true
			}
		default:
			return domain.StoredMap{}, false, domain.ValidationError{Field: "direction", Message: fmt.Sprintf("unknown direction %q", dir)}
		}
	}
	if !found {
		return domain.StoredMap{}, false, nil
	}
	return best.Clone(), true, nil
}

// SwapSortOrder exchanges two sort orders under one lock.
func (s *Store) SwapSortOrder(ctx context.Context, idA, idB string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.maps[idA]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, idA)
	}
	b, ok := s.maps[idB]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, idB)
	}
	a.SortOrder, b.SortOrder = b.SortOrder, a.SortOrder
	s.maps[idA] = a
	s.maps[idB] = b
	return nil
}
