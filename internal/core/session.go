package core

import (
	"context"
	"errors"
	"sync"

	"treasuremap/pkg/domain"
)

// ErrSaveInFlight is returned when a session is asked to save while an
// earlier save has not settled.
var ErrSaveInFlight = errors.New("a save is already in progress for this session")

// Session is one editor: the board being edited, its notes, and the id of
// the stored map it came from (empty for a new map). Only the session
// mutates its board; failed saves leave it untouched.
type Session struct {
	svc *Service

	mu        sync.Mutex
	saving    bool
	editingID string
	data      domain.MapData
	notes     string
}

// NewSession starts an editor on a blank board.
func NewSession(svc *Service) *Session {
	s := &Session{svc: svc}
	s.resetLocked()
	return s
}

func (s *Session) resetLocked() {
	s.editingID = ""
	s.data = domain.NewMapData(domain.NewBlankBoard(), domain.ChestCounts{})
	s.notes = ""
}

// EditingID returns the id of the map being edited, empty for a new map.
func (s *Session) EditingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingID
}

// Snapshot returns a copy of the current payload and notes.
func (s *Session) Snapshot() (domain.MapData, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone(), s.notes
}

// Load replaces the editor contents with a stored map.
func (s *Session) Load(ctx context.Context, id string) (domain.StoredMap, error) {
	m, err := s.svc.Get(ctx, id)
	if err != nil {
		return domain.StoredMap{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingID = m.ID
	s.data = m.MapData.Clone()
	s.notes = m.NotesHTML
	return m, nil
}

// SetBoard replaces the payload and notes, keeping the editing id.
func (s *Session) SetBoard(data domain.MapData, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data.Clone()
	s.notes = notes
}

// Clear returns the editor to a blank new map.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Save inserts the board as a new map, or updates the map being edited.
func (s *Session) Save(ctx context.Context) (domain.StoredMap, error) {
	return s.save(ctx, false)
}

// SaveAsNew always inserts, then switches the session to the new map.
func (s *Session) SaveAsNew(ctx context.Context) (domain.StoredMap, error) {
	return s.save(ctx, true)
}

func (s *Session) save(ctx context.Context, asNew bool) (domain.StoredMap, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return domain.StoredMap{}, ErrSaveInFlight
	}
	s.saving = true
	id, data, notes := s.editingID, s.data.Clone(), s.notes
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	var (
		saved domain.StoredMap
		err   error
	)
	if id == "" || asNew {
		saved, err = s.svc.SaveNew(ctx, data, notes)
	} else {
		saved, err = s.svc.Update(ctx, id, data, notes)
	}
	if err != nil {
		return domain.StoredMap{}, err
	}

	s.mu.Lock()
	s.editingID = saved.ID
	s.mu.Unlock()
	return saved, nil
}
