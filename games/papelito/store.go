package papelito

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Persister when no record exists for a key.
var ErrNotFound = errors.New("record not found")

// Persister is durable key/value storage for serialized snapshots.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Store owns the canonical GameState. Every change goes through Update or
// Reset, and every change is written to the Persister before returning.
type Store struct {
	mu      sync.RWMutex
	state   GameState
	persist Persister
	report  func(error)
}

// NewStore restores the saved snapshot, or starts from DefaultState when
// there is none. Storage failures are passed to report and never returned.
func NewStore(ctx context.Context, persist Persister, report func(error)) *Store {
	if report == nil {
		report = func(error) {}
	}

	s := &Store{
		state:   DefaultState(),
		persist: persist,
		report:  report,
	}

	if persist == nil {
		return s
	}

	data, err := persist.Load(ctx, StorageKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		report(wrapError(ErrPersistLoad, err))
	default:
		restored, err := Decode(data)
		if err != nil {
			report(wrapError(ErrPersistLoad, err))
			break
		}
		s.state = restored
	}

	return s
}

// Get returns the current snapshot.
func (s *Store) Get() GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone()
}

// Update merges p into the current snapshot and saves the result. It does
// not check game rules.
func (s *Store) Update(ctx context.Context, p Patch) GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.state.Apply(p)
	s.saveLocked(ctx)

	return s.state.Clone()
}

// Reset erases the saved record and returns to DefaultState.
func (s *Store) Reset(ctx context.Context) GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = DefaultState()
	if s.persist != nil {
		if err := s.persist.Delete(ctx, StorageKey); err != nil && !errors.Is(err, ErrNotFound) {
			s.report(wrapError(ErrPersistDelete, err))
		}
	}

	return s.state.Clone()
}

func (s *Store) saveLocked(ctx context.Context) {
	if s.persist == nil {
		return
	}

	data, err := Encode(s.state)
	if err != nil {
		s.report(wrapError(ErrPersistSave, err))
		return
	}

	if err := s.persist.Save(ctx, StorageKey, data); err != nil {
		s.report(wrapError(ErrPersistSave, err))
	}
}

// Encode serializes a snapshot in the persisted layout.
func Encode(s GameState) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a snapshot written by Encode.
func Decode(data []byte) (GameState, error) {
	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return GameState{}, err
	}
	if s.RoundPools == nil {
		s.RoundPools = map[int][]Papelito{}
	}
	return s, nil
}
