package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a map id does not exist.
	ErrNotFound = errors.New("map not found")
	// ErrAlreadyExists is returned by Insert when the id is taken.
	ErrAlreadyExists = errors.New("map already exists")
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid map: " + e.Message
	}
	return fmt.Sprintf("invalid map %s: %s", e.Field, e.Message)
}

// DuplicateError reports that a board matches an already stored map in one
// of its four rotations.
type DuplicateError struct {
	MatchedID string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("this map is a duplicate of map ID: %s", e.MatchedID)
}

// StoreError wraps a failed call to the document store.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// ExhaustedRetriesError is returned when no unused map id could be found.
type ExhaustedRetriesError struct {
	Attempts int
}

func (e ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("failed to generate a unique short ID after %d attempts, please try saving again", e.Attempts)
}

// WrapStore tags err as a store failure unless it already is one. Not-found
// and already-exists keep their identity for errors.Is.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var se StoreError
	if errors.As(err, &se) {
		return err
	}
	return StoreError{Op: op, Err: err}
}
