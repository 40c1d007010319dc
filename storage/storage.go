package storage

import (
	"context"

	"github.com/Seednode/papelito/games/papelito"
)

type Backend interface {
	Scope(scope string) papelito.Persister
	Ping(ctx context.Context) error
	Close() error
}

// New opens the SQLite database at path, or an in-memory backend when path
// is empty.
func New(path string) (Backend, error) {
	if path == "" {
		return NewMemory(), nil
	}

	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return db, nil
}
