// Package spacestore is the durable, ordered record store for Space, Item,
// and Query records. It is the sole source of truth for identity,
// ownership, timestamps, and item content preview. The backing engine is
// an embedded badgerhold store, one per user directory.
package spacestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/timshannon/badgerhold/v4"
)

// Store owns one badgerhold database for a single user's metadata.
type Store struct {
	db     *badgerhold.Store
	logger *slog.Logger
	userID string
}

// Open opens (creating if absent) the metadata database at
// <dataRoot>/<userID>/metadata.db.
func Open(dataRoot, userID string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Join(dataRoot, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("spacestore: create user dir: %w", err)
	}

	opts := badgerhold.DefaultOptions
	dbPath := filepath.Join(dir, "metadata.db")
	opts.Dir = dbPath
	opts.ValueDir = dbPath
	opts.Logger = nil // badger's own logger is silenced; we log via slog at this layer

	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("spacestore: open badgerhold: %w", err)
	}

	logger.Info("metadata store opened", "user_id", userID, "path", dbPath)

	return &Store{db: db, logger: logger, userID: userID}, nil
}

// Close releases the underlying badger handles.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
