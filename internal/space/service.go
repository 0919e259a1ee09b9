// Package space implements the Space CRUD surface: create, list, get,
// update, and a cascading delete. It is the thinnest service in the core,
// mostly a pass-through to spacestore, except for Delete, which has to
// orchestrate cleanup across the metadata store, the vector index, and the
// filesystem.
package space

import (
	"log/slog"
	"os"

	"github.com/spacevault/ragcore/internal/layout"
	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
	"github.com/spacevault/ragcore/internal/spacestore"
	"github.com/spacevault/ragcore/internal/vectorindex"
)

// Service owns the space operations for one user.
type Service struct {
	store    *spacestore.Store
	index    *vectorindex.Index
	dataRoot string
	userID   string
	logger   *slog.Logger
}

// New builds a Service over an already-open per-user store and index.
func New(store *spacestore.Store, index *vectorindex.Index, dataRoot, userID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, index: index, dataRoot: dataRoot, userID: userID, logger: logger}
}

// Create inserts a new Space owned by the service's user.
func (s *Service) Create(name, description string) (*model.Space, error) {
	sp, err := s.store.CreateSpace(s.userID, name, description)
	if err != nil {
		return nil, err
	}
	sp.ItemCount = 0
	return sp, nil
}

// List returns every Space owned by the service's user, with item_count
// populated per-space.
func (s *Service) List() ([]*model.Space, error) {
	spaces, err := s.store.ListSpaces(s.userID)
	if err != nil {
		return nil, err
	}
	for _, sp := range spaces {
		n, err := s.store.ItemCount(sp.ID)
		if err != nil {
			return nil, err
		}
		sp.ItemCount = n
	}
	return spaces, nil
}

// Get fetches a single Space, verifying ownership.
func (s *Service) Get(spaceID string) (*model.Space, error) {
	sp, err := s.store.GetSpace(spaceID)
	if err != nil {
		return nil, err
	}
	if sp.UserID != s.userID {
		return nil, ragerr.New("Get", ragerr.KindNotFound, nil)
	}
	n, err := s.store.ItemCount(sp.ID)
	if err != nil {
		return nil, err
	}
	sp.ItemCount = n
	return sp, nil
}

// Update changes name and/or description; nil leaves a field unchanged.
func (s *Service) Update(spaceID string, name, description *string) (*model.Space, error) {
	if _, err := s.Get(spaceID); err != nil {
		return nil, err
	}
	return s.store.UpdateSpace(spaceID, name, description)
}

// Delete removes a Space and cascades to every Item, its extracted file,
// its vector-index entry, and the space's query history. Order: tombstone
// vectors first, then remove files, then delete item rows, then queries,
// then the space row itself, so a crash mid-delete never leaves a vector
// entry or file with no owning Item (the reverse of ingestion's "metadata
// last" ordering, since delete is the undo of add).
func (s *Service) Delete(spaceID string) error {
	sp, err := s.store.GetSpace(spaceID)
	if err != nil {
		if ragerr.Is(err, ragerr.KindNotFound) {
			return nil
		}
		return err
	}
	if sp.UserID != s.userID {
		return nil
	}

	items, err := s.store.ListItems(spaceID, nil)
	if err != nil {
		return err
	}

	for _, it := range items {
		if it.VectorRef != nil {
			if err := s.index.Delete(it.ID); err != nil && !ragerr.Is(err, ragerr.KindNotFound) {
				s.logger.Error("cascade delete: vector tombstone failed", "item_id", it.ID, "error", err)
			}
		}
	}

	filesDir := layout.SpaceFilesDir(s.dataRoot, s.userID, spaceID)
	if err := os.RemoveAll(filesDir); err != nil {
		s.logger.Error("cascade delete: remove files dir failed", "space_id", spaceID, "error", err)
	}

	if _, err := s.store.DeleteItemsInSpace(spaceID); err != nil {
		return err
	}

	if err := s.store.DeleteQueriesInSpace(spaceID); err != nil {
		return err
	}

	if err := s.store.DeleteSpace(spaceID); err != nil {
		return err
	}

	if err := s.index.Persist(); err != nil {
		s.logger.Error("cascade delete: vector index persist failed", "space_id", spaceID, "error", err)
	}

	return nil
}
