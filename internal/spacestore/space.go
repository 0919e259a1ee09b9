package spacestore

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
)

// CreateSpace inserts a new Space owned by userID.
func (s *Store) CreateSpace(userID, name, description string) (*model.Space, error) {
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return nil, ragerr.New("CreateSpace", ragerr.KindInvalidInput, fmt.Errorf("name must be 1-50 chars"))
	}
	if utf8.RuneCountInString(description) > 500 {
		return nil, ragerr.New("CreateSpace", ragerr.KindInvalidInput, fmt.Errorf("description must be <=500 chars"))
	}

	now := time.Now()
	sp := &model.Space{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Insert(sp.ID, sp); err != nil {
		return nil, ragerr.New("CreateSpace", ragerr.KindInternal, err)
	}
	return sp, nil
}

// GetSpace fetches a Space by id, regardless of owner; callers enforce
// ownership by comparing UserID themselves.
func (s *Store) GetSpace(id string) (*model.Space, error) {
	var sp model.Space
	if err := s.db.Get(id, &sp); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, ragerr.New("GetSpace", ragerr.KindNotFound, err)
		}
		return nil, ragerr.New("GetSpace", ragerr.KindInternal, err)
	}
	return &sp, nil
}

// ListSpaces returns every Space owned by userID, newest first.
func (s *Store) ListSpaces(userID string) ([]*model.Space, error) {
	var spaces []*model.Space
	err := s.db.Find(&spaces, badgerhold.Where("UserID").Eq(userID).SortBy("CreatedAt").Reverse())
	if err != nil {
		return nil, ragerr.New("ListSpaces", ragerr.KindInternal, err)
	}
	return spaces, nil
}

// UpdateSpace changes name and/or description; nil leaves the field
// unchanged. Only the owner is expected to call this.
func (s *Store) UpdateSpace(id string, name, description *string) (*model.Space, error) {
	sp, err := s.GetSpace(id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		if *name == "" || utf8.RuneCountInString(*name) > 50 {
			return nil, ragerr.New("UpdateSpace", ragerr.KindInvalidInput, fmt.Errorf("name must be 1-50 chars"))
		}
		sp.Name = *name
	}
	if description != nil {
		if utf8.RuneCountInString(*description) > 500 {
			return nil, ragerr.New("UpdateSpace", ragerr.KindInvalidInput, fmt.Errorf("description must be <=500 chars"))
		}
		sp.Description = *description
	}
	sp.UpdatedAt = time.Now()
	if err := s.db.Update(id, sp); err != nil {
		return nil, ragerr.New("UpdateSpace", ragerr.KindInternal, err)
	}
	return sp, nil
}

// DeleteSpace removes the Space record itself. Cascading deletion of its
// items, files, and vector entries is orchestrated by the space service,
// not here; this store only owns its own table.
func (s *Store) DeleteSpace(id string) error {
	if err := s.db.Delete(id, &model.Space{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil // delete is idempotent/no-op at this layer
		}
		return ragerr.New("DeleteSpace", ragerr.KindInternal, err)
	}
	return nil
}

// ItemCount returns the number of non-deleted items in a space. The count
// is derived at read time, never stored.
func (s *Store) ItemCount(spaceID string) (int, error) {
	n, err := s.db.Count(&model.Item{}, badgerhold.Where("SpaceID").Eq(spaceID))
	if err != nil {
		return 0, ragerr.New("ItemCount", ragerr.KindInternal, err)
	}
	return int(n), nil
}
