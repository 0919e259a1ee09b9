package spacestore

import (
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
)

// InsertPendingItem creates an Item row in StatusPending, ahead of
// extraction and embedding, so that a crash mid-pipeline leaves visible
// evidence rather than a silent gap.
func (s *Store) InsertPendingItem(spaceID string, kind model.Kind, content string, meta model.ItemMetadata) (*model.Item, error) {
	it := &model.Item{
		ID:        uuid.NewString(),
		SpaceID:   spaceID,
		Kind:      kind,
		Content:   content,
		Metadata:  meta,
		CreatedAt: time.Now(),
		Status:    model.StatusPending,
	}
	if err := s.db.Insert(it.ID, it); err != nil {
		return nil, ragerr.New("InsertPendingItem", ragerr.KindInternal, err)
	}
	return it, nil
}

// GetItem fetches an Item by id.
func (s *Store) GetItem(id string) (*model.Item, error) {
	var it model.Item
	if err := s.db.Get(id, &it); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, ragerr.New("GetItem", ragerr.KindNotFound, err)
		}
		return nil, ragerr.New("GetItem", ragerr.KindInternal, err)
	}
	return &it, nil
}

// UpdateItemReady records extracted text and the assigned vector id,
// transitioning the item to StatusReady.
func (s *Store) UpdateItemReady(id, text string, vectorRef int64) error {
	it, err := s.GetItem(id)
	if err != nil {
		return err
	}
	it.Text = text
	it.Status = model.StatusReady
	it.VectorRef = &vectorRef
	it.FailureReason = ""
	if err := s.db.Update(id, it); err != nil {
		return ragerr.New("UpdateItemReady", ragerr.KindInternal, err)
	}
	return nil
}

// UpdateItemFailed records a terminal extraction/embedding failure.
func (s *Store) UpdateItemFailed(id, reason string) error {
	it, err := s.GetItem(id)
	if err != nil {
		return err
	}
	it.Status = model.StatusFailed
	it.FailureReason = reason
	if err := s.db.Update(id, it); err != nil {
		return ragerr.New("UpdateItemFailed", ragerr.KindInternal, err)
	}
	return nil
}

// UpdateItemContent sets the stored content reference for an Item. For a
// file Item this is the on-disk path, filled in once the canonical bytes
// have been written under that Item's own id.
func (s *Store) UpdateItemContent(id, content string) error {
	it, err := s.GetItem(id)
	if err != nil {
		return err
	}
	it.Content = content
	if err := s.db.Update(id, it); err != nil {
		return ragerr.New("UpdateItemContent", ragerr.KindInternal, err)
	}
	return nil
}

// UpdateItemVectorRef swaps an item's vector_ref to a newly assigned
// internal-id, used when a compaction has reassigned the index's ids.
func (s *Store) UpdateItemVectorRef(id string, vectorRef int64) error {
	it, err := s.GetItem(id)
	if err != nil {
		return err
	}
	it.VectorRef = &vectorRef
	if err := s.db.Update(id, it); err != nil {
		return ragerr.New("UpdateItemVectorRef", ragerr.KindInternal, err)
	}
	return nil
}

// UpdateItemNotes replaces the free-form notes field on an item.
func (s *Store) UpdateItemNotes(id, notes string) error {
	it, err := s.GetItem(id)
	if err != nil {
		return err
	}
	it.Notes = notes
	if err := s.db.Update(id, it); err != nil {
		return ragerr.New("UpdateItemNotes", ragerr.KindInternal, err)
	}
	return nil
}

// DeleteItem removes an Item row. Callers are responsible for tombstoning
// the corresponding vector entry and removing any backing file; the vector
// index is never locked while this store is mutating, and vice versa.
func (s *Store) DeleteItem(id string) error {
	if err := s.db.Delete(id, &model.Item{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return ragerr.New("DeleteItem", ragerr.KindInternal, err)
	}
	return nil
}

// ListItems returns every Item in a space, oldest first, optionally
// filtered to a single Status.
func (s *Store) ListItems(spaceID string, status *model.Status) ([]*model.Item, error) {
	q := badgerhold.Where("SpaceID").Eq(spaceID)
	if status != nil {
		q = q.And("Status").Eq(*status)
	}
	var items []*model.Item
	if err := s.db.Find(&items, q.SortBy("CreatedAt")); err != nil {
		return nil, ragerr.New("ListItems", ragerr.KindInternal, err)
	}
	return items, nil
}

// ListItemsPage returns a page of a space's items, oldest first.
func (s *Store) ListItemsPage(spaceID string, limit, offset int) ([]*model.Item, error) {
	if limit <= 0 {
		limit = 20
	}
	q := badgerhold.Where("SpaceID").Eq(spaceID).SortBy("CreatedAt").Skip(offset).Limit(limit)
	var items []*model.Item
	if err := s.db.Find(&items, q); err != nil {
		return nil, ragerr.New("ListItemsPage", ragerr.KindInternal, err)
	}
	return items, nil
}

// ListReadyItems returns every ready Item across every space for this
// user, used by the administrative reindex operation.
func (s *Store) ListReadyItems() ([]*model.Item, error) {
	var items []*model.Item
	err := s.db.Find(&items, badgerhold.Where("Status").Eq(model.StatusReady).SortBy("CreatedAt"))
	if err != nil {
		return nil, ragerr.New("ListReadyItems", ragerr.KindInternal, err)
	}
	return items, nil
}

// DeleteItemsInSpace removes every Item belonging to spaceID and returns
// their ids, so the caller can tombstone the matching vector entries.
func (s *Store) DeleteItemsInSpace(spaceID string) ([]string, error) {
	items, err := s.ListItems(spaceID, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if err := s.db.DeleteMatching(&model.Item{}, badgerhold.Where("SpaceID").Eq(spaceID)); err != nil {
		return nil, ragerr.New("DeleteItemsInSpace", ragerr.KindInternal, err)
	}
	return ids, nil
}
