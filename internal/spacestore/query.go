package spacestore

import (
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
)

// InsertQuery appends a finished Query record. Queries are never mutated
// or deleted as a side effect of Item deletion (history outlasts the
// items it was asked about) and only disappear when their whole Space is
// deleted.
func (s *Store) InsertQuery(spaceID, question, answer string, sources []model.QuerySource) (*model.Query, error) {
	q := &model.Query{
		ID:        uuid.NewString(),
		SpaceID:   spaceID,
		Question:  question,
		Answer:    answer,
		Sources:   sources,
		CreatedAt: time.Now(),
	}
	if err := s.db.Insert(q.ID, q); err != nil {
		return nil, ragerr.New("InsertQuery", ragerr.KindInternal, err)
	}
	return q, nil
}

// DeleteQueriesInSpace removes every Query belonging to spaceID, as part
// of a space deletion cascade. Item deletion never calls this; a Query
// only disappears when its whole Space does.
func (s *Store) DeleteQueriesInSpace(spaceID string) error {
	if err := s.db.DeleteMatching(&model.Query{}, badgerhold.Where("SpaceID").Eq(spaceID)); err != nil {
		return ragerr.New("DeleteQueriesInSpace", ragerr.KindInternal, err)
	}
	return nil
}

// ListQueries returns a page of a space's query history, newest first.
func (s *Store) ListQueries(spaceID string, limit, offset int) ([]*model.Query, error) {
	if limit <= 0 {
		limit = 20
	}
	var queries []*model.Query
	q := badgerhold.Where("SpaceID").Eq(spaceID).SortBy("CreatedAt").Reverse().Skip(offset).Limit(limit)
	if err := s.db.Find(&queries, q); err != nil {
		return nil, ragerr.New("ListQueries", ragerr.KindInternal, err)
	}
	return queries, nil
}
