package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
	"github.com/spacevault/ragcore/internal/vectorindex"
)

type fakeStore struct {
	items   map[string]*model.Item
	queries []*model.Query
	seq     int
}

func newFakeStore(items ...*model.Item) *fakeStore {
	s := &fakeStore{items: make(map[string]*model.Item)}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (f *fakeStore) GetItem(id string) (*model.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, ragerr.New("GetItem", ragerr.KindNotFound, nil)
	}
	return it, nil
}

func (f *fakeStore) ListItems(spaceID string, status *model.Status) ([]*model.Item, error) {
	var out []*model.Item
	for _, it := range f.items {
		if it.SpaceID != spaceID {
			continue
		}
		if status != nil && it.Status != *status {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeStore) InsertQuery(spaceID, question, answer string, sources []model.QuerySource) (*model.Query, error) {
	f.seq++
	q := &model.Query{
		ID:        "query-" + string(rune('0'+f.seq)),
		SpaceID:   spaceID,
		Question:  question,
		Answer:    answer,
		Sources:   sources,
		CreatedAt: time.Unix(0, 0),
	}
	f.queries = append(f.queries, q)
	return q, nil
}

func (f *fakeStore) ListQueries(spaceID string, limit, offset int) ([]*model.Query, error) {
	var out []*model.Query
	for _, q := range f.queries {
		if q.SpaceID == spaceID {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeIndex struct {
	hits       []vectorindex.Hit
	globalHits []vectorindex.Hit
	err        error
}

func (f *fakeIndex) Search(queryVector []float32, spaceID string, k int) ([]vectorindex.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeIndex) GlobalSearch(queryVector []float32, k int) ([]vectorindex.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.globalHits, nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeLLM struct {
	answer string
	err    error
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return f.answer, f.err
}

func readyItem(id, spaceID, text string) *model.Item {
	return &model.Item{ID: id, SpaceID: spaceID, Kind: model.KindMessage, Text: text, Status: model.StatusReady}
}

func TestQueryRejectsEmptyAndOversizedQuestion(t *testing.T) {
	e := New(newFakeStore(), &fakeIndex{}, &fakeEmbedder{}, &fakeLLM{})

	if _, err := e.Query(context.Background(), "space-1", "", 0); !ragerr.Is(err, ragerr.KindInvalidInput) {
		t.Fatalf("expected invalid-input for empty question, got %v", err)
	}

	big := strings.Repeat("x", maxQuestionChars+1)
	if _, err := e.Query(context.Background(), "space-1", big, 0); !ragerr.Is(err, ragerr.KindInvalidInput) {
		t.Fatalf("expected invalid-input for oversized question, got %v", err)
	}
}

func TestQueryRejectsSpaceWithNoReadyItems(t *testing.T) {
	e := New(newFakeStore(), &fakeIndex{}, &fakeEmbedder{}, &fakeLLM{})
	if _, err := e.Query(context.Background(), "space-1", "what's in here?", 0); !ragerr.Is(err, ragerr.KindNotFound) {
		t.Fatalf("expected not-found for empty space, got %v", err)
	}
}

func TestQueryHappyPathPersistsGroundedAnswer(t *testing.T) {
	it := readyItem("item-1", "space-1", "the cake recipe needs two eggs and a cup of flour")
	store := newFakeStore(it)
	idx := &fakeIndex{hits: []vectorindex.Hit{{ItemID: "item-1", Score: 0.9}}}
	llm := &fakeLLM{answer: "Two eggs and a cup of flour [source 1]."}
	e := New(store, idx, &fakeEmbedder{vec: []float32{1, 0, 0}}, llm)

	q, err := e.Query(context.Background(), "space-1", "how many eggs?", 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if q.Answer != llm.answer {
		t.Fatalf("expected answer to pass through, got %q", q.Answer)
	}
	if len(q.Sources) != 1 || q.Sources[0].ItemID != "item-1" {
		t.Fatalf("expected one source pointing at item-1, got %+v", q.Sources)
	}
	if len(store.queries) != 1 {
		t.Fatalf("expected query persisted, store has %d", len(store.queries))
	}
}

func TestQueryPropagatesDeadlineExceeded(t *testing.T) {
	it := readyItem("item-1", "space-1", "content")
	store := newFakeStore(it)
	idx := &fakeIndex{hits: []vectorindex.Hit{{ItemID: "item-1", Score: 0.5}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(store, idx, &fakeEmbedder{vec: []float32{1, 0, 0}}, &fakeLLM{answer: "unused"})
	if _, err := e.Query(ctx, "space-1", "question?", 0); !ragerr.Is(err, ragerr.KindDeadlineExceeded) {
		t.Fatalf("expected deadline-exceeded once context is canceled, got %v", err)
	}
}

func TestQueryPassesThroughEmbedderBackendFailure(t *testing.T) {
	it := readyItem("item-1", "space-1", "content")
	store := newFakeStore(it)
	idx := &fakeIndex{hits: []vectorindex.Hit{{ItemID: "item-1", Score: 0.5}}}
	e := New(store, idx, &fakeEmbedder{err: errors.New("503 from provider")}, &fakeLLM{})

	_, err := e.Query(context.Background(), "space-1", "question?", 0)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if ragerr.Is(err, ragerr.KindDeadlineExceeded) {
		t.Fatalf("expected the raw embedder error, not deadline-exceeded, got %v", err)
	}
}

func TestAssembleContextDropsDeletedItemsAndRespectsBudget(t *testing.T) {
	it1 := readyItem("item-1", "space-1", strings.Repeat("a", 100))
	it3 := readyItem("item-3", "space-1", strings.Repeat("b", 100))
	store := newFakeStore(it1, it3) // item-2 absent: simulates a concurrent delete
	e := New(store, &fakeIndex{}, &fakeEmbedder{}, &fakeLLM{})
	// Each block is "[source N] " plus 100 chars = 111 chars: the first fits
	// in 150, the second would bring the total to 223.
	e.contextBudget = 150

	hits := []vectorindex.Hit{
		{ItemID: "item-1", Score: 0.9},
		{ItemID: "item-2", Score: 0.8},
		{ItemID: "item-3", Score: 0.7},
	}
	contextBlock, sources := e.assembleContext(hits)
	if len(sources) != 1 {
		t.Fatalf("expected the missing item dropped and the budget to cap at one source, got %d", len(sources))
	}
	if !strings.HasPrefix(contextBlock, "[source 1]") {
		t.Fatalf("expected a labeled source block, got %q", contextBlock)
	}
}

func TestSearchInSpaceRejectsEmptyText(t *testing.T) {
	e := New(newFakeStore(), &fakeIndex{}, &fakeEmbedder{}, &fakeLLM{})
	if _, err := e.SearchInSpace(context.Background(), "space-1", "", 0); !ragerr.Is(err, ragerr.KindInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
}

func TestGlobalSearchHydratesAcrossSpaces(t *testing.T) {
	it1 := readyItem("item-1", "space-1", "a")
	it2 := readyItem("item-2", "space-2", "b")
	store := newFakeStore(it1, it2)
	idx := &fakeIndex{globalHits: []vectorindex.Hit{
		{ItemID: "item-1", Score: 0.9},
		{ItemID: "item-2", Score: 0.7},
	}}
	e := New(store, idx, &fakeEmbedder{vec: []float32{1, 0, 0}}, &fakeLLM{})

	hits, err := e.GlobalSearch(context.Background(), "find stuff", 0)
	if err != nil {
		t.Fatalf("GlobalSearch: %v", err)
	}
	if len(hits) != 2 || hits[0].SpaceID != "space-1" || hits[1].SpaceID != "space-2" {
		t.Fatalf("expected hits hydrated with their owning space, got %+v", hits)
	}
}

func TestClampK(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultRetrieveK},
		{-5, minRetrieveK},
		{1000, maxRetrieveK},
		{3, 3},
	}
	for _, c := range cases {
		if got := clampK(c.in); got != c.want {
			t.Errorf("clampK(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
