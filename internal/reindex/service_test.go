package reindex

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spacevault/ragcore/internal/model"
)

type fakeStore struct {
	mu    sync.Mutex
	ready []*model.Item
	swaps map[string]int64
}

func newFakeStore(ready ...*model.Item) *fakeStore {
	return &fakeStore{ready: ready, swaps: make(map[string]int64)}
}

func (f *fakeStore) ListReadyItems() ([]*model.Item, error) {
	return f.ready, nil
}

func (f *fakeStore) UpdateItemReady(id, text string, vectorRef int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swaps[id] = vectorRef
	return nil
}

type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	failFor string
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failFor != "" && text == f.failFor {
		return nil, errors.New("embedding backend unavailable")
	}
	return []float32{1, 0, 0}, nil
}

type fakeTarget struct {
	mu     sync.Mutex
	nextID int64
	added  map[string][]float32
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{added: make(map[string][]float32)}
}

func (f *fakeTarget) Add(itemID string, vector []float32, spaceID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.added[itemID] = vector
	return id, nil
}

func TestReindexEmptyIsNoop(t *testing.T) {
	svc := New(newFakeStore(), &fakeEmbedder{}, 2, nil)
	report, err := svc.Reindex(context.Background(), newFakeTarget())
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if report.Reindexed != 0 || len(report.Failed) != 0 {
		t.Fatalf("expected an empty report, got %+v", report)
	}
}

func TestReindexMigratesEveryReadyItem(t *testing.T) {
	items := []*model.Item{
		{ID: "item-1", SpaceID: "space-1", Text: "one", Status: model.StatusReady},
		{ID: "item-2", SpaceID: "space-1", Text: "two", Status: model.StatusReady},
		{ID: "item-3", SpaceID: "space-2", Text: "three", Status: model.StatusReady},
	}
	store := newFakeStore(items...)
	embedder := &fakeEmbedder{}
	target := newFakeTarget()
	svc := New(store, embedder, 4, nil)

	report, err := svc.Reindex(context.Background(), target)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if report.Reindexed != 3 || len(report.Failed) != 0 {
		t.Fatalf("expected 3 reindexed and 0 failures, got %+v", report)
	}
	if embedder.calls != 3 {
		t.Fatalf("expected one embed call per item, got %d", embedder.calls)
	}
	for _, it := range items {
		if _, ok := target.added[it.ID]; !ok {
			t.Fatalf("expected %s added to the target index", it.ID)
		}
		if _, ok := store.swaps[it.ID]; !ok {
			t.Fatalf("expected %s's vector_ref swapped in the store", it.ID)
		}
	}
}

func TestReindexCollectsPerItemFailuresWithoutAbortingTheRun(t *testing.T) {
	items := []*model.Item{
		{ID: "item-1", SpaceID: "space-1", Text: "good", Status: model.StatusReady},
		{ID: "item-2", SpaceID: "space-1", Text: "bad", Status: model.StatusReady},
		{ID: "item-3", SpaceID: "space-1", Text: "also-good", Status: model.StatusReady},
	}
	store := newFakeStore(items...)
	embedder := &fakeEmbedder{failFor: "bad"}
	target := newFakeTarget()
	svc := New(store, embedder, 4, nil)

	report, err := svc.Reindex(context.Background(), target)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if report.Reindexed != 2 {
		t.Fatalf("expected 2 successes, got %d", report.Reindexed)
	}
	if len(report.Failed) != 1 || report.Failed[0].ItemID != "item-2" {
		t.Fatalf("expected item-2 to be the sole failure, got %+v", report.Failed)
	}
}

func TestReindexDefaultsWorkersWhenNonPositive(t *testing.T) {
	svc := New(newFakeStore(), &fakeEmbedder{}, 0, nil)
	if svc.workers != DefaultWorkers {
		t.Fatalf("expected workers to default to %d, got %d", DefaultWorkers, svc.workers)
	}
}
