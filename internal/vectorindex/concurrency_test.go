package vectorindex

import (
	"fmt"
	"sync"
	"testing"
)

// Eight writers insert disjoint batches while four readers search
// continuously; afterwards every insert must be present exactly once with
// a distinct internal-id.
func TestConcurrentAddAndSearch(t *testing.T) {
	const (
		writers        = 8
		itemsPerWriter = 100
		readers        = 4
	)

	idx := New(3)
	query := unit([]float32{1, 1, 0})
	stop := make(chan struct{})

	var readerWg sync.WaitGroup
	for r := 0; r < readers; r++ {
		readerWg.Add(1)
		go func() {
			defer readerWg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				hits, err := idx.Search(query, "space-a", 5)
				if err != nil {
					t.Errorf("Search: %v", err)
					return
				}
				for _, h := range hits {
					if h.ItemID == "" {
						t.Errorf("search returned an empty item id")
						return
					}
				}
			}
		}()
	}

	ids := make([][]int64, writers)
	var writerWg sync.WaitGroup
	for w := 0; w < writers; w++ {
		writerWg.Add(1)
		go func(w int) {
			defer writerWg.Done()
			for i := 0; i < itemsPerWriter; i++ {
				itemID := fmt.Sprintf("w%d-i%d", w, i)
				id, err := idx.Add(itemID, unit([]float32{1, float32(i + 1), float32(w + 1)}), "space-a")
				if err != nil {
					t.Errorf("Add(%s): %v", itemID, err)
					return
				}
				ids[w] = append(ids[w], id)
			}
		}(w)
	}

	writerWg.Wait()
	close(stop)
	readerWg.Wait()

	if idx.Len() != writers*itemsPerWriter {
		t.Fatalf("expected %d live entries, got %d", writers*itemsPerWriter, idx.Len())
	}

	seen := make(map[int64]bool)
	for _, batch := range ids {
		for _, id := range batch {
			if seen[id] {
				t.Fatalf("internal-id %d assigned twice", id)
			}
			seen[id] = true
		}
	}
}

func TestSearchBreaksScoreTiesByLowerInternalID(t *testing.T) {
	idx := New(3)
	v := unit([]float32{1, 0, 0})
	mustAdd(t, idx, "first", v, "space-a")
	mustAdd(t, idx, "second", v, "space-a")

	hits, err := idx.Search(v, "space-a", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 || hits[0].ItemID != "first" || hits[1].ItemID != "second" {
		t.Fatalf("expected tie broken by insertion order, got %+v", hits)
	}
}

func TestSearchReturnsFewerThanKWithoutPadding(t *testing.T) {
	idx := New(3)
	mustAdd(t, idx, "only", unit([]float32{1, 0, 0}), "space-a")

	hits, err := idx.Search(unit([]float32{1, 0, 0}), "space-a", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit and no padding, got %d", len(hits))
	}
}
