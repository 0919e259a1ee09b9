package vectorindex

import "sort"

// candidate is an internal search result before the space filter is
// applied; keeping internal-id lets Search break similarity ties
// deterministically.
type candidate struct {
	internalID int
	itemID     string
	spaceID    string
	score      float32
}

// Search returns the top K live, space-scoped hits for queryVector.
// Scores are raw inner products on unit vectors. Ties break by lower
// internal-id. If fewer than K survive filtering, Search returns what it
// has rather than padding the result.
func (idx *Index) Search(queryVector []float32, spaceID string, k int) ([]Hit, error) {
	return idx.search(queryVector, &spaceID, k)
}

// GlobalSearch is Search with no space filter.
func (idx *Index) GlobalSearch(queryVector []float32, k int) ([]Hit, error) {
	return idx.search(queryVector, nil, k)
}

func (idx *Index) search(queryVector []float32, spaceID *string, k int) ([]Hit, error) {
	if len(queryVector) != idx.dim {
		return nil, dimensionMismatch(len(queryVector), idx.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	overFetch := k * 4
	if overFetch < 64 {
		overFetch = 64
	}

	idx.mu.RLock()
	candidates := make([]candidate, 0, len(idx.forward))
	for id, e := range idx.forward {
		if e.itemID == "" {
			continue // tombstoned
		}
		if spaceID != nil && e.spaceID != *spaceID {
			continue
		}
		candidates = append(candidates, candidate{
			internalID: id,
			itemID:     e.itemID,
			spaceID:    e.spaceID,
			score:      dot(queryVector, e.vector),
		})
	}
	idx.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].internalID < candidates[j].internalID
	})

	if len(candidates) > overFetch {
		candidates = candidates[:overFetch]
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	hits := make([]Hit, len(candidates))
	for i, c := range candidates {
		hits[i] = Hit{ItemID: c.itemID, Score: c.score}
	}
	return hits, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
