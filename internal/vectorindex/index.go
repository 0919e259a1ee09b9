// Package vectorindex implements a single on-disk nearest-neighbor
// structure per user. Item-to-space scoping lives in an auxiliary map
// rather than one index per space, so a global search reuses the same
// structure a scoped one does.
//
// The scoring backend is a flat exact-cosine scan over unit vectors. At
// personal-knowledge-base scale an exact scan outperforms a graph index
// and keeps the structure local, with no external vector service to run.
package vectorindex

import (
	"fmt"
	"sync"

	"github.com/spacevault/ragcore/internal/ragerr"
)

// Hit is one scored, space-filtered search result.
type Hit struct {
	ItemID string
	Score  float32
}

type entry struct {
	itemID  string
	spaceID string
	vector  []float32
}

// Index is the per-user vector index. All exported methods are safe for
// concurrent use: Add, Delete and the rebuild in Compact take the write
// lock; Search, GlobalSearch, Len, Refs and the state copy in PersistTo take
// the read lock.
type Index struct {
	mu sync.RWMutex

	dim int

	// forward maps internal-id -> entry; the slice index is the
	// internal-id. A zero-value entry (itemID == "") marks a tombstoned
	// slot.
	forward []entry
	reverse map[string]int // item-id -> internal-id

	tombstoneCount int
	path           string
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{
		dim:     dim,
		reverse: make(map[string]int),
	}
}

// Dim returns the fixed vector dimension this index was built for.
func (idx *Index) Dim() int {
	return idx.dim
}

// Add inserts vector under item_id, scoped to space_id, and returns the
// newly assigned internal-id (vector_ref). The structure is left unchanged
// on any failure.
func (idx *Index) Add(itemID string, vector []float32, spaceID string) (int64, error) {
	if len(vector) != idx.dim {
		return 0, ragerr.New("Add", ragerr.KindInternal, fmt.Errorf("dimension mismatch: got %d, want %d", len(vector), idx.dim))
	}
	if !isUnitNorm(vector) {
		return 0, ragerr.New("Add", ragerr.KindInternal, fmt.Errorf("vector is not unit-normalized"))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.reverse[itemID]; exists {
		return 0, ragerr.New("Add", ragerr.KindConflict, fmt.Errorf("item %q already indexed", itemID))
	}

	id := int64(len(idx.forward))
	cp := make([]float32, len(vector))
	copy(cp, vector)
	idx.forward = append(idx.forward, entry{itemID: itemID, spaceID: spaceID, vector: cp})
	idx.reverse[itemID] = int(id)

	return id, nil
}

// Delete removes item_id from the index. An unknown item_id is a no-op
// reported via KindNotFound, which callers treat as informational.
func (idx *Index) Delete(itemID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	id, ok := idx.reverse[itemID]
	if !ok {
		return ragerr.New("Delete", ragerr.KindNotFound, fmt.Errorf("item %q not indexed", itemID))
	}

	idx.forward[id] = entry{}
	delete(idx.reverse, itemID)
	idx.tombstoneCount++

	return nil
}

// Len returns the number of live (non-tombstoned) entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.reverse)
}

// Refs returns a copy of the live item-id -> internal-id mapping. Callers
// use it to reconcile stored vector_ref values after a compaction has
// reassigned internal-ids.
func (idx *Index) Refs() map[string]int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	refs := make(map[string]int64, len(idx.reverse))
	for itemID, id := range idx.reverse {
		refs[itemID] = int64(id)
	}
	return refs
}

// tombstoneRatio is the compaction trigger fraction. Caller must hold at
// least a read lock.
func (idx *Index) tombstoneRatio() float64 {
	total := len(idx.forward)
	if total == 0 {
		return 0
	}
	return float64(idx.tombstoneCount) / float64(total)
}

func dimensionMismatch(got, want int) error {
	return ragerr.New("search", ragerr.KindInternal, fmt.Errorf("dimension mismatch: got %d, want %d", got, want))
}

func isUnitNorm(v []float32) bool {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	const tolerance = 1e-3
	diff := sumSq - 1.0
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
