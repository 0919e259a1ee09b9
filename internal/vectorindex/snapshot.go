package vectorindex

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/spacevault/ragcore/internal/ragerr"
)

// snapshotEntry is the gob-serializable form of entry; gob only encodes
// exported fields, so the on-disk shape is kept separate from the
// in-memory one.
type snapshotEntry struct {
	ItemID  string
	SpaceID string
	Vector  []float32
}

type snapshotBody struct {
	Dim            int
	Forward        []snapshotEntry
	TombstoneCount int
}

// Open loads an index from path if present, or returns a fresh empty index
// of the given dimension when the path does not yet exist or holds a
// snapshot whose checksum no longer matches. A partial write is discarded,
// never loaded.
func Open(path string, dim int) (*Index, error) {
	idx, err := Load(path)
	if err != nil {
		if ragerr.Is(err, ragerr.KindNotFound) || ragerr.Is(err, ragerr.KindCorrupt) {
			idx = New(dim)
			idx.path = path
			return idx, nil
		}
		return nil, err
	}
	idx.path = path
	return idx, nil
}

// Load restores the working copy from the snapshot at path. A missing
// snapshot reports KindNotFound; a present-but-truncated or
// checksum-mismatched file reports KindCorrupt.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ragerr.New("Load", ragerr.KindNotFound, err)
		}
		return nil, ragerr.New("Load", ragerr.KindInternal, err)
	}

	if len(raw) < 8 {
		return nil, ragerr.New("Load", ragerr.KindCorrupt, fmt.Errorf("snapshot too small"))
	}
	payload := raw[:len(raw)-8]
	wantSum := binary.BigEndian.Uint64(raw[len(raw)-8:])
	gotSum := xxhash.Sum64(payload)
	if gotSum != wantSum {
		return nil, ragerr.New("Load", ragerr.KindCorrupt, fmt.Errorf("checksum mismatch: snapshot is truncated or damaged"))
	}

	var body snapshotBody
	dec := gob.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&body); err != nil {
		return nil, ragerr.New("Load", ragerr.KindCorrupt, err)
	}

	idx := &Index{
		dim:            body.Dim,
		reverse:        make(map[string]int, len(body.Forward)),
		forward:        make([]entry, len(body.Forward)),
		tombstoneCount: body.TombstoneCount,
	}
	for i, se := range body.Forward {
		idx.forward[i] = entry{itemID: se.ItemID, spaceID: se.SpaceID, vector: se.Vector}
		if se.ItemID != "" {
			idx.reverse[se.ItemID] = i
		}
	}
	return idx, nil
}

// Persist writes a consistent snapshot to the index's configured path.
// The write lands in a temp file in the same directory, is checksummed,
// then renamed over the canonical path so a reader never observes a
// partial file. The snapshot itself is taken under a read lock and copied
// before the (unlocked) disk write, so persist does not block concurrent
// searches for the duration of I/O.
func (idx *Index) Persist() error {
	if idx.path == "" {
		return ragerr.New("Persist", ragerr.KindInvalidInput, fmt.Errorf("index has no configured path"))
	}
	return idx.PersistTo(idx.path)
}

// PersistTo writes a consistent snapshot to an arbitrary path, using the
// same temp-file-then-rename discipline as Persist. It does not change the
// index's own configured path, so a caller building a replacement index out
// of band (the administrative reindex operation) can land it at a
// provisional path and rename over the canonical one only once the rebuild
// fully succeeds.
func (idx *Index) PersistTo(path string) error {
	idx.mu.RLock()
	body := snapshotBody{
		Dim:            idx.dim,
		Forward:        make([]snapshotEntry, len(idx.forward)),
		TombstoneCount: idx.tombstoneCount,
	}
	for i, e := range idx.forward {
		vec := make([]float32, len(e.vector))
		copy(vec, e.vector)
		body.Forward[i] = snapshotEntry{ItemID: e.itemID, SpaceID: e.spaceID, Vector: vec}
	}
	idx.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(body); err != nil {
		return ragerr.New("Persist", ragerr.KindInternal, err)
	}
	sum := xxhash.Sum64(buf.Bytes())

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vectorindex-*.tmp")
	if err != nil {
		return ragerr.New("Persist", ragerr.KindInternal, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return ragerr.New("Persist", ragerr.KindInternal, err)
	}
	var trailer [8]byte
	binary.BigEndian.PutUint64(trailer[:], sum)
	if _, err := tmp.Write(trailer[:]); err != nil {
		tmp.Close()
		return ragerr.New("Persist", ragerr.KindInternal, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ragerr.New("Persist", ragerr.KindInternal, err)
	}
	if err := tmp.Close(); err != nil {
		return ragerr.New("Persist", ragerr.KindInternal, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return ragerr.New("Persist", ragerr.KindInternal, err)
	}
	return nil
}
