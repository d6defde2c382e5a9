// Package vectorindex maintains the authoritative in-memory vector index and
// its durable on-disk snapshot. The index maps 64-bit note vector ids to
// fixed-dimension float32 vectors and supports exact nearest-neighbor search.
package vectorindex

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// DefaultSnapshotInterval is the number of upserts between automatic snapshot
// writes when no interval is configured.
const DefaultSnapshotInterval = 100

// Result is one search hit. Distance is the squared Euclidean (L2) distance
// to the query vector, so smaller is closer.
type Result struct {
	ID       int64
	Distance float32
}

// Index is a single long-lived instance per process. All mutation and
// snapshot I/O is serialized internally; handlers on different consumer
// goroutines share one instance.
type Index struct {
	mu sync.RWMutex

	path             string
	dim              int
	vectors          map[int64][]float32
	opCounter        int
	snapshotInterval int
}

// New loads the snapshot at path if one exists, otherwise starts an empty
// index of the given dimensionality. A present but unreadable snapshot is a
// fatal startup error.
func New(path string, dim int, snapshotInterval int) (*Index, error) {
	if dim <= 0 {
		return nil, errors.Errorf("vector dimension must be positive, got %d", dim)
	}
	if snapshotInterval <= 0 {
		snapshotInterval = DefaultSnapshotInterval
	}

	idx := &Index{
		path:             path,
		dim:              dim,
		vectors:          make(map[int64][]float32),
		snapshotInterval: snapshotInterval,
	}

	if _, err := os.Stat(path); err == nil {
		loadedDim, vectors, err := readSnapshot(path)
		if err != nil {
			return nil, errors.Wrapf(err, "load vector index snapshot from %s", path)
		}
		if loadedDim != dim {
			return nil, errors.Errorf("snapshot dimension %d does not match configured dimension %d", loadedDim, dim)
		}
		idx.vectors = vectors
		slog.Info("loaded vector index snapshot", "path", path, "records", len(vectors), "dim", dim)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat vector index snapshot %s", path)
	} else {
		slog.Info("creating new vector index", "path", path, "dim", dim)
	}

	return idx, nil
}

// Upsert inserts or replaces the vector stored under id. Replacement is
// wholesale: any prior vector for id is removed first, so re-applying the
// same job after redelivery is safe. Every snapshotInterval-th operation
// triggers a full snapshot write, which bounds crash loss to the unsaved
// tail of upserts.
func (idx *Index) Upsert(id int64, vector []float32) error {
	if len(vector) != idx.dim {
		return errors.Errorf("vector dimension %d does not match index dimension %d", len(vector), idx.dim)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Remove existing if any, then add. Absence is not an error.
	delete(idx.vectors, id)
	stored := make([]float32, idx.dim)
	copy(stored, vector)
	idx.vectors[id] = stored

	idx.opCounter++
	if idx.opCounter >= idx.snapshotInterval {
		if err := idx.saveLocked(); err != nil {
			return err
		}
		idx.opCounter = 0
	}
	return nil
}

// Delete removes the vector stored under id if present. Deletes always
// snapshot immediately: a removal must never be lost, unlike an addition.
func (idx *Index) Delete(id int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.vectors, id)
	return idx.saveLocked()
}

// Save writes the full index state to the snapshot path.
func (idx *Index) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.saveLocked()
}

func (idx *Index) saveLocked() error {
	if err := writeSnapshot(idx.path, idx.dim, idx.vectors); err != nil {
		return errors.Wrapf(err, "snapshot vector index to %s", idx.path)
	}
	slog.Info("snapshotted vector index", "path", idx.path, "records", len(idx.vectors))
	return nil
}

// Search returns up to topK record ids ordered by ascending distance to the
// query vector. Fewer than topK results are returned when the index holds
// fewer records; absent slots are simply not reported.
func (idx *Index) Search(query []float32, topK int) ([]Result, error) {
	if len(query) != idx.dim {
		return nil, errors.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dim)
	}
	if topK <= 0 {
		return nil, errors.Errorf("topK must be positive, got %d", topK)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]Result, 0, len(idx.vectors))
	for id, vector := range idx.vectors {
		results = append(results, Result{ID: id, Distance: squaredL2(query, vector)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Size returns the number of records in the index.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimensions returns the fixed vector dimensionality of the index.
func (idx *Index) Dimensions() int {
	return idx.dim
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
