package vectorindex

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Snapshot layout, little-endian:
//
//	magic   [4]byte "NTVI"
//	version uint16
//	dim     uint32
//	count   uint64
//	records count × (id int64, vector [dim]float32)
//
// The snapshot is written to a temp file in the same directory and renamed
// into place, so a crash mid-save never leaves a partial file at the
// configured path.

var snapshotMagic = [4]byte{'N', 'T', 'V', 'I'}

const snapshotVersion uint16 = 1

func writeSnapshot(path string, dim int, vectors map[int64][]float32) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vector_index-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot file")
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return errors.Wrap(err, "write snapshot header")
	}
	if err := binary.Write(w, binary.LittleEndian, snapshotVersion); err != nil {
		return errors.Wrap(err, "write snapshot version")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
		return errors.Wrap(err, "write snapshot dimension")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(vectors))); err != nil {
		return errors.Wrap(err, "write snapshot record count")
	}
	for id, vector := range vectors {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return errors.Wrap(err, "write snapshot record id")
		}
		if err := binary.Write(w, binary.LittleEndian, vector); err != nil {
			return errors.Wrap(err, "write snapshot record vector")
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flush snapshot")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "replace snapshot")
	}
	return nil
}

func readSnapshot(path string) (int, map[int64][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, errors.Wrap(err, "read snapshot header")
	}
	if magic != snapshotMagic {
		return 0, nil, errors.New("corrupt snapshot: bad magic")
	}
	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, nil, errors.Wrap(err, "read snapshot version")
	}
	if version != snapshotVersion {
		return 0, nil, errors.Errorf("unsupported snapshot version %d", version)
	}
	var dim uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return 0, nil, errors.Wrap(err, "read snapshot dimension")
	}
	if dim == 0 {
		return 0, nil, errors.New("corrupt snapshot: zero dimension")
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, nil, errors.Wrap(err, "read snapshot record count")
	}

	vectors := make(map[int64][]float32, count)
	for i := uint64(0); i < count; i++ {
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return 0, nil, errors.Wrapf(err, "corrupt snapshot: read record %d id", i)
		}
		vector := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vector); err != nil {
			return 0, nil, errors.Wrapf(err, "corrupt snapshot: read record %d vector", i)
		}
		vectors[id] = vector
	}

	return int(dim), vectors, nil
}
