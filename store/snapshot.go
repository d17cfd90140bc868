package store

import (
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"ramret/ram"
)

var (
	snapshotPrefix      = Prefixer("snapshot")
	snapshotSealKey     = snapshotPrefix("seal")
	snapshotCleanKey    = snapshotPrefix("clean")
	snapshotShutdownKey = snapshotPrefix("shutdown-at")
	snapshotGeometryKey = snapshotPrefix("geometry")

	retentionPrefix   = Prefixer("retention")
	retentionMasksKey = retentionPrefix("masks")
)

var ErrNoSnapshot = errors.New("no snapshot recorded")

// Snapshot is the metadata written at System OFF. The seal binds
// geometry, retention masks and retained payloads; Clean
// distinguishes an orderly shutdown from a crash.
type Snapshot struct {
	Seal       [32]byte
	Clean      bool
	ShutdownAt time.Time
	Geometry   ram.Geometry
}

func GetSnapshot(db *leveldb.DB) (*Snapshot, error) {
	sealB, err := db.Get(snapshotSealKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, errors.Wrap(err, "error getting snapshot seal")
	}
	snapshot := new(Snapshot)
	if len(sealB) != len(snapshot.Seal) {
		return nil, errors.Errorf("snapshot seal is %d bytes, want %d", len(sealB), len(snapshot.Seal))
	}
	copy(snapshot.Seal[:], sealB)

	cleanB, err := db.Get(snapshotCleanKey, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrap(err, "error getting snapshot clean flag")
	}
	snapshot.Clean = len(cleanB) == 1 && cleanB[0] == 1

	shutB, err := db.Get(snapshotShutdownKey, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrap(err, "error getting snapshot shutdown time")
	}
	if len(shutB) > 0 {
		snapshot.ShutdownAt = time.UnixMilli(mustDecodeInt64(shutB))
	}

	geoB, err := db.Get(snapshotGeometryKey, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrap(err, "error getting snapshot geometry")
	}
	if len(geoB) > 0 {
		mustUnmarshalJSON(geoB, &snapshot.Geometry)
	}
	return snapshot, nil
}

func SetSnapshotTx(tx *leveldb.Transaction, snapshot *Snapshot) error {
	if err := tx.Put(snapshotSealKey, snapshot.Seal[:], nil); err != nil {
		return errors.Wrap(err, "error putting snapshot seal")
	}
	if err := putBool(tx, snapshotCleanKey, snapshot.Clean); err != nil {
		return errors.Wrap(err, "error putting snapshot clean flag")
	}
	if err := tx.Put(snapshotShutdownKey, mustEncodeInt64(snapshot.ShutdownAt.UnixMilli()), nil); err != nil {
		return errors.Wrap(err, "error putting snapshot shutdown time")
	}
	if err := tx.Put(snapshotGeometryKey, mustMarshalJSON(snapshot.Geometry), nil); err != nil {
		return errors.Wrap(err, "error putting snapshot geometry")
	}
	return nil
}

// SetSnapshotCleanTx flips just the clean flag. Wake marks the
// snapshot unclean as soon as it consumes it, so a later crash
// cannot be mistaken for an orderly power-down.
func SetSnapshotCleanTx(tx *leveldb.Transaction, clean bool) error {
	if err := putBool(tx, snapshotCleanKey, clean); err != nil {
		return errors.Wrap(err, "error putting snapshot clean flag")
	}
	return nil
}

// GetRetentionMasks returns the stored per-block retention masks,
// indexed by block. A missing entry means none were ever stored.
func GetRetentionMasks(db *leveldb.DB) ([]uint32, error) {
	masksB, err := db.Get(retentionMasksKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error getting retention masks")
	}
	var masks []uint32
	mustUnmarshalJSON(masksB, &masks)
	return masks, nil
}

func SetRetentionMasksTx(tx *leveldb.Transaction, masks []uint32) error {
	if err := tx.Put(retentionMasksKey, mustMarshalJSON(masks), nil); err != nil {
		return errors.Wrap(err, "error putting retention masks")
	}
	return nil
}

// TruncateSnapshotTx deletes all snapshot, retention and manifest
// state. The next wake after this behaves as a cold boot.
func TruncateSnapshotTx(tx *leveldb.Transaction) error {
	prefixes := [][]byte{
		snapshotPrefix(),
		retentionPrefix(),
		manifestPrefix(),
	}
	for _, prefix := range prefixes {
		iter := tx.NewIterator(util.BytesPrefix(prefix), nil)
		for iter.Next() {
			if err := tx.Delete(iter.Key(), nil); err != nil {
				iter.Release()
				return errors.Wrap(err, "error deleting snapshot key")
			}
		}
		iter.Release()
	}
	return nil
}

func putBool(tx *leveldb.Transaction, key []byte, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	return tx.Put(key, []byte{b}, nil)
}
