package store

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var manifestPrefix = Prefixer("manifest")

// ManifestEntry records where a named region lived in the retained
// image, so records can be found again after a wake.
type ManifestEntry struct {
	Name string `json:"name"`
	Addr uint32 `json:"addr"`
	Size uint32 `json:"size"`
}

// GetManifest returns every recorded region in address order.
func GetManifest(db *leveldb.DB) ([]ManifestEntry, error) {
	iter := db.NewIterator(util.BytesPrefix(manifestPrefix()), nil)
	defer iter.Release()
	var entries []ManifestEntry
	for iter.Next() {
		var entry ManifestEntry
		mustUnmarshalJSON(iter.Value(), &entry)
		entries = append(entries, entry)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "error iterating manifest")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Addr < entries[j].Addr
	})
	return entries, nil
}

func GetManifestEntry(db *leveldb.DB, name string) (ManifestEntry, error) {
	var entry ManifestEntry
	entryB, err := db.Get(manifestPrefix(name), nil)
	if err != nil {
		return entry, errors.Wrapf(err, "error getting manifest entry %q", name)
	}
	mustUnmarshalJSON(entryB, &entry)
	return entry, nil
}

// SetManifestTx replaces the stored manifest wholesale. Stale
// entries from a previous layout are dropped first.
func SetManifestTx(tx *leveldb.Transaction, entries []ManifestEntry) error {
	iter := tx.NewIterator(util.BytesPrefix(manifestPrefix()), nil)
	for iter.Next() {
		if err := tx.Delete(iter.Key(), nil); err != nil {
			iter.Release()
			return errors.Wrap(err, "error deleting stale manifest entry")
		}
	}
	iter.Release()
	for _, entry := range entries {
		if err := tx.Put(manifestPrefix(entry.Name), mustMarshalJSON(entry), nil); err != nil {
			return errors.Wrapf(err, "error putting manifest entry %q", entry.Name)
		}
	}
	return nil
}
