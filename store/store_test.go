package store

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
)

func setupLevelDB(t *testing.T) *leveldb.DB {
	db, err := leveldb.OpenFile(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestPrefixer(t *testing.T) {
	base := Prefixer("foo")

	tests := []struct {
		in  []byte
		out string
	}{
		{
			base("bar"),
			"foo/bar",
		},
		{
			base(),
			"foo",
		},
		{
			base(""),
			"foo/",
		},
	}
	for _, tt := range tests {
		require.Equal(t, tt.out, string(tt.in))
	}
}

func TestWithTxCommits(t *testing.T) {
	db := setupLevelDB(t)
	key := []byte("committed")

	err := WithTx(db, func(tx *leveldb.Transaction) error {
		return tx.Put(key, []byte{1}, nil)
	})
	require.NoError(t, err)

	val, err := db.Get(key, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, val)
}

func TestWithTxDiscardsOnError(t *testing.T) {
	db := setupLevelDB(t)
	key := []byte("discarded")
	boom := errors.New("rollback please")

	err := WithTx(db, func(tx *leveldb.Transaction) error {
		if err := tx.Put(key, []byte{1}, nil); err != nil {
			return err
		}
		return boom
	})
	require.Equal(t, boom, err)

	_, err = db.Get(key, nil)
	require.Equal(t, leveldb.ErrNotFound, err)
}
