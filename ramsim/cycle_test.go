package ramsim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"

	"ramret/arena"
	"ramret/ram"
	"ramret/store"
)

func setupCycle(t *testing.T) (*leveldb.DB, string) {
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db, filepath.Join(dir, "ram.img")
}

// boot opens the image and stands up a fresh power domain over it,
// the way every wake starts.
func boot(t *testing.T, path string) (*SRAM, *Power, *ram.Retainer) {
	g := testGeometry()
	sram, err := OpenSRAM(path, g)
	require.NoError(t, err)
	power := NewPower(g)
	return sram, power, ram.NewRetainer(g, power)
}

func counterRecord(t *testing.T, sram *SRAM, rt *ram.Retainer) *ram.Record[uint32] {
	a, err := arena.New(sram.Geometry(), sram.Bytes())
	require.NoError(t, err)
	rec, err := arena.NewRecord[uint32](a, "boot-counter", rt)
	require.NoError(t, err)
	return rec
}

func TestWakeColdWithoutSnapshot(t *testing.T) {
	db, path := setupCycle(t)
	sram, power, _ := boot(t, path)
	defer sram.Close()

	res, err := Wake(db, sram, power, 1)
	require.NoError(t, err)
	assert.True(t, res.Cold)
	assert.Equal(t, "no snapshot", res.Reason)
	assert.Equal(t, len(sram.Geometry().Spans()), res.Scrambled)
	assert.NotEqual(t, make([]byte, 64), sram.Bytes()[:64])
}

func TestCycleRetainsSealedSections(t *testing.T) {
	db, path := setupCycle(t)

	sram, power, rt := boot(t, path)
	rec := counterRecord(t, sram, rt)
	valid, err := rec.Validate()
	require.NoError(t, err)
	require.False(t, valid)
	require.NoError(t, rec.Set(42))
	// Bytes elsewhere in the retained section ride along under the
	// same seal.
	copy(sram.Bytes()[100:], "stowaway")
	require.NoError(t, SystemOff(db, sram, power))
	require.NoError(t, sram.Close())

	sram, power, rt = boot(t, path)
	defer sram.Close()
	res, err := Wake(db, sram, power, 7)
	require.NoError(t, err)
	require.False(t, res.Cold)
	assert.Equal(t, len(sram.Geometry().Spans())-1, res.Scrambled)

	// Waking consumed the snapshot: a crash from here on cold-boots.
	snapshot, err := store.GetSnapshot(db)
	require.NoError(t, err)
	assert.False(t, snapshot.Clean)

	rec = counterRecord(t, sram, rt)
	valid, err = rec.Validate()
	require.NoError(t, err)
	assert.True(t, valid)
	got, err := rec.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got)
	assert.Equal(t, []byte("stowaway"), sram.Bytes()[100:108])

	// Validation re-asserted retention on the fresh power domain.
	ref, err := sram.Geometry().SectionAt(rec.Addr())
	require.NoError(t, err)
	assert.True(t, power.SectionRetained(ref))
}

func TestCycleScramblesUnretainedSections(t *testing.T) {
	db, path := setupCycle(t)

	sram, power, rt := boot(t, path)
	rec := counterRecord(t, sram, rt)
	// Written but never validated, so no retention bit is set and
	// the snapshot seals nothing.
	require.NoError(t, rec.Set(42))
	require.NoError(t, SystemOff(db, sram, power))
	require.NoError(t, sram.Close())

	sram, power, rt = boot(t, path)
	defer sram.Close()
	res, err := Wake(db, sram, power, 7)
	require.NoError(t, err)
	require.False(t, res.Cold)
	assert.Equal(t, len(sram.Geometry().Spans()), res.Scrambled)

	rec = counterRecord(t, sram, rt)
	valid, err := rec.Validate()
	require.NoError(t, err)
	assert.False(t, valid)
	got, err := rec.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)
}

func TestWakeColdAfterUncleanShutdown(t *testing.T) {
	db, path := setupCycle(t)

	sram, power, _ := boot(t, path)
	require.NoError(t, SystemOff(db, sram, power))
	require.NoError(t, sram.Close())

	// This run wakes cleanly but dies before its own SystemOff.
	sram, power, _ = boot(t, path)
	res, err := Wake(db, sram, power, 3)
	require.NoError(t, err)
	require.False(t, res.Cold)
	require.NoError(t, sram.Close())

	sram, power, _ = boot(t, path)
	defer sram.Close()
	res, err = Wake(db, sram, power, 3)
	require.NoError(t, err)
	assert.True(t, res.Cold)
	assert.Equal(t, "unclean shutdown", res.Reason)
}

func TestWakeColdOnGeometryChange(t *testing.T) {
	db, path := setupCycle(t)

	sram, power, _ := boot(t, path)
	require.NoError(t, SystemOff(db, sram, power))
	require.NoError(t, sram.Close())

	// Same image size, different partitioning.
	altered := testGeometry()
	altered.SmallSectionsPerBlock = 1
	require.NoError(t, altered.Validate())
	sram, err := OpenSRAM(path, altered)
	require.NoError(t, err)
	defer sram.Close()

	res, err := Wake(db, sram, NewPower(altered), 3)
	require.NoError(t, err)
	assert.True(t, res.Cold)
	assert.Equal(t, "geometry changed", res.Reason)
}

func TestWakeColdOnSealMismatch(t *testing.T) {
	db, path := setupCycle(t)

	sram, power, rt := boot(t, path)
	rec := counterRecord(t, sram, rt)
	_, err := rec.Validate()
	require.NoError(t, err)
	require.NoError(t, rec.Set(42))
	require.NoError(t, SystemOff(db, sram, power))
	require.NoError(t, sram.Close())

	sram, power, _ = boot(t, path)
	defer sram.Close()
	// Tamper with a sealed byte before waking.
	sram.Bytes()[0] ^= 0xff
	res, err := Wake(db, sram, power, 3)
	require.NoError(t, err)
	assert.True(t, res.Cold)
	assert.Equal(t, "seal mismatch", res.Reason)
}
