package ram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionStats struct {
	Boots  uint32
	Faults uint32
	Load   float32
}

func TestRecordSize(t *testing.T) {
	n, err := RecordSize[uint32]()
	require.NoError(t, err)
	assert.Equal(t, uint32(8), n)

	n, err = RecordSize[int64]()
	require.NoError(t, err)
	assert.Equal(t, uint32(12), n)

	n, err = RecordSize[sessionStats]()
	require.NoError(t, err)
	assert.Equal(t, uint32(16), n)
}

func TestRecordSizeNotFixed(t *testing.T) {
	type unbounded struct {
		Name string
	}
	_, err := RecordSize[unbounded]()
	assert.Equal(t, ErrNotFixedSize, err)
}

func TestNewRecordSizeMismatch(t *testing.T) {
	region, rt, _ := newTestRegion(t, 9)
	_, err := NewRecord[uint32](region, rt)
	assert.Error(t, err)
}

func TestRecordSetGet(t *testing.T) {
	region, rt, _ := newTestRegion(t, 8)
	rec, err := NewRecord[uint32](region, rt)
	require.NoError(t, err)

	require.NoError(t, rec.Set(0xdeadbeef))
	got, err := rec.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), got)

	// Values are stored little-endian.
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, region.buf[:4])

	valid, err := rec.Validate()
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestRecordStructPayload(t *testing.T) {
	region, rt, _ := newTestRegion(t, 16)
	rec, err := NewRecord[sessionStats](region, rt)
	require.NoError(t, err)

	want := sessionStats{
		Boots:  3,
		Faults: 1,
		Load:   0.5,
	}
	require.NoError(t, rec.Set(want))

	got, err := rec.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	valid, err := rec.Validate()
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestRecordFreshIsInvalid(t *testing.T) {
	region, rt, _ := newTestRegion(t, 8)
	rec, err := NewRecord[uint32](region, rt)
	require.NoError(t, err)

	valid, err := rec.Validate()
	require.NoError(t, err)
	assert.False(t, valid)

	got, err := rec.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)
}

func TestRecordCounterScenario(t *testing.T) {
	// A four-byte counter at a fixed address: invalid on first boot,
	// then counted up and validated across checks.
	region, rt, pc := newTestRegion(t, 8)
	rec, err := NewRecord[uint32](region, rt)
	require.NoError(t, err)

	valid, err := rec.Validate()
	require.NoError(t, err)
	require.False(t, valid)
	assert.True(t, pc.retained(0, 1<<16))

	for i := uint32(1); i <= 5; i++ {
		cur, err := rec.Get()
		require.NoError(t, err)
		require.NoError(t, rec.Set(cur+1))
		assert.Equal(t, i, mustGet(t, rec))
	}

	valid, err = rec.Validate()
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, uint32(5), mustGet(t, rec))

	// Corruption wipes the counter back to zero.
	region.buf[2] ^= 0xff
	valid, err = rec.Validate()
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, uint32(0), mustGet(t, rec))
}

func mustGet[T any](t *testing.T, rec *Record[T]) T {
	t.Helper()
	v, err := rec.Get()
	require.NoError(t, err)
	return v
}
