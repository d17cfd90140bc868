package ram

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFixedSize is returned for record types encoding/binary
// cannot size statically, such as types containing slices, maps or
// strings.
var ErrNotFixedSize = errors.New("record type is not fixed-size")

// RecordSize returns the guarded region size needed for a record of
// T: the little-endian encoding of T plus the checksum field.
func RecordSize[T any]() (uint32, error) {
	var zero T
	n := binary.Size(zero)
	if n < 0 {
		return 0, ErrNotFixedSize
	}
	return uint32(n) + ChecksumSize, nil
}

// Record is a typed view over a guarded region. Values encode
// little-endian, matching the checksum field's byte order. Records
// are safe for concurrent use, so a scrub pass can re-validate one
// while its owner updates it.
type Record[T any] struct {
	mu  sync.Mutex
	mem Memory
	rt  *Retainer
	n   int
}

// NewRecord wraps a guarded region whose size must match
// RecordSize[T] exactly.
func NewRecord[T any](m Memory, rt *Retainer) (*Record[T], error) {
	var zero T
	n := binary.Size(zero)
	if n < 0 {
		return nil, ErrNotFixedSize
	}
	if len(m.Bytes()) != n+ChecksumSize {
		return nil, errors.Errorf("region holds %d bytes, record needs %d", len(m.Bytes()), n+ChecksumSize)
	}
	return &Record[T]{
		mem: m,
		rt:  rt,
		n:   n,
	}, nil
}

// Get decodes the current value bytes. A freshly zeroed record
// decodes to the zero value of T.
func (r *Record[T]) Get() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var v T
	buf := r.mem.Bytes()
	if err := binary.Read(bytes.NewReader(buf[:r.n]), binary.LittleEndian, &v); err != nil {
		return v, errors.Wrap(err, "error decoding record value")
	}
	return v, nil
}

// Set encodes v into the value bytes and refreshes the checksum.
func (r *Record[T]) Set(v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := r.mem.Bytes()
	w := bytes.NewBuffer(buf[:0])
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return errors.Wrap(err, "error encoding record value")
	}
	return UpdateRegion(r.mem)
}

// Validate checks the record's checksum, zeroing it on mismatch and
// re-asserting retention either way.
func (r *Record[T]) Validate() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ValidateRegion(r.mem, r.rt)
}

// Update refreshes the checksum over the current value bytes.
func (r *Record[T]) Update() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return UpdateRegion(r.mem)
}

func (r *Record[T]) Addr() uint32 {
	return r.mem.Addr()
}

func (r *Record[T]) Size() uint32 {
	return uint32(len(r.mem.Bytes()))
}
