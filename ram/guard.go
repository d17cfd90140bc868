package ram

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

// ChecksumSize is the width of the checksum field trailing every
// guarded region.
const ChecksumSize = 4

// checksumResidue is what CRC-32/ISO-HDLC yields over any message
// catenated with its own little-endian CRC. Checking against the
// residue validates a stored checksum without re-slicing the region.
// A zeroed region fails: the CRC of one or more zero bytes is never
// zero, so it cannot match the zeroed checksum field.
const checksumResidue = 0x2144df1c

var ErrRegionTooSmall = errors.New("guarded region too small")

// Memory is a guarded region of retained SRAM: value bytes followed
// by the ChecksumSize-byte checksum field.
type Memory interface {
	Addr() uint32
	Bytes() []byte
}

// Checksum returns the CRC-32/ISO-HDLC checksum of p.
func Checksum(p []byte) uint32 {
	return crc32.ChecksumIEEE(p)
}

// RegionValid reports whether buf currently carries a valid
// checksum, without the zero-on-mismatch or retention side effects
// of ValidateRegion. Inspection tools use it on copies of memory.
func RegionValid(buf []byte) bool {
	// A region must hold at least one value byte. A bare 4-byte
	// checksum field of zeros would otherwise pass the residue check
	// as the valid encoding of an empty message.
	if len(buf) <= ChecksumSize {
		return false
	}
	return Checksum(buf) == checksumResidue
}

// ValidateRegion checks a region's stored checksum. On mismatch the
// entire region is zeroed so stale values cannot leak into a new
// session. Retention is reconfigured whether or not validation
// succeeded: the hardware does not guarantee retention bits survive
// System OFF, so every boot must re-assert them. The verdict is
// meaningful even when a retention error is returned alongside it.
func ValidateRegion(m Memory, rt *Retainer) (bool, error) {
	buf := m.Bytes()
	if len(buf) <= ChecksumSize {
		return false, ErrRegionTooSmall
	}
	valid := RegionValid(buf)
	if !valid {
		for i := range buf {
			buf[i] = 0
		}
	}
	if err := rt.RetainRange(m.Addr(), uint32(len(buf)), true); err != nil {
		return valid, errors.Wrap(err, "error retaining validated region")
	}
	return valid, nil
}

// UpdateRegion recomputes the checksum over the value bytes and
// stores it little-endian. Call it after every modification of the
// value bytes; retention is asserted at validation, not here.
func UpdateRegion(m Memory) error {
	buf := m.Bytes()
	if len(buf) <= ChecksumSize {
		return ErrRegionTooSmall
	}
	crcOff := len(buf) - ChecksumSize
	binary.LittleEndian.PutUint32(buf[crcOff:], Checksum(buf[:crcOff]))
	return nil
}
