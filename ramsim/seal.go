package ramsim

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2b"

	"ramret/ram"
)

// sealMagic versions the seal encoding. Changing the layout below
// must change the magic.
const sealMagic = "ramsim/v1"

// Seal binds a snapshot: BLAKE2b-256 over the geometry, every
// block's retention mask, and the payload of every fully retained
// section in address order. Non-retained content stays outside the
// seal, so wake-time scrambling cannot disturb it; any drift in
// geometry, masks or retained bytes invalidates it.
func Seal(geo ram.Geometry, masks []uint32, img []byte) [32]byte {
	h, _ := blake2b.New256(nil)
	if _, err := h.Write([]byte(sealMagic)); err != nil {
		panic(err)
	}
	hashU32(h, geo.Base)
	hashU32(h, geo.Size)
	hashU32(h, geo.SmallSectionSize)
	hashU32(h, geo.SmallSectionsPerBlock)
	hashU32(h, geo.SmallBlockCount)
	hashU32(h, geo.LargeSectionSize)
	hashU32(h, geo.LargeSectionsPerBlock)
	hashU32(h, uint32(len(masks)))
	for _, mask := range masks {
		hashU32(h, mask)
	}
	for _, span := range geo.Spans() {
		if !maskRetained(masks, span.SectionRef) {
			continue
		}
		off := span.Addr - geo.Base
		if _, err := h.Write(img[off : off+span.Size]); err != nil {
			panic(err)
		}
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func maskRetained(masks []uint32, ref ram.SectionRef) bool {
	if ref.Block >= uint32(len(masks)) {
		return false
	}
	return masks[ref.Block]&ref.Mask == ref.Mask
}

func hashU32(h hash.Hash, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := h.Write(buf[:]); err != nil {
		panic(err)
	}
}
