package ram

import (
	"github.com/pkg/errors"
)

// RetentionPos is the bit position of the first section retention
// bit in a block's POWER.RAM register. Section n's retention bit is
// 1 << (n + RetentionPos).
const RetentionPos = 16

var ErrOutOfRange = errors.New("address range outside retainable memory")

// SectionRef identifies one retention-controllable section: the
// block it belongs to, its index within the block, and the retention
// bit mask to apply to the block's register.
type SectionRef struct {
	Block   uint32
	Section uint32
	Mask    uint32
}

// MapRange returns the sections covering [addr, addr+size), in
// ascending address order with no duplicates. It returns
// ErrOutOfRange if the range is empty or does not lie entirely
// within SRAM.
func (g Geometry) MapRange(addr, size uint32) ([]SectionRef, error) {
	if !g.Contains(addr, size) {
		return nil, ErrOutOfRange
	}
	end := uint64(addr) + uint64(size)
	var refs []SectionRef
	a := uint64(addr)
	for a < end {
		ref, sectionSize := g.locate(uint32(a))
		refs = append(refs, ref)
		// Move to the first address in the next section. A range
		// starting mid-section advances to the boundary, not by a
		// whole section size.
		a += uint64(sectionSize) - a%uint64(sectionSize)
	}
	return refs, nil
}

// SectionAt returns the section containing a single address.
func (g Geometry) SectionAt(addr uint32) (SectionRef, error) {
	refs, err := g.MapRange(addr, 1)
	if err != nil {
		return SectionRef{}, err
	}
	return refs[0], nil
}

// locate resolves the section holding addr, which must lie within
// the geometry. It also returns the section size of the containing
// regime so callers can step to the next boundary.
func (g Geometry) locate(addr uint32) (SectionRef, uint32) {
	blockBase := uint64(g.Base)
	sectionSize := g.SmallSectionSize
	sectionsPerBlock := g.SmallSectionsPerBlock
	var block uint32

	if uint64(addr) >= g.largeBase() {
		block = g.SmallBlockCount
		blockBase = g.largeBase()
		sectionSize = g.LargeSectionSize
		sectionsPerBlock = g.LargeSectionsPerBlock
	}

	section := uint32((uint64(addr) - blockBase) / uint64(sectionSize))
	if section >= sectionsPerBlock {
		block += section / sectionsPerBlock
		section %= sectionsPerBlock
	}

	return SectionRef{
		Block:   block,
		Section: section,
		Mask:    1 << (section + RetentionPos),
	}, sectionSize
}
