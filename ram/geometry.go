// Package ram maps address ranges onto retention-controllable SRAM
// sections and guards retained values with a trailing CRC-32 checksum.
//
// nRF52-family SRAM is partitioned into blocks of two 4 KiB "small"
// sections, followed by a block of 32 KiB "large" sections. Each
// section has its own retention bit in the parent block's POWER.RAM
// register; memory in a section whose bit is clear does not survive
// System OFF.
package ram

import (
	"github.com/pkg/errors"
)

// Geometry describes how an SRAM address space is carved into
// retention-controllable sections.
type Geometry struct {
	// Base is the inclusive start address of SRAM. Size is the total
	// number of bytes; the exclusive end is Base + Size.
	Base uint32
	Size uint32

	SmallSectionSize      uint32
	SmallSectionsPerBlock uint32
	SmallBlockCount       uint32

	LargeSectionSize      uint32
	LargeSectionsPerBlock uint32
}

// maxSectionsPerBlock is fixed by the register layout: POWER.RAM[n]
// carries one retention bit per section in positions 16 through 31.
const maxSectionsPerBlock = 32 - RetentionPos

// DefaultGeometry returns the nRF52840 layout: 256 KiB of SRAM at
// 0x20000000, eight blocks of two 4 KiB sections, then 32 KiB
// sections in the block above them.
func DefaultGeometry() Geometry {
	return Geometry{
		Base:                  0x20000000,
		Size:                  0x40000,
		SmallSectionSize:      4096,
		SmallSectionsPerBlock: 2,
		SmallBlockCount:       8,
		LargeSectionSize:      32768,
		LargeSectionsPerBlock: 16,
	}
}

func (g Geometry) Validate() error {
	if g.Size == 0 {
		return errors.New("geometry has zero size")
	}
	if g.SmallSectionSize == 0 || g.SmallSectionsPerBlock == 0 || g.SmallBlockCount == 0 {
		return errors.New("small section layout is incomplete")
	}
	if g.LargeSectionSize == 0 || g.LargeSectionsPerBlock == 0 {
		return errors.New("large section layout is incomplete")
	}
	if g.SmallSectionsPerBlock > maxSectionsPerBlock || g.LargeSectionsPerBlock > maxSectionsPerBlock {
		return errors.Errorf("blocks support at most %d sections", maxSectionsPerBlock)
	}
	if uint64(g.Base)+uint64(g.Size) > 1<<32 {
		return errors.New("geometry exceeds the 32-bit address space")
	}
	if g.Size%g.SmallSectionSize != 0 {
		return errors.New("size is not a multiple of the small section size")
	}
	// The section walk advances to absolute section_size boundaries,
	// so both regimes must start aligned to their section size.
	if g.Base%g.SmallSectionSize != 0 || g.Base%g.LargeSectionSize != 0 {
		return errors.New("base is not aligned to the section sizes")
	}
	if g.SmallSpan()%g.LargeSectionSize != 0 {
		return errors.New("small span is not aligned to the large section size")
	}
	return nil
}

// SmallBlockSize returns the span of one small block.
func (g Geometry) SmallBlockSize() uint32 {
	return g.SmallSectionsPerBlock * g.SmallSectionSize
}

// SmallSpan returns the total span covered by small sections. Large
// sections begin immediately above it.
func (g Geometry) SmallSpan() uint32 {
	return g.SmallBlockCount * g.SmallBlockSize()
}

func (g Geometry) largeBase() uint64 {
	return uint64(g.Base) + uint64(g.SmallSpan())
}

func (g Geometry) end() uint64 {
	return uint64(g.Base) + uint64(g.Size)
}

// Contains reports whether the given range lies entirely within SRAM.
func (g Geometry) Contains(addr, size uint32) bool {
	return size != 0 &&
		uint64(addr) >= uint64(g.Base) &&
		uint64(addr)+uint64(size) <= g.end()
}

// SectionSpan is one section together with the address range it
// covers. The last span of a geometry may be shorter than its
// section size.
type SectionSpan struct {
	SectionRef
	Addr uint32
	Size uint32
}

// Spans returns every section of the geometry in address order.
func (g Geometry) Spans() []SectionSpan {
	var spans []SectionSpan
	end := g.end()
	a := uint64(g.Base)
	for a < end {
		ref, sectionSize := g.locate(uint32(a))
		next := a + uint64(sectionSize) - a%uint64(sectionSize)
		if next > end {
			next = end
		}
		spans = append(spans, SectionSpan{
			SectionRef: ref,
			Addr:       uint32(a),
			Size:       uint32(next - a),
		})
		a = next
	}
	return spans
}

// BlockCount returns the number of blocks the geometry spans.
func (g Geometry) BlockCount() uint32 {
	spans := g.Spans()
	if len(spans) == 0 {
		return 0
	}
	return spans[len(spans)-1].Block + 1
}
