package ram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *Geometry)
		wantErr bool
	}{
		{
			"default layout",
			func(g *Geometry) {},
			false,
		},
		{
			"zero size",
			func(g *Geometry) { g.Size = 0 },
			true,
		},
		{
			"zero small section size",
			func(g *Geometry) { g.SmallSectionSize = 0 },
			true,
		},
		{
			"zero large sections per block",
			func(g *Geometry) { g.LargeSectionsPerBlock = 0 },
			true,
		},
		{
			"too many sections per block",
			func(g *Geometry) { g.LargeSectionsPerBlock = 17 },
			true,
		},
		{
			"size not section aligned",
			func(g *Geometry) { g.Size += 100 },
			true,
		},
		{
			"base not section aligned",
			func(g *Geometry) { g.Base += 0x100 },
			true,
		},
		{
			"end past 32-bit space",
			func(g *Geometry) { g.Base = 0xffff8000; g.Size = 0x10000 },
			true,
		},
		{
			"small span not aligned to large sections",
			func(g *Geometry) { g.Base = 0; g.LargeSectionSize = 49152 },
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DefaultGeometry()
			tt.mutate(&g)
			err := g.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGeometrySpans(t *testing.T) {
	g := DefaultGeometry()
	spans := g.Spans()

	// 16 small sections, then 192 KiB of 32 KiB large sections.
	require.Equal(t, 22, len(spans))

	addr := g.Base
	for i, span := range spans {
		assert.Equal(t, addr, span.Addr, "span %d not contiguous", i)
		if i < 16 {
			assert.Equal(t, g.SmallSectionSize, span.Size)
			assert.Equal(t, uint32(i/2), span.Block)
			assert.Equal(t, uint32(i%2), span.Section)
		} else {
			assert.Equal(t, g.LargeSectionSize, span.Size)
			assert.Equal(t, uint32(8), span.Block)
			assert.Equal(t, uint32(i-16), span.Section)
		}
		assert.Equal(t, uint32(1)<<(span.Section+RetentionPos), span.Mask)
		addr += span.Size
	}
	assert.Equal(t, uint64(addr), g.end())
}

func TestGeometrySpansTruncated(t *testing.T) {
	g := DefaultGeometry()
	g.Size = g.SmallSpan() + 16384

	spans := g.Spans()
	require.Equal(t, 17, len(spans))
	last := spans[len(spans)-1]
	assert.Equal(t, uint32(8), last.Block)
	assert.Equal(t, uint32(0), last.Section)
	assert.Equal(t, uint32(16384), last.Size)
}

func TestGeometryBlockCount(t *testing.T) {
	g := DefaultGeometry()
	assert.Equal(t, uint32(9), g.BlockCount())

	small := g
	small.Size = 32768
	assert.Equal(t, uint32(4), small.BlockCount())

	// A size spilling past one large block maps onto further large
	// blocks.
	big := g
	big.Size = g.SmallSpan() + 17*g.LargeSectionSize
	assert.Equal(t, uint32(10), big.BlockCount())
}

func TestGeometryContains(t *testing.T) {
	g := DefaultGeometry()
	assert.True(t, g.Contains(g.Base, 1))
	assert.True(t, g.Contains(g.Base, g.Size))
	assert.True(t, g.Contains(g.Base+g.Size-1, 1))
	assert.False(t, g.Contains(g.Base, 0))
	assert.False(t, g.Contains(g.Base-1, 1))
	assert.False(t, g.Contains(g.Base+g.Size, 1))
	assert.False(t, g.Contains(g.Base+g.Size-1, 2))
}
