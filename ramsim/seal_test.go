package ramsim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealDeterministic(t *testing.T) {
	g := testGeometry()
	img := make([]byte, g.Size)
	rand.New(rand.NewSource(1)).Read(img)
	masks := make([]uint32, g.BlockCount())
	masks[0] = 1 << 16

	assert.Equal(t, Seal(g, masks, img), Seal(g, masks, img))
}

func TestSealCoversMasks(t *testing.T) {
	g := testGeometry()
	img := make([]byte, g.Size)
	masks := make([]uint32, g.BlockCount())
	masks[0] = 1 << 16
	before := Seal(g, masks, img)

	masks[1] = 1 << 17
	assert.NotEqual(t, before, Seal(g, masks, img))
}

func TestSealCoversRetainedPayload(t *testing.T) {
	g := testGeometry()
	img := make([]byte, g.Size)
	masks := make([]uint32, g.BlockCount())
	masks[0] = 1 << 16
	before := Seal(g, masks, img)

	// Section 0 of block 0 is retained, so its bytes are sealed.
	img[100] = 0xff
	assert.NotEqual(t, before, Seal(g, masks, img))
}

func TestSealIgnoresUnretainedPayload(t *testing.T) {
	g := testGeometry()
	img := make([]byte, g.Size)
	masks := make([]uint32, g.BlockCount())
	masks[0] = 1 << 16
	before := Seal(g, masks, img)

	// The second small section is not retained. Garbage there must
	// not disturb the seal, or scrambling would break every wake.
	off := g.SmallSectionSize
	rand.New(rand.NewSource(2)).Read(img[off : off+g.SmallSectionSize])
	assert.Equal(t, before, Seal(g, masks, img))
}

func TestSealCoversGeometry(t *testing.T) {
	g := testGeometry()
	img := make([]byte, g.Size)
	masks := make([]uint32, g.BlockCount())
	before := Seal(g, masks, img)

	altered := g
	altered.SmallSectionsPerBlock = 1
	require.NoError(t, altered.Validate())
	assert.NotEqual(t, before, Seal(altered, masks, img))
}
