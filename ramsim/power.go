// Package ramsim stands in for the POWER peripheral and the System
// OFF cycle: a software retention register file, a file-backed SRAM
// image, wake-time scrambling of non-retained sections, and a sealed
// snapshot that detects drift between runs.
package ramsim

import (
	"sync"

	"github.com/pkg/errors"

	"ramret/ram"
)

// Power is the simulated retention register file: one mask word per
// block, retention bits at the positions ram.SectionRef.Mask uses.
// Like the hardware register it resets to all-clear at power-on;
// retention must be re-asserted every boot.
type Power struct {
	mu       sync.Mutex
	geo      ram.Geometry
	masks    []uint32
	detached bool
}

var _ ram.PowerController = (*Power)(nil)

func NewPower(geo ram.Geometry) *Power {
	return &Power{
		geo:   geo,
		masks: make([]uint32, geo.BlockCount()),
	}
}

func (p *Power) SetRetention(block, mask uint32, enable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detached {
		return ram.ErrRetentionUnavailable
	}
	if block >= uint32(len(p.masks)) {
		return errors.Errorf("block %d outside geometry", block)
	}
	if enable {
		p.masks[block] |= mask
	} else {
		p.masks[block] &^= mask
	}
	return nil
}

// Detach makes the controller behave like absent hardware until
// Attach is called.
func (p *Power) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached = true
}

func (p *Power) Attach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached = false
}

func (p *Power) RetainedMask(block uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if block >= uint32(len(p.masks)) {
		return 0
	}
	return p.masks[block]
}

// Masks returns a copy of every block's retention mask.
func (p *Power) Masks() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint32, len(p.masks))
	copy(out, p.masks)
	return out
}

func (p *Power) SectionRetained(ref ram.SectionRef) bool {
	return p.RetainedMask(ref.Block)&ref.Mask == ref.Mask
}

// Reset clears every retention bit, as a power-on reset does.
func (p *Power) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.masks {
		p.masks[i] = 0
	}
}
