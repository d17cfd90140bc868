// Package arena hands out named guarded regions from a single
// retained memory image.
package arena

import (
	"github.com/pkg/errors"

	"ramret/ram"
)

var ErrArenaFull = errors.New("arena exhausted")

// regionAlign keeps region starts 4-byte aligned, matching the
// alignment the original placements had.
const regionAlign = 4

type Arena struct {
	geo     ram.Geometry
	buf     []byte
	next    uint32
	regions []*Region
	byName  map[string]*Region
}

// Region is one allocation of the arena. It implements ram.Memory;
// the slice is capped so writes cannot spill into a neighbor.
type Region struct {
	name string
	addr uint32
	buf  []byte
}

var _ ram.Memory = (*Region)(nil)

func (r *Region) Name() string {
	return r.name
}

func (r *Region) Addr() uint32 {
	return r.addr
}

func (r *Region) Bytes() []byte {
	return r.buf
}

type RegionInfo struct {
	Name string
	Addr uint32
	Size uint32
}

// New builds an arena over backing, which must be exactly geo.Size
// bytes. A nil backing allocates a fresh zeroed buffer.
func New(geo ram.Geometry, backing []byte) (*Arena, error) {
	if err := geo.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid geometry")
	}
	if backing == nil {
		backing = make([]byte, geo.Size)
	}
	if uint64(len(backing)) != uint64(geo.Size) {
		return nil, errors.Errorf("backing holds %d bytes, geometry needs %d", len(backing), geo.Size)
	}
	return &Arena{
		geo:    geo,
		buf:    backing,
		byName: make(map[string]*Region),
	}, nil
}

func (a *Arena) Geometry() ram.Geometry {
	return a.geo
}

// Alloc bump-allocates a named region of the given size.
func (a *Arena) Alloc(name string, size uint32) (*Region, error) {
	if name == "" {
		return nil, errors.New("region name is empty")
	}
	if size == 0 {
		return nil, errors.New("region size is zero")
	}
	if _, ok := a.byName[name]; ok {
		return nil, errors.Errorf("region %q already allocated", name)
	}
	off := (a.next + regionAlign - 1) &^ uint32(regionAlign-1)
	if uint64(off)+uint64(size) > uint64(a.geo.Size) {
		return nil, ErrArenaFull
	}
	r := &Region{
		name: name,
		addr: a.geo.Base + off,
		buf:  a.buf[off : off+size : off+size],
	}
	a.next = off + size
	a.regions = append(a.regions, r)
	a.byName[name] = r
	return r, nil
}

// Region returns a previously allocated region by name.
func (a *Arena) Region(name string) (*Region, bool) {
	r, ok := a.byName[name]
	return r, ok
}

// Manifest lists every allocation in address order.
func (a *Arena) Manifest() []RegionInfo {
	infos := make([]RegionInfo, 0, len(a.regions))
	for _, r := range a.regions {
		infos = append(infos, RegionInfo{
			Name: r.name,
			Addr: r.addr,
			Size: uint32(len(r.buf)),
		})
	}
	return infos
}

// Bytes exposes the whole backing image.
func (a *Arena) Bytes() []byte {
	return a.buf
}

func (a *Arena) Used() uint32 {
	return a.next
}

func (a *Arena) Free() uint32 {
	return a.geo.Size - a.next
}

// Reset zeroes the backing and drops all allocations.
func (a *Arena) Reset() {
	for i := range a.buf {
		a.buf[i] = 0
	}
	a.next = 0
	a.regions = nil
	a.byName = make(map[string]*Region)
}

// NewRecord allocates a region sized for T and wraps it in a typed
// record.
func NewRecord[T any](a *Arena, name string, rt *ram.Retainer) (*ram.Record[T], error) {
	size, err := ram.RecordSize[T]()
	if err != nil {
		return nil, err
	}
	region, err := a.Alloc(name, size)
	if err != nil {
		return nil, errors.Wrapf(err, "error allocating record %q", name)
	}
	return ram.NewRecord[T](region, rt)
}
