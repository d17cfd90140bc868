package ramsim

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"ramret/log"
	"ramret/ram"
)

const (
	// DefaultFlushPerSec bounds how often hot update paths may sync
	// the image inline. Updates past the limit only mark the image
	// dirty and leave the write to the persister.
	DefaultFlushPerSec = 4
	DefaultFlushBurst  = 1
)

// SRAM is the simulated memory: a flat file of exactly the
// geometry's size, held in memory and written back on flush. Its
// buffer is the arena's backing, so record writes land in the image
// directly.
type SRAM struct {
	geo  ram.Geometry
	path string
	f    *os.File
	buf  []byte

	mu    sync.Mutex
	dirty bool
	lim   *rate.Limiter
	lgr   log.Logger
}

func OpenSRAM(path string, geo ram.Geometry) (*SRAM, error) {
	if err := geo.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid geometry")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, errors.Wrap(err, "error opening image file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "error statting image file")
	}
	if info.Size() == 0 {
		if err := f.Truncate(int64(geo.Size)); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "error sizing image file")
		}
	} else if info.Size() != int64(geo.Size) {
		f.Close()
		return nil, errors.Errorf("image is %d bytes, geometry needs %d", info.Size(), geo.Size)
	}
	buf := make([]byte, geo.Size)
	if _, err := f.ReadAt(buf, 0); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "error reading image file")
	}
	return &SRAM{
		geo:  geo,
		path: path,
		f:    f,
		buf:  buf,
		lim:  rate.NewLimiter(DefaultFlushPerSec, DefaultFlushBurst),
		lgr:  log.WithModule("sram"),
	}, nil
}

func (s *SRAM) Geometry() ram.Geometry {
	return s.geo
}

func (s *SRAM) Path() string {
	return s.path
}

// Bytes exposes the image buffer. Pass it to arena.New as backing.
func (s *SRAM) Bytes() []byte {
	return s.buf
}

func (s *SRAM) SetFlushLimit(perSec float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lim = rate.NewLimiter(rate.Limit(perSec), burst)
}

// MarkDirty notes that the buffer diverged from the file. Within the
// flush limit the write happens inline; past it the persister picks
// the image up on its next sweep.
func (s *SRAM) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	allow := s.lim.Allow()
	s.mu.Unlock()
	if !allow {
		return
	}
	if err := s.Flush(); err != nil {
		s.lgr.Error("error flushing image", "err", err)
	}
}

func (s *SRAM) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush writes the buffer back unconditionally.
func (s *SRAM) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// FlushIfDirty writes the buffer back only if it diverged.
func (s *SRAM) FlushIfDirty() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.flushLocked()
}

func (s *SRAM) flushLocked() error {
	if _, err := s.f.WriteAt(s.buf, 0); err != nil {
		return errors.Wrap(err, "error writing image file")
	}
	if err := s.f.Sync(); err != nil {
		return errors.Wrap(err, "error syncing image file")
	}
	s.dirty = false
	return nil
}

func (s *SRAM) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return errors.Wrap(s.f.Close(), "error closing image file")
}
