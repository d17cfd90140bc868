package workload

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"ramret/log"
	"ramret/ram"
	"ramret/service"
)

// SessionStats is a composite retained payload: a boot count, a
// count of boots where the previous snapshot could not be trusted,
// and a smoothed session length in seconds.
type SessionStats struct {
	Boots  uint32
	Faults uint32
	Load   float32
}

// Stats folds per-session facts into a retained SessionStats at
// startup and records the session length on shutdown.
type Stats struct {
	rec     *ram.Record[SessionStats]
	img     Image
	fault   bool
	startAt time.Time
	lgr     log.Logger
	quitCh  chan struct{}
	once    sync.Once
}

var _ service.Service = (*Stats)(nil)

// NewStats marks this boot as faulted when the previous session's
// snapshot existed but could not be used, which is how a crash or
// tampering shows up at wake.
func NewStats(rec *ram.Record[SessionStats], img Image, fault bool) *Stats {
	return &Stats{
		rec:    rec,
		img:    img,
		fault:  fault,
		lgr:    log.WithModule("stats"),
		quitCh: make(chan struct{}),
	}
}

func (s *Stats) Record() *ram.Record[SessionStats] {
	return s.rec
}

func (s *Stats) Start() error {
	valid, err := s.rec.Validate()
	if err != nil {
		return errors.Wrap(err, "error validating stats record")
	}
	stats, err := s.rec.Get()
	if err != nil {
		return errors.Wrap(err, "error reading stats record")
	}
	if valid {
		s.lgr.Info("stats survived power cycle",
			"boots", stats.Boots,
			"faults", stats.Faults,
			"load", stats.Load,
		)
	} else {
		s.lgr.Info("stats reset, starting from zero")
	}

	stats.Boots++
	if s.fault {
		stats.Faults++
	}
	if err := s.rec.Set(stats); err != nil {
		return errors.Wrap(err, "error writing stats record")
	}
	s.img.MarkDirty()
	s.startAt = time.Now()

	<-s.quitCh
	if err := s.foldSession(); err != nil {
		s.lgr.Error("error folding session stats", "err", err)
	}
	return nil
}

// foldSession smooths this session's length into Load so the stored
// value tracks how long the device typically stays up.
func (s *Stats) foldSession() error {
	stats, err := s.rec.Get()
	if err != nil {
		return err
	}
	secs := float32(time.Since(s.startAt).Seconds())
	stats.Load = 0.8*stats.Load + 0.2*secs
	if err := s.rec.Set(stats); err != nil {
		return err
	}
	s.img.MarkDirty()
	return nil
}

func (s *Stats) Stop() error {
	s.once.Do(func() {
		close(s.quitCh)
	})
	return nil
}
