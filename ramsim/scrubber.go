package ramsim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"ramret/log"
	"ramret/service"
)

const (
	DefaultScrubInterval = 30 * time.Second
	DefaultScrubWorkers  = 2
)

// Guarded is anything whose integrity can be re-checked. A failed
// check is expected to reset the value, the way record validation
// does.
type Guarded interface {
	Validate() (bool, error)
}

type scrubEntry struct {
	name string
	g    Guarded
}

// Scrubber periodically re-validates registered records to catch
// corruption between boots. Validation re-asserts retention as a
// side effect, so a scrub pass also repairs dropped retention bits.
type Scrubber struct {
	Interval time.Duration
	Workers  int

	mu      sync.Mutex
	entries []scrubEntry

	failures uint64
	lgr      log.Logger
	quitCh   chan struct{}
	once     sync.Once
}

var _ service.Service = (*Scrubber)(nil)

func NewScrubber() *Scrubber {
	return &Scrubber{
		Interval: DefaultScrubInterval,
		Workers:  DefaultScrubWorkers,
		lgr:      log.WithModule("scrubber"),
		quitCh:   make(chan struct{}),
	}
}

func (s *Scrubber) Register(name string, g Guarded) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, scrubEntry{
		name: name,
		g:    g,
	})
}

// Failures counts records that failed a scrub since startup.
func (s *Scrubber) Failures() uint64 {
	return atomic.LoadUint64(&s.failures)
}

func (s *Scrubber) Start() error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Scrub()
		case <-s.quitCh:
			return nil
		}
	}
}

// Scrub runs one full validation pass. Each record validates
// independently, bounded by the worker count.
func (s *Scrubber) Scrub() {
	s.mu.Lock()
	entries := make([]scrubEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.Unlock()

	workers := int64(s.Workers)
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)
	ctx := context.Background()
	for _, entry := range entries {
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func(entry scrubEntry) {
			defer sem.Release(1)
			valid, err := entry.g.Validate()
			if err != nil {
				s.lgr.Error("error scrubbing record", "name", entry.name, "err", err)
				return
			}
			if !valid {
				atomic.AddUint64(&s.failures, 1)
				s.lgr.Warn("record failed scrub, reset to zero", "name", entry.name)
				return
			}
			s.lgr.Trace("record scrub ok", "name", entry.name)
		}(entry)
	}
	// Drain the pool so a pass finishes before the next starts.
	if err := sem.Acquire(ctx, workers); err != nil {
		return
	}
	sem.Release(workers)
}

func (s *Scrubber) Stop() error {
	s.once.Do(func() {
		close(s.quitCh)
	})
	return nil
}
