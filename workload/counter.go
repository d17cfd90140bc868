// Package workload holds the demo services that exercise retained
// records: a boot counter, a powered-on time accumulator and a
// session stats block. Each one validates its record at startup and
// keeps the image dirty-marked as it writes.
package workload

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"ramret/log"
	"ramret/ram"
	"ramret/service"
)

const DefaultCounterInterval = 100 * time.Millisecond

// Image is the mutable memory the records live in. Workloads mark
// it dirty after every write so the persister sweeps it to disk.
type Image interface {
	MarkDirty()
}

// Counter increments a retained uint32 on a ticker. Across an
// orderly power cycle the count keeps climbing; after corruption or
// a cold boot it restarts from zero.
type Counter struct {
	Interval time.Duration
	rec      *ram.Record[uint32]
	img      Image
	lgr      log.Logger
	quitCh   chan struct{}
	once     sync.Once
}

var _ service.Service = (*Counter)(nil)

func NewCounter(rec *ram.Record[uint32], img Image) *Counter {
	return &Counter{
		Interval: DefaultCounterInterval,
		rec:      rec,
		img:      img,
		lgr:      log.WithModule("counter"),
		quitCh:   make(chan struct{}),
	}
}

func (c *Counter) Record() *ram.Record[uint32] {
	return c.rec
}

func (c *Counter) Start() error {
	valid, err := c.rec.Validate()
	if err != nil {
		return errors.Wrap(err, "error validating counter record")
	}
	count, err := c.rec.Get()
	if err != nil {
		return errors.Wrap(err, "error reading counter record")
	}
	if valid {
		c.lgr.Info("counter survived power cycle", "count", count)
	} else {
		c.lgr.Info("counter reset, starting from zero")
	}

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.increment(); err != nil {
				c.lgr.Error("error incrementing counter", "err", err)
			}
		case <-c.quitCh:
			return nil
		}
	}
}

func (c *Counter) increment() error {
	count, err := c.rec.Get()
	if err != nil {
		return err
	}
	if err := c.rec.Set(count + 1); err != nil {
		return err
	}
	c.img.MarkDirty()
	c.lgr.Trace("incremented counter", "count", count+1)
	return nil
}

func (c *Counter) Stop() error {
	c.once.Do(func() {
		close(c.quitCh)
	})
	return nil
}
