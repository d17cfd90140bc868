package workload

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"ramret/log"
	"ramret/ram"
	"ramret/service"
)

const DefaultUptimeInterval = time.Second

// Uptime accumulates total powered-on milliseconds across reboots
// in a retained int64. Deltas fold in on a ticker and once more on
// shutdown, so the total only misses the tail of a session that
// dies uncleanly.
type Uptime struct {
	Interval time.Duration
	rec      *ram.Record[int64]
	img      Image
	lgr      log.Logger
	lastAt   time.Time
	quitCh   chan struct{}
	once     sync.Once
}

var _ service.Service = (*Uptime)(nil)

func NewUptime(rec *ram.Record[int64], img Image) *Uptime {
	return &Uptime{
		Interval: DefaultUptimeInterval,
		rec:      rec,
		img:      img,
		lgr:      log.WithModule("uptime"),
		quitCh:   make(chan struct{}),
	}
}

func (u *Uptime) Record() *ram.Record[int64] {
	return u.rec
}

func (u *Uptime) Start() error {
	valid, err := u.rec.Validate()
	if err != nil {
		return errors.Wrap(err, "error validating uptime record")
	}
	total, err := u.rec.Get()
	if err != nil {
		return errors.Wrap(err, "error reading uptime record")
	}
	if valid {
		u.lgr.Info("uptime survived power cycle", "total_ms", total)
	} else {
		u.lgr.Info("uptime reset, starting from zero")
	}
	u.lastAt = time.Now()

	ticker := time.NewTicker(u.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := u.fold(); err != nil {
				u.lgr.Error("error folding uptime delta", "err", err)
			}
		case <-u.quitCh:
			// Fold the tail of the session before powering down.
			if err := u.fold(); err != nil {
				u.lgr.Error("error folding final uptime delta", "err", err)
			}
			return nil
		}
	}
}

func (u *Uptime) fold() error {
	now := time.Now()
	delta := now.Sub(u.lastAt).Milliseconds()
	u.lastAt = now
	if delta <= 0 {
		return nil
	}
	total, err := u.rec.Get()
	if err != nil {
		return err
	}
	if err := u.rec.Set(total + delta); err != nil {
		return err
	}
	u.img.MarkDirty()
	return nil
}

func (u *Uptime) Stop() error {
	u.once.Do(func() {
		close(u.quitCh)
	})
	return nil
}
