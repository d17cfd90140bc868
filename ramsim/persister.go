package ramsim

import (
	"sync"
	"time"

	"ramret/log"
	"ramret/service"
)

const DefaultFlushInterval = time.Second

// Persister sweeps the image back to disk whenever update traffic
// outran the inline flush limit.
type Persister struct {
	Interval time.Duration
	sram     *SRAM
	lgr      log.Logger
	quitCh   chan struct{}
	once     sync.Once
}

var _ service.Service = (*Persister)(nil)

func NewPersister(sram *SRAM) *Persister {
	return &Persister{
		Interval: DefaultFlushInterval,
		sram:     sram,
		lgr:      log.WithModule("persister"),
		quitCh:   make(chan struct{}),
	}
}

func (p *Persister) Start() error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := p.sram.FlushIfDirty(); err != nil {
				p.lgr.Error("error flushing image", "err", err)
			}
		case <-p.quitCh:
			return nil
		}
	}
}

func (p *Persister) Stop() error {
	p.once.Do(func() {
		close(p.quitCh)
	})
	return nil
}
