package ramsim

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramret/arena"
	"ramret/ram"
)

type scrubTarget struct {
	mu    sync.Mutex
	valid bool
	err   error
	calls int
}

func (s *scrubTarget) Validate() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.valid, s.err
}

func (s *scrubTarget) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestScrubberCountsFailures(t *testing.T) {
	ok := &scrubTarget{valid: true}
	bad := &scrubTarget{}
	alsoOK := &scrubTarget{valid: true}

	s := NewScrubber()
	s.Register("ok", ok)
	s.Register("bad", bad)
	s.Register("also-ok", alsoOK)
	s.Scrub()

	assert.EqualValues(t, 1, s.Failures())
	assert.Equal(t, 1, ok.callCount())
	assert.Equal(t, 1, bad.callCount())
	assert.Equal(t, 1, alsoOK.callCount())

	s.Scrub()
	assert.EqualValues(t, 2, s.Failures())
}

func TestScrubberSkipsErroredValidations(t *testing.T) {
	broken := &scrubTarget{err: errors.New("region detached")}

	s := NewScrubber()
	s.Register("broken", broken)
	s.Scrub()

	assert.EqualValues(t, 0, s.Failures())
	assert.Equal(t, 1, broken.callCount())
}

func TestScrubberZeroesCorruptRecords(t *testing.T) {
	g := testGeometry()
	a, err := arena.New(g, nil)
	require.NoError(t, err)
	rt := ram.NewRetainer(g, NewPower(g))
	rec, err := arena.NewRecord[uint32](a, "counter", rt)
	require.NoError(t, err)
	require.NoError(t, rec.Set(7))

	region, ok := a.Region("counter")
	require.True(t, ok)
	region.Bytes()[0] ^= 0xff

	s := NewScrubber()
	s.Register("counter", rec)
	s.Scrub()

	assert.EqualValues(t, 1, s.Failures())
	got, err := rec.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)
}

func TestScrubberRunsOnTicker(t *testing.T) {
	target := &scrubTarget{valid: true}

	s := NewScrubber()
	s.Interval = 10 * time.Millisecond
	s.Register("ticked", target)
	startErr := make(chan error, 1)
	go func() {
		startErr <- s.Start()
	}()

	require.Eventually(t, func() bool {
		return target.callCount() > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	require.NoError(t, <-startErr)
}
