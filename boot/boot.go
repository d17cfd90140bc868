// Package boot runs startup steps in an explicit priority order,
// replacing init registrations scattered across translation units.
package boot

import (
	"sort"

	"github.com/pkg/errors"

	"ramret/log"
)

// DefaultPriority is the conventional slot for steps without a
// stronger ordering need. Priorities range 0 through 99; lower runs
// earlier.
const DefaultPriority = 50

type Step struct {
	Priority int
	Name     string
	Fn       func() error
}

type Sequence struct {
	steps []Step
	lgr   log.Logger
}

func NewSequence(lgr log.Logger) *Sequence {
	return &Sequence{
		lgr: lgr,
	}
}

func (s *Sequence) Register(priority int, name string, fn func() error) {
	s.steps = append(s.steps, Step{
		Priority: priority,
		Name:     name,
		Fn:       fn,
	})
}

// Steps returns the registered steps in run order.
func (s *Sequence) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	sortSteps(out)
	return out
}

// Run executes every step in priority order. Equal priorities keep
// their registration order. The first failing step aborts the
// sequence and its error is returned wrapped with the step name.
func (s *Sequence) Run() error {
	steps := s.Steps()
	for _, step := range steps {
		s.lgr.Debug("running boot step", "name", step.Name, "priority", step.Priority)
		if err := step.Fn(); err != nil {
			return errors.Wrapf(err, "boot step %q failed", step.Name)
		}
	}
	s.lgr.Info("boot sequence complete", "steps", len(steps))
	return nil
}

func sortSteps(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority < steps[j].Priority
	})
}
