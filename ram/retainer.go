package ram

import (
	"github.com/pkg/errors"
)

// Retainer applies retention changes to whole address ranges by
// mapping them onto sections and driving a PowerController.
type Retainer struct {
	geo Geometry
	pc  PowerController
}

func NewRetainer(geo Geometry, pc PowerController) *Retainer {
	return &Retainer{
		geo: geo,
		pc:  pc,
	}
}

func (r *Retainer) Geometry() Geometry {
	return r.geo
}

// RetainRange enables or disables retention for every section
// covering [addr, addr+size). It stops at the first controller
// error.
func (r *Retainer) RetainRange(addr, size uint32, enable bool) error {
	refs, err := r.geo.MapRange(addr, size)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := r.pc.SetRetention(ref.Block, ref.Mask, enable); err != nil {
			return errors.Wrapf(err, "error setting retention for block %d section %d", ref.Block, ref.Section)
		}
	}
	return nil
}
