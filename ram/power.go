package ram

import (
	"github.com/pkg/errors"
)

// ErrRetentionUnavailable is returned by a PowerController whose
// underlying retention hardware is absent or detached. Callers test
// for it with errors.Is.
var ErrRetentionUnavailable = errors.New("retention controller unavailable")

// PowerController sets or clears section retention bits in a block's
// retention register. Implementations must be idempotent: asserting
// an already-set bit or clearing an already-clear bit succeeds and
// changes nothing.
type PowerController interface {
	SetRetention(block, mask uint32, enable bool) error
}
