package expr

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"vexec/pkg/descriptors"
)

// ErrResolution is the sentinel behind every ResolutionError.
var ErrResolution = errors.New("slot resolution failed")

// ResolutionError reports a slot id that the descriptor table or the row
// layout does not know. It is not retryable.
type ResolutionError struct {
	SlotID descriptors.SlotID
	Reason string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("couldn't resolve slot descriptor %d", e.SlotID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return ErrResolution }
