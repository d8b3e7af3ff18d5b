package operators

import (
	"context"

	"vexec/pkg/engine/types"
)

// Operator produces blocks until it returns a nil block. Close releases the
// operator and its children and may be called more than once.
type Operator interface {
	NextBatch(ctx context.Context) (*types.Block, error)
	Close()
}
