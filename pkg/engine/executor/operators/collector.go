package operators

import (
	"context"

	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/types"
)

// CollectAllBatches drains op into a single block. It returns nil when op
// produced no rows.
func CollectAllBatches(ctx context.Context, op Operator) (*types.Block, error) {
	var blocks []*types.Block
	for {
		block, err := op.NextBatch(ctx)
		if err != nil {
			return nil, err
		}
		if block == nil {
			break
		}
		if block.RowCount == 0 {
			continue
		}
		blocks = append(blocks, block)
	}

	merged, err := MergeBlocks(blocks)
	if err != nil {
		return nil, errors.Wrap(err, "merging batches")
	}
	return merged, nil
}
