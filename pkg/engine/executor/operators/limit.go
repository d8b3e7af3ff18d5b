package operators

import (
	"context"

	"vexec/pkg/engine/types"
)

type LimitOperator struct {
	Child Operator
	Limit uint64

	count uint64
}

func NewLimitOperator(child Operator, limit uint64) *LimitOperator {
	return &LimitOperator{
		Child: child,
		Limit: limit,
	}
}

func (op *LimitOperator) Close() {
	if op.Child != nil {
		op.Child.Close()
		op.Child = nil
	}
}

func (op *LimitOperator) NextBatch(ctx context.Context) (*types.Block, error) {
	if op.count >= op.Limit || op.Child == nil {
		op.Close()
		return nil, nil
	}

	block, err := op.Child.NextBatch(ctx)
	if err != nil || block == nil {
		return nil, err
	}

	remaining := op.Limit - op.count
	if block.RowCount <= remaining {
		op.count += block.RowCount
		return block, nil
	}

	op.count += remaining
	return LimitBlock(block, remaining)
}
