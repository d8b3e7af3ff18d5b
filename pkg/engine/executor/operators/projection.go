package operators

import (
	"context"

	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/execerror"
	"vexec/pkg/engine/expr"
	"vexec/pkg/engine/types"
	"vexec/pkg/metrics"
)

// ProjectionOperator picks the columns reported by its expressions. Output
// columns carry the expression names and share data with the input.
type ProjectionOperator struct {
	Child Operator
	Exprs []*expr.ExprContext
}

func NewProjectionOperator(child Operator, exprs []*expr.ExprContext) *ProjectionOperator {
	return &ProjectionOperator{Child: child, Exprs: exprs}
}

func (op *ProjectionOperator) Close() {
	if op.Child != nil {
		op.Child.Close()
		op.Child = nil
	}
}

func (op *ProjectionOperator) NextBatch(ctx context.Context) (*types.Block, error) {
	if op.Child == nil {
		return nil, nil
	}
	block, err := op.Child.NextBatch(ctx)
	if err != nil || block == nil {
		return nil, err
	}

	ids := make([]int, len(op.Exprs))
	for i, e := range op.Exprs {
		colID, err := e.Execute(block)
		if err != nil {
			return nil, errors.Wrapf(err, "projection %d", i)
		}
		if colID < 0 {
			return nil, errors.Newf("projection %d (%s) does not produce a column", i, e)
		}
		col, err := block.Column(colID)
		if err != nil {
			return nil, errors.Wrapf(err, "projection %d", i)
		}
		if got, want := col.GetType(), e.Root().DataType().ColumnType(); got != want {
			execerror.InternalError(errors.AssertionFailedf(
				"projection %d (%s) expects %s, column %d is %s", i, e, want, colID, got))
		}
		ids[i] = colID
	}

	projected, err := block.Project(ids)
	if err != nil {
		return nil, err
	}
	for i, e := range op.Exprs {
		if name := e.Root().ExprName(); projected.Columns[i].GetName() != name {
			projected.Columns[i] = types.RenameColumn(projected.Columns[i], name)
		}
	}
	metrics.ProjectedBlocks.Inc()
	return projected, nil
}

// EmptyProjectionBlock builds a zero-row block named and typed after the
// prepared expressions.
func EmptyProjectionBlock(exprs []*expr.ExprContext) *types.Block {
	cols := make([]types.ChunkColumn, len(exprs))
	for i, e := range exprs {
		cols[i] = types.NewEmptyColumn(e.Root().ExprName(), e.Root().DataType().ColumnType())
	}
	return types.NewBlock(0, cols)
}
