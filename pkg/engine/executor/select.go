package executor

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"vexec/pkg/descriptors"
	"vexec/pkg/engine/execerror"
	"vexec/pkg/engine/executor/operators"
	"vexec/pkg/engine/expr"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/runtime"
	"vexec/pkg/engine/types"
	"vexec/pkg/metadata"
	"vexec/pkg/metrics"
)

// ExecuteSelect runs p over the files of snapshot. Files are dealt
// round-robin to fragments. The projection trees are built once and every
// fragment prepares its own clones, so no prepared state is shared.
// A query without rows still yields the projected column names and kinds.
// With an order by, every fragment sorts and limits its own rows and the
// merged rows are sorted and limited again.
func (e *Executor) ExecuteSelect(ctx context.Context, queryID string, snapshot *metadata.MetastoreSnapshot, p *plan.QueryPlan) (*types.ColumnarResult, error) {
	descTbl, err := descriptors.NewDescriptorTable(p.DescTbl)
	if err != nil {
		return nil, errors.Wrap(err, "building descriptor table")
	}
	projections, err := expr.CreateExprTrees(p.Projections)
	if err != nil {
		return nil, errors.Wrap(err, "building projections")
	}

	fragments := splitRoundRobin(metadata.FileNames(snapshot.Files), e.parallelism)
	e.logger.Debug("executing select", "query_id", queryID, "fragments", len(fragments), "files", len(snapshot.Files))

	results := make([]*types.Block, len(fragments))
	g, gctx := errgroup.WithContext(ctx)
	for i, files := range fragments {
		g.Go(func() error {
			block, err := e.runFragment(gctx, queryID, i, descTbl, p, projections, files)
			if err != nil {
				return errors.Wrapf(err, "fragment %d", i)
			}
			results[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	blocks := make([]*types.Block, 0, len(results))
	for _, b := range results {
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	merged, err := operators.MergeBlocks(blocks)
	if err != nil {
		return nil, err
	}
	if merged == nil {
		return nil, errors.AssertionFailedf("no fragment produced a block")
	}
	if merged, err = operators.SortBlock(merged, sortFields(p)); err != nil {
		return nil, err
	}
	if p.Limit >= 0 {
		if merged, err = operators.LimitBlock(merged, uint64(p.Limit)); err != nil {
			return nil, err
		}
	}
	return merged.ToColumnarResult(), nil
}

func (e *Executor) runFragment(
	ctx context.Context,
	queryID string,
	fragmentID int,
	descTbl *descriptors.DescriptorTable,
	p *plan.QueryPlan,
	projections []*expr.ExprContext,
	files []string,
) (*types.Block, error) {
	metrics.FragmentsRunning.Inc()
	defer metrics.FragmentsRunning.Dec()

	state := runtime.NewState(queryID, fragmentID, descTbl, int(e.chunkSize), e.logger)

	var block *types.Block
	var runErr error
	if err := execerror.CatchInternalError(func() {
		block, runErr = e.fragment(ctx, state, p, projections, files)
	}); err != nil {
		state.Logger().Error("fragment aborted", "error", err)
		return nil, err
	}
	return block, runErr
}

// fragment returns the rows of files, or an empty block of the projected
// shape when there are none.
func (e *Executor) fragment(ctx context.Context, state *runtime.State, p *plan.QueryPlan, projections []*expr.ExprContext, files []string) (*types.Block, error) {
	rowDesc, err := descriptors.NewRowDescriptor(state.DescTbl(), descriptors.TupleID(p.ScanTupleID))
	if err != nil {
		return nil, err
	}
	exprs, err := expr.CloneAll(projections)
	if err != nil {
		return nil, err
	}
	if err := expr.PrepareAll(exprs, state, rowDesc); err != nil {
		return nil, err
	}

	var op operators.Operator = operators.NewScanOperator(state, rowDesc, files)
	op = operators.NewProjectionOperator(op, exprs)
	if len(p.OrderBy) > 0 {
		op = operators.NewSortOperator(op, sortFields(p), uint64(state.BatchSize()))
	}
	if p.Limit >= 0 {
		op = operators.NewLimitOperator(op, uint64(p.Limit))
	}
	defer op.Close()

	block, err := operators.CollectAllBatches(ctx, op)
	if err != nil || block != nil {
		return block, err
	}
	return operators.EmptyProjectionBlock(exprs), nil
}

// sortFields maps order-by elements onto output columns, which follow the
// projection order.
func sortFields(p *plan.QueryPlan) []operators.SortField {
	fields := make([]operators.SortField, len(p.OrderBy))
	for i, o := range p.OrderBy {
		fields[i] = operators.SortField{Column: o.ProjectionIndex, Ascending: o.Ascending}
	}
	return fields
}

// splitRoundRobin deals files into at most n groups, never fewer than one.
func splitRoundRobin(files []string, n int) [][]string {
	n = min(n, len(files))
	if n < 1 {
		return [][]string{nil}
	}
	groups := make([][]string, n)
	for i, f := range files {
		groups[i%n] = append(groups[i%n], f)
	}
	return groups
}
