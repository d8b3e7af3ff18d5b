package operators

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"

	"vexec/pkg/descriptors"
	"vexec/pkg/engine/runtime"
	"vexec/pkg/engine/types"
	"vexec/pkg/metrics"
	"vexec/pkg/tomy_file"
)

// ScanOperator reads the materialized slots of a row layout from data files.
// Column i of every block it emits is the slot with column id i.
type ScanOperator struct {
	reader    *tomy_file.BatchReader
	batchSize int
	numCols   int
}

func NewScanOperator(state *runtime.State, rowDesc *descriptors.RowDescriptor, filePaths []string) *ScanOperator {
	slots := rowDesc.MaterializedSlots()
	columns := make([]string, len(slots))
	for i, s := range slots {
		columns[i] = s.ColName
	}
	return &ScanOperator{
		reader:    tomy_file.NewBatchReader(filePaths, columns),
		batchSize: state.BatchSize(),
		numCols:   len(columns),
	}
}

func (op *ScanOperator) Close() {
	if op.reader != nil {
		op.reader.Close()
		op.reader = nil
	}
}

func (op *ScanOperator) NextBatch(ctx context.Context) (*types.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if op.reader == nil {
		return nil, nil
	}

	batch, err := op.reader.GetNextBatch(op.batchSize)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(batch.Columns) != op.numCols {
		return nil, errors.AssertionFailedf("scan read %d columns, layout has %d", len(batch.Columns), op.numCols)
	}

	columns := make([]types.ChunkColumn, len(batch.Columns))
	for i, col := range batch.Columns {
		chunkCol, err := types.ChunkColumnFromTomy(col)
		if err != nil {
			return nil, errors.Wrapf(err, "converting column %s", col.GetName())
		}
		columns[i] = chunkCol
	}
	metrics.ScannedRows.Add(float64(batch.NumRows))
	return types.NewBlock(batch.NumRows, columns), nil
}
