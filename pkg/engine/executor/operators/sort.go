package operators

import (
	"bytes"
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/types"
)

// SortField orders rows by one column of the child's blocks.
type SortField struct {
	Column    int
	Ascending bool
}

// SortOperator materializes its child, sorts all rows and re-emits them in
// blocks of at most BatchSize rows.
type SortOperator struct {
	Child     Operator
	Fields    []SortField
	BatchSize uint64

	isSorted      bool
	sortedRows    *types.Block
	currentOffset uint64
}

func NewSortOperator(child Operator, fields []SortField, batchSize uint64) *SortOperator {
	return &SortOperator{Child: child, Fields: fields, BatchSize: max(batchSize, 1)}
}

func (op *SortOperator) Close() {
	if op.Child != nil {
		op.Child.Close()
		op.Child = nil
	}
	op.sortedRows = nil
}

func (op *SortOperator) NextBatch(ctx context.Context) (*types.Block, error) {
	if !op.isSorted {
		if op.Child == nil {
			return nil, nil
		}
		all, err := CollectAllBatches(ctx, op.Child)
		if err != nil {
			return nil, err
		}
		op.isSorted = true
		if all == nil {
			return nil, nil
		}
		if op.sortedRows, err = SortBlock(all, op.Fields); err != nil {
			return nil, err
		}
	}

	if op.sortedRows == nil || op.currentOffset >= op.sortedRows.RowCount {
		return nil, nil
	}

	count := min(op.BatchSize, op.sortedRows.RowCount-op.currentOffset)
	cols, err := SliceColumns(op.sortedRows.Columns, op.currentOffset, count)
	if err != nil {
		return nil, err
	}
	op.currentOffset += count
	if op.currentOffset >= op.sortedRows.RowCount {
		op.sortedRows = nil
	}
	return types.NewBlock(count, cols), nil
}

// SortBlock returns a copy of b with rows ordered by fields. Equal rows keep
// their relative order.
func SortBlock(b *types.Block, fields []SortField) (*types.Block, error) {
	if b == nil || len(fields) == 0 {
		return b, nil
	}
	for _, f := range fields {
		if f.Column < 0 || f.Column >= b.NumColumns() {
			return nil, errors.AssertionFailedf("sort column %d out of range for block of %d columns", f.Column, b.NumColumns())
		}
	}

	perm := make([]int, b.RowCount)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		for _, f := range fields {
			res := compare(b.Columns[f.Column], perm[i], perm[j])
			if res == 0 {
				continue
			}
			if f.Ascending {
				return res < 0
			}
			return res > 0
		}
		return false
	})

	cols, err := reorderRows(b.Columns, perm)
	if err != nil {
		return nil, err
	}
	return types.NewBlock(b.RowCount, cols), nil
}

// -1 < 0 < 1
func compare(col types.ChunkColumn, testIdx, baseIdx int) int {
	switch c := col.(type) {
	case *types.Int64ChunkColumn:
		v1, v2 := c.Values[testIdx], c.Values[baseIdx]
		if v1 < v2 {
			return -1
		}
		if v1 > v2 {
			return 1
		}
		return 0
	case *types.VarcharChunkColumn:
		s1, e1 := c.Offsets[testIdx], c.NextOffset(testIdx)
		s2, e2 := c.Offsets[baseIdx], c.NextOffset(baseIdx)
		return bytes.Compare(c.Data[s1:e1], c.Data[s2:e2])
	case *types.BooleanChunkColumn:
		v1, v2 := c.Values[testIdx], c.Values[baseIdx]
		if v1 == v2 {
			return 0
		}
		if !v1 {
			return -1
		}
		return 1
	}
	return 0
}

// reorderRows gathers rows of every column in perm order.
func reorderRows(cols []types.ChunkColumn, perm []int) ([]types.ChunkColumn, error) {
	newCols := make([]types.ChunkColumn, len(cols))
	for i, col := range cols {
		switch c := col.(type) {
		case *types.Int64ChunkColumn:
			values := make([]int64, len(perm))
			for j, idx := range perm {
				values[j] = c.Values[idx]
			}
			newCols[i] = types.NewInt64Column(c.Name, values)
		case *types.BooleanChunkColumn:
			values := make([]bool, len(perm))
			for j, idx := range perm {
				values[j] = c.Values[idx]
			}
			newCols[i] = types.NewBooleanColumn(c.Name, values)
		case *types.VarcharChunkColumn:
			out := &types.VarcharChunkColumn{Name: c.Name, Offsets: make([]uint64, len(perm)), Data: make([]byte, 0, len(c.Data))}
			for j, idx := range perm {
				out.Offsets[j] = uint64(len(out.Data))
				out.Data = append(out.Data, c.Data[c.Offsets[idx]:c.NextOffset(idx)]...)
			}
			newCols[i] = out
		default:
			return nil, errors.AssertionFailedf("reorderRows: unknown column type %T", col)
		}
	}
	return newCols, nil
}
