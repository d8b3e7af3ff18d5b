package operators

import (
	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/types"
)

func SliceColumns(cols []types.ChunkColumn, start, count uint64) ([]types.ChunkColumn, error) {
	if count == 0 {
		return nil, errors.AssertionFailedf("SliceColumns called for an empty range")
	}
	newCols := make([]types.ChunkColumn, len(cols))
	for i, col := range cols {
		if uint64(col.Len()) < start+count {
			return nil, errors.AssertionFailedf("slice [%d, %d) out of range for column %s of %d rows",
				start, start+count, col.GetName(), col.Len())
		}
		switch c := col.(type) {
		case *types.Int64ChunkColumn:
			newValues := make([]int64, count)
			copy(newValues, c.Values[start:start+count])
			newCols[i] = types.NewInt64Column(c.Name, newValues)

		case *types.BooleanChunkColumn:
			newValues := make([]bool, count)
			copy(newValues, c.Values[start:start+count])
			newCols[i] = types.NewBooleanColumn(c.Name, newValues)

		case *types.VarcharChunkColumn:
			firstIdx := int(start)
			startByte := c.Offsets[firstIdx]
			endByte := c.NextOffset(firstIdx + int(count) - 1)

			newData := make([]byte, endByte-startByte)
			copy(newData, c.Data[startByte:endByte])
			newOffsets := make([]uint64, count)
			for j := range newOffsets {
				newOffsets[j] = c.Offsets[firstIdx+j] - startByte
			}
			newCols[i] = &types.VarcharChunkColumn{Name: c.Name, Offsets: newOffsets, Data: newData}

		default:
			return nil, errors.AssertionFailedf("SliceColumns: unknown column type %T", col)
		}
	}
	return newCols, nil
}

// LimitBlock returns the first limit rows of b, or b itself when it is not
// longer than that.
func LimitBlock(b *types.Block, limit uint64) (*types.Block, error) {
	if b == nil || b.RowCount <= limit {
		return b, nil
	}
	if limit == 0 {
		cols := make([]types.ChunkColumn, len(b.Columns))
		for i, col := range b.Columns {
			cols[i] = types.NewEmptyColumn(col.GetName(), col.GetType())
		}
		return types.NewBlock(0, cols), nil
	}
	cols, err := SliceColumns(b.Columns, 0, limit)
	if err != nil {
		return nil, err
	}
	return types.NewBlock(limit, cols), nil
}

// MergeBlocks concatenates blocks of the same layout, in order.
func MergeBlocks(blocks []*types.Block) (*types.Block, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	if len(blocks) == 1 {
		return blocks[0], nil
	}

	numCols := len(blocks[0].Columns)
	totalRows := 0
	totalDataSizes := make([]int, numCols)
	for bi, b := range blocks {
		if len(b.Columns) != numCols {
			return nil, errors.AssertionFailedf("block %d has %d columns, expected %d", bi, len(b.Columns), numCols)
		}
		totalRows += int(b.RowCount)
		for i, col := range b.Columns {
			if col.GetType() != blocks[0].Columns[i].GetType() {
				return nil, errors.AssertionFailedf("block %d column %d is %s, expected %s",
					bi, i, col.GetType(), blocks[0].Columns[i].GetType())
			}
			if vCol, ok := col.(*types.VarcharChunkColumn); ok {
				totalDataSizes[i] += len(vCol.Data)
			}
		}
	}

	mergedCols := make([]types.ChunkColumn, numCols)
	for i := range mergedCols {
		mergedCols[i] = types.CloneEmpty(blocks[0].Columns[i], totalRows, totalDataSizes[i])
	}

	currentRow := 0
	for _, b := range blocks {
		for i := range mergedCols {
			b.Columns[i].CopyTo(mergedCols[i], currentRow)
		}
		currentRow += int(b.RowCount)
	}
	return types.NewBlock(uint64(totalRows), mergedCols), nil
}
