package types

import (
	"github.com/cockroachdb/errors"
)

// Block is a batch of rows stored column by column. Column ids are positions
// in Columns.
type Block struct {
	RowCount uint64
	Columns  []ChunkColumn
}

func NewBlock(rowCount uint64, columns []ChunkColumn) *Block {
	return &Block{RowCount: rowCount, Columns: columns}
}

func (b *Block) NumColumns() int {
	if b == nil {
		return 0
	}
	return len(b.Columns)
}

func (b *Block) Column(id int) (ChunkColumn, error) {
	if id < 0 || id >= len(b.Columns) {
		return nil, errors.Newf("column id %d out of range, block has %d columns", id, len(b.Columns))
	}
	return b.Columns[id], nil
}

// Project builds a block sharing the given columns of b, in the given order.
func (b *Block) Project(ids []int) (*Block, error) {
	cols := make([]ChunkColumn, len(ids))
	for i, id := range ids {
		col, err := b.Column(id)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return &Block{RowCount: b.RowCount, Columns: cols}, nil
}

func (b *Block) ToColumnarResult() *ColumnarResult {
	columns := make([]any, len(b.Columns))
	names := make([]string, len(b.Columns))
	for i, col := range b.Columns {
		columns[i] = col.GetAnyRepr()
		names[i] = col.GetName()
	}
	return &ColumnarResult{
		RowCount:    b.RowCount,
		ColumnNames: names,
		Columns:     columns,
	}
}
