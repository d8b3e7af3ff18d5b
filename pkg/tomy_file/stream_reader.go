package tomy_file

import (
	"io"

	"github.com/cockroachdb/errors"
)

// BatchReader streams fixed-size batches of the selected columns across a
// list of files, loading one file at a time.
type BatchReader struct {
	filePaths     []string
	columnsToRead []string

	currentFileIdx int
	currentTable   *ColumnarTable
	currentRow     uint64
}

func NewBatchReader(filePaths []string, columnsToRead []string) *BatchReader {
	return &BatchReader{
		filePaths:     filePaths,
		columnsToRead: columnsToRead,
	}
}

func (r *BatchReader) Close() error {
	r.currentTable = nil
	r.currentFileIdx = len(r.filePaths)
	return nil
}

// GetNextBatch returns at most batchSize rows, never spanning two files.
// io.EOF marks the end of the last file.
func (r *BatchReader) GetNextBatch(batchSize int) (*ColumnarTable, error) {
	if batchSize <= 0 {
		return nil, errors.AssertionFailedf("batch size must be positive, got %d", batchSize)
	}
	for {
		if r.currentTable == nil {
			if r.currentFileIdx >= len(r.filePaths) {
				return nil, io.EOF
			}
			if err := r.loadFile(r.filePaths[r.currentFileIdx]); err != nil {
				return nil, err
			}
		}

		remaining := r.currentTable.NumRows - r.currentRow
		if remaining == 0 {
			r.currentFileIdx++
			r.currentTable = nil
			continue
		}

		toRead := min(uint64(batchSize), remaining)
		batch := &ColumnarTable{
			NumRows: toRead,
			Columns: make([]AnyColumn, len(r.currentTable.Columns)),
		}
		for i, col := range r.currentTable.Columns {
			sliced, err := SliceColumn(col, r.currentRow, toRead)
			if err != nil {
				return nil, err
			}
			batch.Columns[i] = sliced
		}
		r.currentRow += toRead
		return batch, nil
	}
}

func (r *BatchReader) loadFile(filePath string) error {
	table, err := DeserializeColumns(filePath, r.columnsToRead)
	if err != nil {
		return errors.Wrapf(err, "loading %s", filePath)
	}
	r.currentTable = table
	r.currentRow = 0
	return nil
}

// SliceColumn copies rows [start, start+count) into a new column.
func SliceColumn(col AnyColumn, start, count uint64) (AnyColumn, error) {
	switch c := col.(type) {
	case *Int64Column:
		if start+count > uint64(len(c.Values)) {
			return nil, errors.AssertionFailedf("slice [%d, %d) out of bounds for INT64 column %q of %d rows",
				start, start+count, c.Name, len(c.Values))
		}
		values := make([]int64, count)
		copy(values, c.Values[start:start+count])
		return &Int64Column{Name: c.Name, Values: values}, nil

	case *VarcharColumn:
		n := uint64(len(c.Offsets))
		if start+count > n {
			return nil, errors.AssertionFailedf("slice [%d, %d) out of bounds for VARCHAR column %q of %d rows",
				start, start+count, c.Name, n)
		}
		if count == 0 {
			return &VarcharColumn{Name: c.Name}, nil
		}
		dataStart := c.Offsets[start]
		dataEnd := uint64(len(c.Data))
		if start+count < n {
			dataEnd = c.Offsets[start+count]
		}

		data := make([]byte, dataEnd-dataStart)
		copy(data, c.Data[dataStart:dataEnd])
		offsets := make([]uint64, count)
		for i := range offsets {
			offsets[i] = c.Offsets[start+uint64(i)] - dataStart
		}
		return &VarcharColumn{Name: c.Name, Offsets: offsets, Data: data}, nil

	default:
		return nil, errors.AssertionFailedf("unknown column type %T", col)
	}
}
