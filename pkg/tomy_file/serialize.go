package tomy_file

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

func (c *Int64Column) SerializeData(w io.Writer) (int64, error) {
	compressed, err := CompressInt64Column(c)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(compressed)
	return int64(n), err
}

func (c *VarcharColumn) SerializeData(w io.Writer) (int64, error) {
	compressed, err := CompressVarcharColumn(c)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(compressed)
	return int64(n), err
}

// countingWriter tracks the file offset so no Seek is needed while writing.
type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (table *ColumnarTable) Serialize(filePath string) (err error) {
	for _, col := range table.Columns {
		if uint64(col.GetNumRows()) != table.NumRows {
			return errors.Newf("column %q has %d rows, table has %d", col.GetName(), col.GetNumRows(), table.NumRows)
		}
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", filePath)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "closing %s", filePath)
		}
	}()

	cw := &countingWriter{w: bufio.NewWriter(f)}
	if _, err := io.WriteString(cw, BeginMagic); err != nil {
		return errors.Wrap(err, "writing begin magic")
	}

	meta := FileMetaData{
		NumRows:    table.NumRows,
		NumColumns: uint64(len(table.Columns)),
		Columns:    make([]ColumnMetaData, 0, len(table.Columns)),
	}
	for _, col := range table.Columns {
		offset := cw.n
		size, err := col.SerializeData(cw)
		if err != nil {
			return errors.Wrapf(err, "serializing column %q", col.GetName())
		}
		meta.Columns = append(meta.Columns, ColumnMetaData{
			Name:           col.GetName(),
			Type:           col.GetType(),
			DataOffset:     offset,
			CompressedSize: size,
		})
	}

	metadataOffset := cw.n
	if err := writeMetadata(cw, meta); err != nil {
		return errors.Wrap(err, "writing metadata")
	}
	if err := binary.Write(cw, binary.LittleEndian, metadataOffset); err != nil {
		return errors.Wrap(err, "writing metadata offset")
	}
	if _, err := io.WriteString(cw, EndMagic); err != nil {
		return errors.Wrap(err, "writing end magic")
	}
	return cw.w.Flush()
}

func writeMetadata(w io.Writer, meta FileMetaData) error {
	if err := WriteVarint(w, meta.NumRows); err != nil {
		return err
	}
	if err := WriteVarint(w, meta.NumColumns); err != nil {
		return err
	}
	for _, col := range meta.Columns {
		if err := WriteVarint(w, uint64(len(col.Name))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, col.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(col.Type)}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, col.DataOffset); err != nil {
			return err
		}
		if err := WriteVarint(w, uint64(col.CompressedSize)); err != nil {
			return err
		}
	}
	return nil
}
