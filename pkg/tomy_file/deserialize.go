package tomy_file

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidFile    = errors.New("invalid tomy file")
	ErrColumnNotFound = errors.New("column not found in file")
)

// Deserialize reads every column of the file.
func Deserialize(filePath string) (*ColumnarTable, error) {
	return DeserializeColumns(filePath, nil)
}

// DeserializeColumns reads only the named columns, in the order given.
// A nil list reads all columns in file order.
func DeserializeColumns(filePath string, columns []string) (*ColumnarTable, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filePath)
	}
	defer f.Close()

	meta, err := readFileMetadata(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filePath)
	}

	selected := meta.Columns
	if columns != nil {
		selected = make([]ColumnMetaData, 0, len(columns))
		for _, name := range columns {
			colMeta, ok := meta.column(name)
			if !ok {
				return nil, errors.Wrapf(ErrColumnNotFound, "column %q not found in %s", name, filePath)
			}
			selected = append(selected, colMeta)
		}
	}

	table := &ColumnarTable{
		NumRows: meta.NumRows,
		Columns: make([]AnyColumn, 0, len(selected)),
	}
	for _, colMeta := range selected {
		data := make([]byte, colMeta.CompressedSize)
		if _, err := f.ReadAt(data, colMeta.DataOffset); err != nil {
			return nil, errors.Wrapf(err, "reading column %q data", colMeta.Name)
		}
		col, err := decompressColumn(colMeta, data, meta.NumRows)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

// ReadMetadata returns the footer of a file without touching column data.
func ReadMetadata(filePath string) (*FileMetaData, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filePath)
	}
	defer f.Close()
	return readFileMetadata(f)
}

func readFileMetadata(f *os.File) (*FileMetaData, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat")
	}
	fileSize := fi.Size()
	minSize := int64(len(BeginMagic) + 8 + len(EndMagic))
	if fileSize < minSize {
		return nil, errors.Wrapf(ErrInvalidFile, "file too short: %d bytes", fileSize)
	}

	if err := verifyMagic(f, BeginMagic, 0); err != nil {
		return nil, err
	}
	endMagicStart := fileSize - int64(len(EndMagic))
	if err := verifyMagic(f, EndMagic, endMagicStart); err != nil {
		return nil, err
	}

	offsetPointerStart := endMagicStart - 8
	var offsetBuf [8]byte
	if _, err := f.ReadAt(offsetBuf[:], offsetPointerStart); err != nil {
		return nil, errors.Wrap(err, "reading metadata offset")
	}
	metadataOffset := int64(binary.LittleEndian.Uint64(offsetBuf[:]))
	if metadataOffset < int64(len(BeginMagic)) || metadataOffset >= offsetPointerStart {
		return nil, errors.Wrapf(ErrInvalidFile, "invalid metadata offset %d", metadataOffset)
	}

	buf := make([]byte, offsetPointerStart-metadataOffset)
	if _, err := f.ReadAt(buf, metadataOffset); err != nil {
		return nil, errors.Wrap(err, "reading metadata block")
	}
	return decodeMetadata(buf, metadataOffset)
}

func verifyMagic(f *os.File, expected string, offset int64) error {
	buf := make([]byte, len(expected))
	if _, err := f.ReadAt(buf, offset); err != nil {
		return errors.Wrapf(err, "reading magic at %d", offset)
	}
	if string(buf) != expected {
		return errors.Wrapf(ErrInvalidFile, "invalid magic: expected %q, got %q", expected, buf)
	}
	return nil
}

// decodeMetadata parses the footer; dataEnd bounds every column extent.
func decodeMetadata(buf []byte, dataEnd int64) (*FileMetaData, error) {
	reader := bytes.NewReader(buf)
	meta := &FileMetaData{}

	var err error
	if meta.NumRows, err = ReadVarint(reader); err != nil {
		return nil, errors.Wrap(err, "reading row count")
	}
	if meta.NumColumns, err = ReadVarint(reader); err != nil {
		return nil, errors.Wrap(err, "reading column count")
	}
	if meta.NumColumns > uint64(len(buf)) {
		return nil, errors.Wrapf(ErrInvalidFile, "implausible column count %d", meta.NumColumns)
	}

	meta.Columns = make([]ColumnMetaData, meta.NumColumns)
	for i := range meta.Columns {
		col := &meta.Columns[i]

		nameLen, err := ReadVarint(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "reading name length of column %d", i)
		}
		if nameLen > uint64(reader.Len()) {
			return nil, errors.Wrapf(ErrInvalidFile, "column %d name overruns metadata", i)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(reader, name); err != nil {
			return nil, errors.Wrapf(err, "reading name of column %d", i)
		}
		col.Name = string(name)

		typ, err := reader.ReadByte()
		if err != nil {
			return nil, errors.Wrapf(err, "reading type of column %d", i)
		}
		col.Type = ColumnType(typ)

		if err := binary.Read(reader, binary.LittleEndian, &col.DataOffset); err != nil {
			return nil, errors.Wrapf(err, "reading data offset of column %d", i)
		}
		size, err := ReadVarint(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "reading size of column %d", i)
		}
		col.CompressedSize = int64(size)

		if col.DataOffset < int64(len(BeginMagic)) || col.CompressedSize < 0 || col.DataOffset+col.CompressedSize > dataEnd {
			return nil, errors.Wrapf(ErrInvalidFile, "column %q extent out of bounds", col.Name)
		}
	}
	return meta, nil
}
