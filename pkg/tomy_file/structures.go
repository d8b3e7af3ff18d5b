package tomy_file

import "io"

// AnyColumn is a fully materialized column of a .tomy file.
type AnyColumn interface {
	GetName() string
	GetType() ColumnType
	GetNumRows() int
	SerializeData(w io.Writer) (compressedSize int64, err error)
}

type ColumnarTable struct {
	NumRows uint64
	Columns []AnyColumn
}

// Column returns the column with the given name, or nil.
func (t *ColumnarTable) Column(name string) AnyColumn {
	for _, c := range t.Columns {
		if c.GetName() == name {
			return c
		}
	}
	return nil
}

type Int64Column struct {
	Name   string
	Values []int64
}

func (c *Int64Column) GetName() string     { return c.Name }
func (c *Int64Column) GetType() ColumnType { return TypeInt64 }
func (c *Int64Column) GetNumRows() int     { return len(c.Values) }

// VarcharColumn keeps the start offset of every value; a value ends where the
// next one starts, the last one at len(Data).
type VarcharColumn struct {
	Name    string
	Offsets []uint64
	Data    []byte
}

func (c *VarcharColumn) GetName() string     { return c.Name }
func (c *VarcharColumn) GetType() ColumnType { return TypeVarchar }
func (c *VarcharColumn) GetNumRows() int     { return len(c.Offsets) }

// Value returns row i as a string.
func (c *VarcharColumn) Value(i int) string {
	end := uint64(len(c.Data))
	if i+1 < len(c.Offsets) {
		end = c.Offsets[i+1]
	}
	return string(c.Data[c.Offsets[i]:end])
}

// NewVarcharColumn builds a column from plain strings.
func NewVarcharColumn(name string, values []string) *VarcharColumn {
	col := &VarcharColumn{Name: name, Offsets: make([]uint64, len(values))}
	for i, v := range values {
		col.Offsets[i] = uint64(len(col.Data))
		col.Data = append(col.Data, v...)
	}
	return col
}

// File layout:
//   BeginMagic | column data... | metadata (varints) | metadata offset (8B LE) | EndMagic

const (
	BeginMagic = "Tomy"
	EndMagic   = "EndT"
)

type ColumnType byte

const (
	TypeInt64   ColumnType = 0x01
	TypeVarchar ColumnType = 0x02
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt64:
		return "INT64"
	case TypeVarchar:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

type ColumnMetaData struct {
	Name           string
	Type           ColumnType
	DataOffset     int64
	CompressedSize int64
}

type FileMetaData struct {
	NumRows    uint64
	NumColumns uint64
	Columns    []ColumnMetaData
}

func (m *FileMetaData) column(name string) (ColumnMetaData, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnMetaData{}, false
}
