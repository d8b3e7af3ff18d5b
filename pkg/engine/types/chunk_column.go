package types

import (
	"github.com/cockroachdb/errors"

	"vexec/pkg/tomy_file"
)

type ChunkColumn interface {
	GetType() ChunkColumnType
	GetName() string
	GetAnyRepr() any
	Len() int
	CopyTo(other ChunkColumn, rowOffset int)
}

func ChunkColumnFromTomy(tomyCol tomy_file.AnyColumn) (ChunkColumn, error) {
	switch col := tomyCol.(type) {
	case *tomy_file.Int64Column:
		return &Int64ChunkColumn{
			Name:   col.GetName(),
			Values: col.Values,
		}, nil
	case *tomy_file.VarcharColumn:
		return &VarcharChunkColumn{
			Name:    col.GetName(),
			Offsets: col.Offsets,
			Data:    col.Data,
		}, nil
	default:
		return nil, errors.Newf("unsupported tomy column type: %T", tomyCol)
	}
}

type ChunkColumnType int

const (
	ChunkColumnTypeInt64 ChunkColumnType = iota
	ChunkColumnTypeVarchar
	ChunkColumnTypeBoolean
)

func (t ChunkColumnType) String() string {
	switch t {
	case ChunkColumnTypeInt64:
		return "INT64"
	case ChunkColumnTypeVarchar:
		return "VARCHAR"
	case ChunkColumnTypeBoolean:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

type Int64ChunkColumn struct {
	Name   string
	Values []int64
}

func (c *Int64ChunkColumn) GetType() ChunkColumnType { return ChunkColumnTypeInt64 }
func (c *Int64ChunkColumn) GetName() string          { return c.Name }
func (c *Int64ChunkColumn) GetAnyRepr() any          { return c.Values }
func (c *Int64ChunkColumn) Len() int                 { return len(c.Values) }

func (c *Int64ChunkColumn) CopyTo(other ChunkColumn, rowOffset int) {
	target := other.(*Int64ChunkColumn)
	copy(target.Values[rowOffset:], c.Values)
}

func NewInt64Column(name string, values []int64) *Int64ChunkColumn {
	return &Int64ChunkColumn{
		Name:   name,
		Values: values,
	}
}

type BooleanChunkColumn struct {
	Name   string
	Values []bool
}

func (c *BooleanChunkColumn) GetType() ChunkColumnType { return ChunkColumnTypeBoolean }
func (c *BooleanChunkColumn) GetName() string          { return c.Name }
func (c *BooleanChunkColumn) GetAnyRepr() any          { return c.Values }
func (c *BooleanChunkColumn) Len() int                 { return len(c.Values) }

func (c *BooleanChunkColumn) CopyTo(other ChunkColumn, rowOffset int) {
	target := other.(*BooleanChunkColumn)
	copy(target.Values[rowOffset:], c.Values)
}

func NewBooleanColumn(name string, values []bool) *BooleanChunkColumn {
	return &BooleanChunkColumn{
		Name:   name,
		Values: values,
	}
}

type VarcharChunkColumn struct {
	Name    string
	Offsets []uint64
	Data    []byte
}

func (c *VarcharChunkColumn) GetType() ChunkColumnType { return ChunkColumnTypeVarchar }
func (c *VarcharChunkColumn) GetName() string          { return c.Name }
func (c *VarcharChunkColumn) GetAnyRepr() any          { return c.GetValuesAsString() }
func (c *VarcharChunkColumn) Len() int                 { return len(c.Offsets) }

// CopyTo appends the data bytes, so the target must be filled in row order.
func (c *VarcharChunkColumn) CopyTo(other ChunkColumn, rowOffset int) {
	target := other.(*VarcharChunkColumn)

	base := uint64(len(target.Data))
	for i, off := range c.Offsets {
		target.Offsets[rowOffset+i] = off + base
	}
	target.Data = append(target.Data, c.Data...)
}

func (c *VarcharChunkColumn) GetValuesAsString() []string {
	res := make([]string, len(c.Offsets))
	for i := range c.Offsets {
		res[i] = string(c.Data[c.Offsets[i]:c.NextOffset(i)])
	}
	return res
}

func (c *VarcharChunkColumn) NextOffset(idx int) uint64 {
	if idx == len(c.Offsets)-1 {
		return uint64(len(c.Data))
	}
	return c.Offsets[idx+1]
}

func VarcharChunkColumnFromStrings(name string, values []string) *VarcharChunkColumn {
	totalSize := 0
	for _, str := range values {
		totalSize += len(str)
	}
	data := make([]byte, 0, totalSize)
	offsets := make([]uint64, len(values))
	for i, str := range values {
		offsets[i] = uint64(len(data))
		data = append(data, str...)
	}
	return &VarcharChunkColumn{Name: name, Offsets: offsets, Data: data}
}

// CloneEmpty returns a column of the same kind sized for capacity rows.
func CloneEmpty(c ChunkColumn, capacity, maxDataSize int) ChunkColumn {
	switch c.GetType() {
	case ChunkColumnTypeInt64:
		return &Int64ChunkColumn{
			Name:   c.GetName(),
			Values: make([]int64, capacity),
		}
	case ChunkColumnTypeVarchar:
		return &VarcharChunkColumn{
			Name:    c.GetName(),
			Offsets: make([]uint64, capacity),
			Data:    make([]byte, 0, maxDataSize), // len 0 marks where CopyTo starts appending
		}
	case ChunkColumnTypeBoolean:
		return &BooleanChunkColumn{
			Name:   c.GetName(),
			Values: make([]bool, capacity),
		}
	default:
		panic(errors.AssertionFailedf("unsupported chunk column type %s", c.GetType()))
	}
}

// NewEmptyColumn returns a column of kind t with no rows.
func NewEmptyColumn(name string, t ChunkColumnType) ChunkColumn {
	switch t {
	case ChunkColumnTypeInt64:
		return &Int64ChunkColumn{Name: name, Values: []int64{}}
	case ChunkColumnTypeVarchar:
		return &VarcharChunkColumn{Name: name, Offsets: []uint64{}, Data: []byte{}}
	case ChunkColumnTypeBoolean:
		return &BooleanChunkColumn{Name: name, Values: []bool{}}
	default:
		panic(errors.AssertionFailedf("unsupported chunk column type %s", t))
	}
}

// RenameColumn returns c under a new name. The data is shared.
func RenameColumn(c ChunkColumn, name string) ChunkColumn {
	switch col := c.(type) {
	case *Int64ChunkColumn:
		return &Int64ChunkColumn{Name: name, Values: col.Values}
	case *VarcharChunkColumn:
		return &VarcharChunkColumn{Name: name, Offsets: col.Offsets, Data: col.Data}
	case *BooleanChunkColumn:
		return &BooleanChunkColumn{Name: name, Values: col.Values}
	default:
		panic(errors.AssertionFailedf("RenameColumn: unknown column type %T", c))
	}
}
