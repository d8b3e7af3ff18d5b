package types

import (
	"strings"

	"github.com/cockroachdb/errors"

	"vexec/pkg/metadata"
)

// DataType is the semantic type of an expression result. Nullability is a
// decorator around a primitive type, never a property of the primitive itself.
type DataType interface {
	Name() string
	ColumnType() ChunkColumnType
	IsNullable() bool
	Equal(other DataType) bool
}

type primitiveType struct {
	name    string
	colType ChunkColumnType
}

func (t *primitiveType) Name() string                { return t.name }
func (t *primitiveType) ColumnType() ChunkColumnType { return t.colType }
func (t *primitiveType) IsNullable() bool            { return false }

func (t *primitiveType) Equal(other DataType) bool {
	o, ok := other.(*primitiveType)
	return ok && o.colType == t.colType
}

func (t *primitiveType) String() string { return t.name }

var (
	Int64   DataType = &primitiveType{name: "INT64", colType: ChunkColumnTypeInt64}
	Varchar DataType = &primitiveType{name: "VARCHAR", colType: ChunkColumnTypeVarchar}
	Boolean DataType = &primitiveType{name: "BOOLEAN", colType: ChunkColumnTypeBoolean}
)

// Nullable wraps a non-nullable type.
type Nullable struct {
	nested DataType
}

func (n *Nullable) Name() string                { return "NULLABLE(" + n.nested.Name() + ")" }
func (n *Nullable) ColumnType() ChunkColumnType { return n.nested.ColumnType() }
func (n *Nullable) IsNullable() bool            { return true }
func (n *Nullable) Nested() DataType            { return n.nested }
func (n *Nullable) String() string              { return n.Name() }

func (n *Nullable) Equal(other DataType) bool {
	o, ok := other.(*Nullable)
	return ok && n.nested.Equal(o.nested)
}

// MakeNullable wraps t unless it is already nullable, so applying it any
// number of times yields a single wrapper.
func MakeNullable(t DataType) DataType {
	if t == nil || t.IsNullable() {
		return t
	}
	return &Nullable{nested: t}
}

func RemoveNullable(t DataType) DataType {
	if n, ok := t.(*Nullable); ok {
		return n.nested
	}
	return t
}

// ParseDataType accepts the primitive names and the NULLABLE(...) form
// produced by Name.
func ParseDataType(name string) (DataType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if inner, ok := strings.CutPrefix(upper, "NULLABLE("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return nil, errors.Newf("malformed nullable type: %q", name)
		}
		nested, err := ParseDataType(inner)
		if err != nil {
			return nil, err
		}
		return MakeNullable(nested), nil
	}
	switch upper {
	case "INT64":
		return Int64, nil
	case "VARCHAR":
		return Varchar, nil
	case "BOOLEAN":
		return Boolean, nil
	default:
		return nil, errors.Newf("unknown data type: %q", name)
	}
}

func DataTypeFromMetadataColumnType(colType metadata.ColumnType) (DataType, error) {
	switch colType {
	case metadata.Int64Type:
		return Int64, nil
	case metadata.VarcharType:
		return Varchar, nil
	default:
		return nil, errors.Newf("couldn't resolve data type from metadata column type: %v", colType)
	}
}
