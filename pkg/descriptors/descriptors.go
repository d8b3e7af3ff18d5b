// Package descriptors describes the logical slots a plan refers to and the
// physical column layout of the blocks an operator produces.
package descriptors

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/types"
)

type (
	SlotID  int32
	TupleID int32
)

// InvalidSlotID marks "no slot".
const InvalidSlotID SlotID = -1

type SlotDescriptor struct {
	ID     SlotID
	Parent TupleID
	// Type is the declared type. Nullability is reported separately.
	Type         types.DataType
	ColName      string
	Nullable     bool
	ColPos       int
	Materialized bool
}

func (d *SlotDescriptor) IsNullable() bool { return d.Nullable }

func (d *SlotDescriptor) String() string {
	return fmt.Sprintf("Slot(id=%d, parent=%d, col=%s, type=%s, nullable=%t, materialized=%t)",
		d.ID, d.Parent, d.ColName, d.Type.Name(), d.Nullable, d.Materialized)
}

type TupleDescriptor struct {
	ID        TupleID
	TableName string
	// Slots in declaration order.
	Slots []*SlotDescriptor
}

// DescriptorTable indexes every tuple and slot of a plan. It is immutable
// once built and may be shared by all fragments of a query.
type DescriptorTable struct {
	tuples map[TupleID]*TupleDescriptor
	slots  map[SlotID]*SlotDescriptor
}

func NewDescriptorTable(tbl plan.DescriptorTable) (*DescriptorTable, error) {
	dt := &DescriptorTable{
		tuples: make(map[TupleID]*TupleDescriptor, len(tbl.Tuples)),
		slots:  make(map[SlotID]*SlotDescriptor, len(tbl.Slots)),
	}
	for _, t := range tbl.Tuples {
		id := TupleID(t.ID)
		if _, dup := dt.tuples[id]; dup {
			return nil, errors.Newf("duplicate tuple id %d", id)
		}
		dt.tuples[id] = &TupleDescriptor{ID: id, TableName: t.TableName}
	}
	for _, s := range tbl.Slots {
		id := SlotID(s.ID)
		if id == InvalidSlotID {
			return nil, errors.Newf("slot id %d is reserved", id)
		}
		if _, dup := dt.slots[id]; dup {
			return nil, errors.Newf("duplicate slot id %d", id)
		}
		parent, ok := dt.tuples[TupleID(s.Parent)]
		if !ok {
			return nil, errors.Newf("slot %d belongs to unknown tuple %d", id, s.Parent)
		}
		typ, err := types.ParseDataType(s.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "slot %d", id)
		}
		desc := &SlotDescriptor{
			ID:           id,
			Parent:       parent.ID,
			Type:         types.RemoveNullable(typ),
			ColName:      s.ColName,
			Nullable:     s.Nullable || typ.IsNullable(),
			ColPos:       s.ColPos,
			Materialized: s.Materialized,
		}
		dt.slots[id] = desc
		parent.Slots = append(parent.Slots, desc)
	}
	return dt, nil
}

func (t *DescriptorTable) SlotDescriptor(id SlotID) (*SlotDescriptor, bool) {
	d, ok := t.slots[id]
	return d, ok
}

func (t *DescriptorTable) TupleDescriptor(id TupleID) (*TupleDescriptor, bool) {
	d, ok := t.tuples[id]
	return d, ok
}

func (t *DescriptorTable) NumSlots() int { return len(t.slots) }
