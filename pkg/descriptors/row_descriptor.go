package descriptors

import (
	"github.com/cockroachdb/errors"
)

// RowDescriptor is the physical layout of a block: the materialized slots of
// each listed tuple, concatenated in tuple order. Slots that are not
// materialized take no column, so later column ids shift down.
type RowDescriptor struct {
	tupleIDs  []TupleID
	slots     []*SlotDescriptor
	columnIDs map[SlotID]int
}

func NewRowDescriptor(tbl *DescriptorTable, tupleIDs ...TupleID) (*RowDescriptor, error) {
	rd := &RowDescriptor{
		tupleIDs:  tupleIDs,
		columnIDs: make(map[SlotID]int),
	}
	for _, tid := range tupleIDs {
		tuple, ok := tbl.TupleDescriptor(tid)
		if !ok {
			return nil, errors.Newf("row descriptor references unknown tuple %d", tid)
		}
		for _, slot := range tuple.Slots {
			if !slot.Materialized {
				continue
			}
			rd.columnIDs[slot.ID] = len(rd.slots)
			rd.slots = append(rd.slots, slot)
		}
	}
	return rd, nil
}

// GetColumnID returns the column position of a slot, or -1 when the slot is
// not part of this layout.
func (r *RowDescriptor) GetColumnID(id SlotID) int {
	if col, ok := r.columnIDs[id]; ok {
		return col
	}
	return -1
}

func (r *RowDescriptor) NumColumns() int { return len(r.slots) }

// MaterializedSlots returns the slots in column order.
func (r *RowDescriptor) MaterializedSlots() []*SlotDescriptor { return r.slots }

func (r *RowDescriptor) TupleIDs() []TupleID { return r.tupleIDs }
