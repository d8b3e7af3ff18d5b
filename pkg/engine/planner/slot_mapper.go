package planner

import (
	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/types"
	"vexec/pkg/metadata"
)

// scanTupleID is the only tuple of a single-table select.
const scanTupleID int32 = 0

// slotMapper assigns one slot per table column and marks the referenced ones
// as materialized.
type slotMapper struct {
	tableName string
	slots     []plan.SlotDesc
	byName    map[string]int
}

func newSlotMapper(tableName string, columns []metadata.ColumnDef, slotIDBase int32) (*slotMapper, error) {
	m := &slotMapper{
		tableName: tableName,
		slots:     make([]plan.SlotDesc, len(columns)),
		byName:    make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		dataType, err := types.DataTypeFromMetadataColumnType(col.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}
		m.slots[i] = plan.SlotDesc{
			ID:       slotIDBase + int32(i),
			Parent:   scanTupleID,
			Type:     dataType.Name(),
			ColName:  col.Name,
			Nullable: col.Nullable,
			ColPos:   i,
		}
		m.byName[col.Name] = i
	}
	return m, nil
}

// mapColumn returns the slot reference node for a column and marks its slot
// materialized.
func (m *slotMapper) mapColumn(tableName, columnName string) (plan.ExprNode, error) {
	if tableName != "" && tableName != m.tableName {
		return plan.ExprNode{}, errors.Newf("column %s refers to table %s, but query is on table %s", columnName, tableName, m.tableName)
	}
	i, ok := m.byName[columnName]
	if !ok {
		return plan.ExprNode{}, errors.Newf("column %s not found in table %s", columnName, m.tableName)
	}
	m.slots[i].Materialized = true
	return plan.ExprNode{
		NodeType: plan.SlotRefNode,
		SlotRef:  &plan.SlotRef{SlotID: m.slots[i].ID, TupleID: scanTupleID},
	}, nil
}

func (m *slotMapper) descriptorTable() plan.DescriptorTable {
	return plan.DescriptorTable{
		Tuples: []plan.TupleDesc{{ID: scanTupleID, TableName: m.tableName}},
		Slots:  append([]plan.SlotDesc(nil), m.slots...),
	}
}
