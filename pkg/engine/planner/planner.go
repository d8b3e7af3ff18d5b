package planner

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"vexec/pkg/api"
	"vexec/pkg/descriptors"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/types"
	"vexec/pkg/metadata"
)

// DefaultSlotIDBase keeps slot ids apart from column positions.
const DefaultSlotIDBase int32 = 1

type Planner struct {
	Metastore  *metadata.Metastore
	SlotIDBase int32
}

func NewPlanner(m *metadata.Metastore) *Planner {
	return &Planner{Metastore: m, SlotIDBase: DefaultSlotIDBase}
}

func (p *Planner) PlanCopy(tableName string, csvFilePath string, columnsMapping []string, csvContainsHeader bool) (*CopyPlan, error) {
	if _, exists := p.Metastore.GetTableByName(tableName); !exists {
		return nil, errors.Wrapf(metadata.ErrTableNotFound, "table %s does not exist", tableName)
	}

	return &CopyPlan{
		TableName:         tableName,
		CsvFilePath:       csvFilePath,
		Metastore:         p.Metastore,
		ColumnsMapping:    columnsMapping,
		CsvContainsHeader: csvContainsHeader,
	}, nil
}

// PlanSelect builds a serialized plan for a projection of one table. On
// success the returned plan holds a snapshot of the table.
func (p *Planner) PlanSelect(q api.SelectQuery) (*SelectPlan, error) {
	tableName, err := extractTableName(q)
	if err != nil {
		return nil, err
	}

	snapshot, err := p.Metastore.GetTableSnapshot(tableName)
	if err != nil {
		return nil, types.NewVErr(err.Error(), "ColumnClauses")
	}

	queryPlan, err := p.buildSelectPlan(q, tableName, snapshot)
	if err != nil {
		snapshot.Release()
		return nil, err
	}
	return &SelectPlan{Plan: queryPlan, Snapshot: snapshot}, nil
}

func (p *Planner) buildSelectPlan(q api.SelectQuery, tableName string, snapshot *metadata.MetastoreSnapshot) (*plan.QueryPlan, error) {
	mapper, err := newSlotMapper(tableName, snapshot.Columns, p.SlotIDBase)
	if err != nil {
		return nil, err
	}

	ve := &types.ValidationError{}
	if len(q.ColumnClauses) == 0 {
		ve.Add("no columns specified for SELECT", "ColumnClauses")
	}
	projections := make([]plan.Expr, 0, len(q.ColumnClauses))
	for i, col := range q.ColumnClauses {
		node, err := mapper.mapColumn(col.TableName, col.ColumnName)
		if err != nil {
			ve.Add(err.Error(), fmt.Sprintf("ColumnClauses %d", i))
			continue
		}
		projections = append(projections, plan.Expr{Nodes: []plan.ExprNode{node}})
	}

	orderBy, err := validateAndExtractOrderBy(q.OrderByClause, len(q.ColumnClauses))
	if err != nil {
		ve.Extend(err)
	}
	limit, err := validateAndExtractLimit(q.LimitClause)
	if err != nil {
		ve.Add(err.Error(), "LimitClause")
	}
	if ve.HasProblems() {
		return nil, ve
	}

	return &plan.QueryPlan{
		DescTbl:     mapper.descriptorTable(),
		ScanTupleID: scanTupleID,
		Projections: projections,
		OrderBy:     orderBy,
		Limit:       limit,
	}, nil
}

// PlanSerialized checks a plan received from a client against the current
// schema of its scan table and pins that table.
func (p *Planner) PlanSerialized(queryPlan *plan.QueryPlan) (*SelectPlan, error) {
	tableName, err := queryPlan.ScanTable()
	if err != nil {
		return nil, types.NewVErr(err.Error(), "DescTbl")
	}
	snapshot, err := p.Metastore.GetTableSnapshot(tableName)
	if err != nil {
		return nil, types.NewVErr(err.Error(), "DescTbl")
	}
	if err := validateSerializedPlan(queryPlan, snapshot); err != nil {
		snapshot.Release()
		return nil, err
	}
	return &SelectPlan{Plan: queryPlan, Snapshot: snapshot}, nil
}

func validateSerializedPlan(queryPlan *plan.QueryPlan, snapshot *metadata.MetastoreSnapshot) error {
	ve := &types.ValidationError{}
	if len(queryPlan.Projections) == 0 {
		ve.Add("plan has no projections", "Projections")
	}
	for i, o := range queryPlan.OrderBy {
		if o.ProjectionIndex < 0 || o.ProjectionIndex >= len(queryPlan.Projections) {
			ve.Add(fmt.Sprintf("invalid projection index: %d", o.ProjectionIndex), fmt.Sprintf("OrderBy %d", i))
		}
	}

	descTbl, err := descriptors.NewDescriptorTable(queryPlan.DescTbl)
	if err != nil {
		ve.Add(err.Error(), "DescTbl")
		return ve
	}
	tuple, _ := descTbl.TupleDescriptor(descriptors.TupleID(queryPlan.ScanTupleID))

	columns := make(map[string]metadata.ColumnDef, len(snapshot.Columns))
	for _, c := range snapshot.Columns {
		columns[c.Name] = c
	}
	for _, slot := range tuple.Slots {
		if !slot.Materialized {
			continue
		}
		col, ok := columns[slot.ColName]
		if !ok {
			ve.Add(fmt.Sprintf("column %s not found in table %s", slot.ColName, tuple.TableName), fmt.Sprintf("slot %d", slot.ID))
			continue
		}
		colType, err := types.DataTypeFromMetadataColumnType(col.Type)
		if err != nil || !colType.Equal(slot.Type) {
			ve.Add(fmt.Sprintf("slot type %s does not match column %s of type %s", slot.Type.Name(), col.Name, col.Type), fmt.Sprintf("slot %d", slot.ID))
		}
	}

	for i, projection := range queryPlan.Projections {
		for j, node := range projection.Nodes {
			if node.NodeType != plan.SlotRefNode || node.SlotRef == nil || node.Type == "" {
				continue
			}
			where := fmt.Sprintf("Projections %d node %d", i, j)
			nodeType, err := types.ParseDataType(node.Type)
			if err != nil {
				ve.Add(err.Error(), where)
				continue
			}
			slot, ok := descTbl.SlotDescriptor(descriptors.SlotID(node.SlotRef.SlotID))
			if !ok {
				continue
			}
			if !types.RemoveNullable(nodeType).Equal(slot.Type) || nodeType.IsNullable() != slot.IsNullable() {
				ve.Add(fmt.Sprintf("node type %s does not match slot %d of type %s", node.Type, slot.ID, slotTypeName(slot)), where)
			}
		}
	}
	return ve.OrNil()
}

func slotTypeName(slot *descriptors.SlotDescriptor) string {
	if slot.IsNullable() {
		return types.MakeNullable(slot.Type).Name()
	}
	return slot.Type.Name()
}

func extractTableName(q api.SelectQuery) (string, error) {
	tableName := ""
	for i, col := range q.ColumnClauses {
		if col.TableName == "" {
			continue
		}
		if tableName != "" && col.TableName != tableName {
			return "", types.NewVErr(fmt.Sprintf("query references tables %s and %s, only one is supported", tableName, col.TableName), fmt.Sprintf("ColumnClauses %d", i))
		}
		tableName = col.TableName
	}
	if tableName == "" {
		return "", types.NewVErr("no table name specified in column references", "ColumnClauses")
	}
	return tableName, nil
}

func validateAndExtractOrderBy(clauses []api.OrderByExpression, columnsCount int) ([]plan.OrderByElem, error) {
	orderBy := make([]plan.OrderByElem, 0, len(clauses))
	ve := &types.ValidationError{}
	for i, clause := range clauses {
		colId := int(clause.ColumnIndex)
		if colId < 0 || colId >= columnsCount {
			ve.Add(fmt.Sprintf("invalid column index: %d", colId), fmt.Sprintf("OrderByClause %d", i))
			continue
		}
		orderBy = append(orderBy, plan.OrderByElem{ProjectionIndex: colId, Ascending: clause.Ascending})
	}
	return orderBy, ve.OrNil()
}

func validateAndExtractLimit(limitClause *api.LimitExpression) (int64, error) {
	if limitClause == nil {
		return plan.NoLimit, nil
	}
	if limitClause.Limit < 0 {
		return plan.NoLimit, errors.New("limit must be non-negative")
	}
	return int64(limitClause.Limit), nil
}
