package planner

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vexec/pkg/api"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/types"
	"vexec/pkg/metadata"
)

func newTestPlanner(t *testing.T) *Planner {
	t.Helper()
	ms, err := metadata.NewMetastore(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = ms.CreateTable("users", []metadata.ColumnDef{
		{Name: "id", Type: metadata.Int64Type},
		{Name: "name", Type: metadata.VarcharType, Nullable: true},
		{Name: "age", Type: metadata.Int64Type},
	})
	require.NoError(t, err)
	return NewPlanner(ms)
}

func TestPlanSelect(t *testing.T) {
	p := newTestPlanner(t)

	sp, err := p.PlanSelect(api.SelectQuery{
		ColumnClauses: []api.ColumnReferenceExpression{
			{TableName: "users", ColumnName: "age"},
			{ColumnName: "name"},
		},
		LimitClause: &api.LimitExpression{Limit: 10},
	})
	require.NoError(t, err)
	defer sp.Release()

	q := sp.Plan
	assert.Equal(t, int64(10), q.Limit)
	assert.Equal(t, []plan.TupleDesc{{ID: 0, TableName: "users"}}, q.DescTbl.Tuples)
	assert.Equal(t, []plan.SlotDesc{
		{ID: 1, Parent: 0, Type: "INT64", ColName: "id", ColPos: 0},
		{ID: 2, Parent: 0, Type: "VARCHAR", ColName: "name", Nullable: true, ColPos: 1, Materialized: true},
		{ID: 3, Parent: 0, Type: "INT64", ColName: "age", ColPos: 2, Materialized: true},
	}, q.DescTbl.Slots)

	require.Len(t, q.Projections, 2)
	assert.Equal(t, int32(3), q.Projections[0].Nodes[0].SlotRef.SlotID)
	assert.Equal(t, int32(2), q.Projections[1].Nodes[0].SlotRef.SlotID)

	table, err := q.ScanTable()
	require.NoError(t, err)
	assert.Equal(t, "users", table)
}

func TestPlanSelect_ValidationProblems(t *testing.T) {
	p := newTestPlanner(t)

	tests := []struct {
		name     string
		query    api.SelectQuery
		problems int
	}{
		{
			name:     "no table",
			query:    api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{{ColumnName: "id"}}},
			problems: 1,
		},
		{
			name:     "unknown table",
			query:    api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{{TableName: "nope", ColumnName: "id"}}},
			problems: 1,
		},
		{
			name: "two tables",
			query: api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{
				{TableName: "users", ColumnName: "id"},
				{TableName: "orders", ColumnName: "id"},
			}},
			problems: 1,
		},
		{
			name: "unknown column and negative limit",
			query: api.SelectQuery{
				ColumnClauses: []api.ColumnReferenceExpression{
					{TableName: "users", ColumnName: "id"},
					{ColumnName: "salary"},
				},
				LimitClause: &api.LimitExpression{Limit: -1},
			},
			problems: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.PlanSelect(tc.query)
			require.Error(t, err)
			var ve *types.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Len(t, ve.Problems, tc.problems)
		})
	}
}

func TestPlanSerialized(t *testing.T) {
	p := newTestPlanner(t)

	sp, err := p.PlanSelect(api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{{TableName: "users", ColumnName: "id"}}})
	require.NoError(t, err)
	sp.Release()

	again, err := p.PlanSerialized(sp.Plan)
	require.NoError(t, err)
	again.Release()

	broken := *sp.Plan
	broken.DescTbl = plan.DescriptorTable{
		Tuples: []plan.TupleDesc{{ID: 0, TableName: "users"}},
		Slots:  []plan.SlotDesc{{ID: 1, Parent: 0, Type: "VARCHAR", ColName: "id", Materialized: true}},
	}
	_, err = p.PlanSerialized(&broken)
	assert.Error(t, err)

	missing := *sp.Plan
	missing.DescTbl.Tuples = []plan.TupleDesc{{ID: 0, TableName: "ghost"}}
	_, err = p.PlanSerialized(&missing)
	assert.Error(t, err)
}

func TestPlanSerialized_NodeTypeMismatch(t *testing.T) {
	p := newTestPlanner(t)

	sp, err := p.PlanSelect(api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{
		{TableName: "users", ColumnName: "id"},
		{ColumnName: "name"},
	}})
	require.NoError(t, err)
	sp.Release()

	withTypes := func(idType, nameType string) *plan.QueryPlan {
		q := *sp.Plan
		q.Projections = []plan.Expr{
			{Nodes: []plan.ExprNode{sp.Plan.Projections[0].Nodes[0]}},
			{Nodes: []plan.ExprNode{sp.Plan.Projections[1].Nodes[0]}},
		}
		q.Projections[0].Nodes[0].Type = idType
		q.Projections[1].Nodes[0].Type = nameType
		return &q
	}

	ok, err := p.PlanSerialized(withTypes("INT64", "NULLABLE(VARCHAR)"))
	require.NoError(t, err)
	ok.Release()

	tests := []struct {
		name     string
		idType   string
		nameType string
	}{
		{name: "different primitive", idType: "VARCHAR"},
		{name: "nullable node on required slot", idType: "NULLABLE(INT64)"},
		{name: "required node on nullable slot", nameType: "VARCHAR"},
		{name: "unknown type", nameType: "DECIMAL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.PlanSerialized(withTypes(tc.idType, tc.nameType))
			require.Error(t, err)
			var ve *types.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Len(t, ve.Problems, 1)
		})
	}
}

func TestPlanCopy(t *testing.T) {
	p := newTestPlanner(t)

	cp, err := p.PlanCopy("users", "/tmp/in.csv", nil, true)
	require.NoError(t, err)
	assert.Equal(t, PlanTypeCopy, cp.Type())

	_, err = p.PlanCopy("ghost", "/tmp/in.csv", nil, true)
	assert.True(t, errors.Is(err, metadata.ErrTableNotFound))
}
