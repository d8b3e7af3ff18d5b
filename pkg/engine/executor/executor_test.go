package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vexec/pkg/api"
	"vexec/pkg/engine/expr"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/planner"
	"vexec/pkg/metadata"
)

type fixture struct {
	ms       *metadata.Metastore
	planner  *planner.Planner
	executor *Executor
}

// newFixture loads rows 0..9 of table "people" into files of three rows.
func newFixture(t *testing.T, parallelism int) *fixture {
	t.Helper()
	dir := t.TempDir()
	ms, err := metadata.NewMetastore(dir, nil)
	require.NoError(t, err)
	_, err = ms.CreateTable("people", []metadata.ColumnDef{
		{Name: "id", Type: metadata.Int64Type},
		{Name: "name", Type: metadata.VarcharType, Nullable: true},
		{Name: "age", Type: metadata.Int64Type},
	})
	require.NoError(t, err)

	exec, err := NewExecutor(Config{BaseDir: dir, ChunkSize: 2, MaxRowsInFile: 3, Parallelism: parallelism}, nil)
	require.NoError(t, err)

	var sb strings.Builder
	sb.WriteString("id,name,age\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "%d,person%d,%d\n", i, i, 20+i)
	}
	csvPath := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sb.String()), 0644))

	p := planner.NewPlanner(ms)
	copyPlan, err := p.PlanCopy("people", csvPath, nil, true)
	require.NoError(t, err)
	_, err = exec.Execute(context.Background(), "copy", copyPlan)
	require.NoError(t, err)

	table, ok := ms.GetTableByName("people")
	require.True(t, ok)
	require.Len(t, table.Files, 4)

	return &fixture{ms: ms, planner: p, executor: exec}
}

func (f *fixture) selectPlan(t *testing.T, limit *api.LimitExpression, columns ...string) *planner.SelectPlan {
	t.Helper()
	q := api.SelectQuery{LimitClause: limit}
	for _, c := range columns {
		q.ColumnClauses = append(q.ColumnClauses, api.ColumnReferenceExpression{TableName: "people", ColumnName: c})
	}
	sp, err := f.planner.PlanSelect(q)
	require.NoError(t, err)
	return sp
}

func TestExecuteSelect_SingleFragment(t *testing.T) {
	f := newFixture(t, 1)

	result, err := f.executor.Execute(context.Background(), "q1", f.selectPlan(t, nil, "age", "id"))
	require.NoError(t, err)

	assert.Equal(t, uint64(10), result.RowCount)
	assert.Equal(t, []string{"age", "id"}, result.ColumnNames)
	assert.Equal(t, []int64{20, 21, 22, 23, 24, 25, 26, 27, 28, 29}, result.Columns[0])
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, result.Columns[1])
}

func TestExecuteSelect_ParallelFragments(t *testing.T) {
	f := newFixture(t, 2)

	result, err := f.executor.Execute(context.Background(), "q2", f.selectPlan(t, nil, "id", "name"))
	require.NoError(t, err)

	// fragment 0 reads files 0 and 2, fragment 1 reads files 1 and 3
	assert.Equal(t, []int64{0, 1, 2, 6, 7, 8, 3, 4, 5, 9}, result.Columns[0])
	assert.Equal(t, "person6", result.Columns[1].([]string)[3])
}

func TestExecuteSelect_Limit(t *testing.T) {
	f := newFixture(t, 3)

	result, err := f.executor.Execute(context.Background(), "q3", f.selectPlan(t, &api.LimitExpression{Limit: 4}, "name"))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), result.RowCount)
	assert.Len(t, result.Columns[0], 4)

	zero, err := f.executor.Execute(context.Background(), "q4", f.selectPlan(t, &api.LimitExpression{Limit: 0}, "name"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), zero.RowCount)
	assert.Equal(t, []string{"name"}, zero.ColumnNames)
	assert.Equal(t, []any{[]string{}}, zero.Columns)
}

func TestExecuteSelect_OrderByWithLimit(t *testing.T) {
	f := newFixture(t, 3)
	q := api.SelectQuery{
		ColumnClauses: []api.ColumnReferenceExpression{
			{TableName: "people", ColumnName: "name"},
			{TableName: "people", ColumnName: "age"},
		},
		OrderByClause: []api.OrderByExpression{{ColumnIndex: 1, Ascending: false}},
		LimitClause:   &api.LimitExpression{Limit: 3},
	}
	sp, err := f.planner.PlanSelect(q)
	require.NoError(t, err)

	result, err := f.executor.Execute(context.Background(), "q-order", sp)
	require.NoError(t, err)
	assert.Equal(t, []int64{29, 28, 27}, result.Columns[1])
	assert.Equal(t, []string{"person9", "person8", "person7"}, result.Columns[0])

	q.OrderByClause = []api.OrderByExpression{{ColumnIndex: 2}}
	_, err = f.planner.PlanSelect(q)
	assert.ErrorContains(t, err, "invalid column index: 2")
}

func TestExecuteSelect_UnknownSlotFailsQuery(t *testing.T) {
	f := newFixture(t, 2)
	sp := f.selectPlan(t, nil, "id")
	sp.Plan.Projections = append(sp.Plan.Projections, plan.Expr{Nodes: []plan.ExprNode{
		{NodeType: plan.SlotRefNode, SlotRef: &plan.SlotRef{SlotID: 99}},
	}})

	_, err := f.executor.Execute(context.Background(), "q5", sp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, expr.ErrResolution))
	assert.Contains(t, err.Error(), "couldn't resolve slot descriptor 99")
}

func TestExecuteSelect_ContractViolationIsRecovered(t *testing.T) {
	f := newFixture(t, 2)
	sp := f.selectPlan(t, nil, "id", "age")
	sp.Plan.Projections = []plan.Expr{{Nodes: []plan.ExprNode{
		{NodeType: plan.SlotRefNode, NumChildren: 1, SlotRef: &plan.SlotRef{SlotID: 1}},
		{NodeType: plan.SlotRefNode, SlotRef: &plan.SlotRef{SlotID: 3}},
	}}}

	_, err := f.executor.Execute(context.Background(), "q6", sp)
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestExecuteSelect_Cancelled(t *testing.T) {
	f := newFixture(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.executor.Execute(ctx, "q7", f.selectPlan(t, nil, "id"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteSelect_EmptyTable(t *testing.T) {
	dir := t.TempDir()
	ms, err := metadata.NewMetastore(dir, nil)
	require.NoError(t, err)
	_, err = ms.CreateTable("empty", []metadata.ColumnDef{{Name: "a", Type: metadata.Int64Type}})
	require.NoError(t, err)
	exec, err := NewExecutor(Config{BaseDir: dir, ChunkSize: 16, Parallelism: 4}, nil)
	require.NoError(t, err)

	sp, err := planner.NewPlanner(ms).PlanSelect(api.SelectQuery{
		ColumnClauses: []api.ColumnReferenceExpression{{TableName: "empty", ColumnName: "a"}},
	})
	require.NoError(t, err)

	result, err := exec.Execute(context.Background(), "q8", sp)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.RowCount)
	assert.Equal(t, []string{"a"}, result.ColumnNames)
	assert.Equal(t, []any{[]int64{}}, result.Columns)
}

func TestSplitRoundRobin(t *testing.T) {
	assert.Equal(t, [][]string{nil}, splitRoundRobin(nil, 4))
	assert.Equal(t, [][]string{{"a", "c"}, {"b"}}, splitRoundRobin([]string{"a", "b", "c"}, 2))
	assert.Equal(t, [][]string{{"a"}, {"b"}}, splitRoundRobin([]string{"a", "b"}, 8))
}

func TestExecuteCopy_Errors(t *testing.T) {
	f := newFixture(t, 1)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("1,x,notanumber\n"), 0644))
	cp, err := f.planner.PlanCopy("people", bad, nil, false)
	require.NoError(t, err)
	assert.Error(t, f.executor.ExecuteCopy(context.Background(), cp))

	cp, err = f.planner.PlanCopy("people", bad, []string{"id", "nope", "age"}, false)
	require.NoError(t, err)
	assert.Error(t, f.executor.ExecuteCopy(context.Background(), cp))

	mapped := filepath.Join(dir, "mapped.csv")
	require.NoError(t, os.WriteFile(mapped, []byte("50,x,100\n"), 0644))
	cp, err = f.planner.PlanCopy("people", mapped, []string{"age", "name", "id"}, false)
	require.NoError(t, err)
	require.NoError(t, f.executor.ExecuteCopy(context.Background(), cp))

	table, _ := f.ms.GetTableByName("people")
	assert.Len(t, table.Files, 5)
}
