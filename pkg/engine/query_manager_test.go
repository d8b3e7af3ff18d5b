package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vexec/pkg/api"
	"vexec/pkg/engine/executor"
	"vexec/pkg/engine/expr"
	"vexec/pkg/engine/plan"
	"vexec/pkg/metadata"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestManager(t *testing.T) *QueryManager {
	t.Helper()
	dir := t.TempDir()
	ms, err := metadata.NewMetastore(dir, nil)
	require.NoError(t, err)
	_, err = ms.CreateTable("items", []metadata.ColumnDef{
		{Name: "id", Type: metadata.Int64Type},
		{Name: "label", Type: metadata.VarcharType},
	})
	require.NoError(t, err)

	exec, err := executor.NewExecutor(executor.Config{BaseDir: dir, ChunkSize: 4, MaxRowsInFile: 5, Parallelism: 2}, nil)
	require.NoError(t, err)
	qm := NewQueryManager(ms, exec, nil)
	t.Cleanup(qm.Close)

	csvPath := filepath.Join(dir, "items.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("1,a\n2,b\n3,c\n4,d\n5,e\n6,f\n7,g\n"), 0644))
	id, err := qm.SubmitCopy("items", csvPath, nil, false, nil)
	require.NoError(t, err)
	waitForQuery(t, qm, id)
	return qm
}

func waitForQuery(t *testing.T, qm *QueryManager, id string) *QueryInfo {
	t.Helper()
	var info *QueryInfo
	require.Eventually(t, func() bool {
		var ok bool
		info, ok = qm.GetQueryInfo(id)
		return ok && (info.State == QueryStateFinished || info.State == QueryStateFailed)
	}, 5*time.Second, 5*time.Millisecond)
	return info
}

func TestQueryManager_SelectLifecycle(t *testing.T) {
	qm := newTestManager(t)

	id, err := qm.SubmitSelect(api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{
		{TableName: "items", ColumnName: "label"},
		{ColumnName: "id"},
	}}, nil)
	require.NoError(t, err)

	info := waitForQuery(t, qm, id)
	require.Equal(t, QueryStateFinished, info.State, "query error: %v", info.Error)
	assert.Equal(t, QueryKindSelect, info.Kind)

	result, err := qm.GetQueryResult(id, false, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.RowCount)
	assert.Equal(t, []string{"label", "id"}, result.ColumnNames)

	full, err := qm.GetQueryResult(id, true, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), full.RowCount)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5, 6, 7}, full.Columns[1])

	_, err = qm.GetQueryResult(id, false, 0)
	assert.True(t, errors.Is(err, ErrQueryNotFound))
}

func TestQueryManager_SubmitPlan(t *testing.T) {
	qm := newTestManager(t)

	p := &plan.QueryPlan{
		DescTbl: plan.DescriptorTable{
			Tuples: []plan.TupleDesc{{ID: 4, TableName: "items"}},
			Slots: []plan.SlotDesc{
				{ID: 40, Parent: 4, Type: "INT64", ColName: "id", Materialized: true},
				{ID: 41, Parent: 4, Type: "VARCHAR", ColName: "label", Materialized: false},
			},
		},
		ScanTupleID: 4,
		Projections: []plan.Expr{{Nodes: []plan.ExprNode{{NodeType: plan.SlotRefNode, SlotRef: &plan.SlotRef{SlotID: 40, TupleID: 4}}}}},
		Limit:       2,
	}
	id, err := qm.SubmitPlan(p)
	require.NoError(t, err)
	info := waitForQuery(t, qm, id)
	require.Equal(t, QueryStateFinished, info.State, "query error: %v", info.Error)
	result, err := qm.GetQueryResult(id, true, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.RowCount)

	// slot 41 exists but is pruned from the layout
	p.Projections[0].Nodes[0].SlotRef.SlotID = 41
	id, err = qm.SubmitPlan(p)
	require.NoError(t, err)
	info = waitForQuery(t, qm, id)
	require.Equal(t, QueryStateFailed, info.State)
	assert.True(t, errors.Is(info.Error, expr.ErrResolution))

	p.DescTbl.Tuples[0].TableName = "missing"
	_, err = qm.SubmitPlan(p)
	assert.Error(t, err)
}

func TestQueryManager_PlanningErrorsAreSynchronous(t *testing.T) {
	qm := newTestManager(t)

	_, err := qm.SubmitSelect(api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{{TableName: "items", ColumnName: "nope"}}}, nil)
	assert.Error(t, err)

	_, err = qm.SubmitCopy("nope", "/does/not/matter.csv", nil, false, nil)
	assert.Error(t, err)
}

func TestQueryManager_CopyFailure(t *testing.T) {
	qm := newTestManager(t)

	id, err := qm.SubmitCopy("items", filepath.Join(t.TempDir(), "absent.csv"), nil, false, nil)
	require.NoError(t, err)
	info := waitForQuery(t, qm, id)
	assert.Equal(t, QueryStateFailed, info.State)
	assert.Error(t, info.Error)
	assert.Len(t, qm.GetAllQueriesInfo(), 2)
}

func TestQueryManager_ClosedRejectsSubmissions(t *testing.T) {
	qm := newTestManager(t)
	qm.Close()

	_, err := qm.SubmitSelect(api.SelectQuery{ColumnClauses: []api.ColumnReferenceExpression{{TableName: "items", ColumnName: "id"}}}, nil)
	assert.True(t, errors.Is(err, ErrManagerClosed))
}
