package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"vexec/pkg/api"
	"vexec/pkg/engine/executor"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/planner"
	"vexec/pkg/engine/types"
	"vexec/pkg/metadata"
	"vexec/pkg/metrics"
)

type QueryState string

const (
	QueryStatePending  QueryState = "PENDING"
	QueryStateRunning  QueryState = "RUNNING"
	QueryStateFinished QueryState = "FINISHED"
	QueryStateFailed   QueryState = "FAILED"
)

type QueryKind string

const (
	QueryKindSelect QueryKind = "SELECT"
	QueryKindCopy   QueryKind = "COPY"
	QueryKindPlan   QueryKind = "PLAN"
)

var (
	ErrQueryNotFound = errors.New("query not found")
	ErrManagerClosed = errors.New("query manager is closed")
)

type QueryInfo struct {
	Id         string
	Kind       QueryKind
	State      QueryState
	Result     *types.ColumnarResult
	Error      error
	Definition any
}

// QueryManager runs queries asynchronously and keeps their outcome until the
// result is flushed.
type QueryManager struct {
	Planner  *planner.Planner
	Executor *executor.Executor
	Queries  map[string]*QueryInfo
	Mu       sync.RWMutex

	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewQueryManager(m *metadata.Metastore, exec *executor.Executor, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QueryManager{
		Planner:  planner.NewPlanner(m),
		Executor: exec,
		Queries:  make(map[string]*QueryInfo),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close cancels running queries and waits for them to stop.
func (qm *QueryManager) Close() {
	qm.cancel()
	qm.wg.Wait()
}

func (qm *QueryManager) SubmitCopy(tableName, csvPath string, columnsMapping []string, csvContainsHeader bool, queryDefinition any) (string, error) {
	copyPlan, err := qm.Planner.PlanCopy(tableName, csvPath, columnsMapping, csvContainsHeader)
	if err != nil {
		return "", err
	}
	return qm.submit(QueryKindCopy, copyPlan, queryDefinition)
}

func (qm *QueryManager) SubmitSelect(q api.SelectQuery, queryDefinition any) (string, error) {
	selectPlan, err := qm.Planner.PlanSelect(q)
	if err != nil {
		return "", err
	}
	return qm.submit(QueryKindSelect, selectPlan, queryDefinition)
}

// SubmitPlan runs a serialized plan produced outside this process.
func (qm *QueryManager) SubmitPlan(queryPlan *plan.QueryPlan) (string, error) {
	selectPlan, err := qm.Planner.PlanSerialized(queryPlan)
	if err != nil {
		return "", err
	}
	return qm.submit(QueryKindPlan, selectPlan, queryPlan)
}

func (qm *QueryManager) submit(kind QueryKind, queryPlan planner.QueryPlan, definition any) (string, error) {
	if qm.ctx.Err() != nil {
		if sp, ok := queryPlan.(*planner.SelectPlan); ok {
			sp.Release()
		}
		return "", ErrManagerClosed
	}

	queryId := uuid.NewString()
	qm.createQuery(queryId, kind, definition)
	logger := qm.logger.With("query_id", queryId, "kind", kind)
	logger.Info("query submitted")

	qm.wg.Add(1)
	go func() {
		defer qm.wg.Done()
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				err := errors.AssertionFailedf("query panicked: %v", r)
				logger.Error("query panicked", "error", err)
				qm.failQuery(queryId, err)
			}
			metrics.QueryDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		}()

		qm.updateState(queryId, QueryStateRunning)
		result, err := qm.Executor.Execute(qm.ctx, queryId, queryPlan)
		if err != nil {
			logger.Warn("query failed", "error", err)
			qm.failQuery(queryId, err)
			return
		}
		logger.Info("query finished", "duration", time.Since(start))
		qm.finishQuery(queryId, result)
	}()

	return queryId, nil
}

func (qm *QueryManager) GetQueryInfo(queryId string) (*QueryInfo, bool) {
	qm.Mu.RLock()
	defer qm.Mu.RUnlock()
	q, ok := qm.Queries[queryId]
	if !ok {
		return nil, false
	}
	info := *q
	return &info, true
}

func (qm *QueryManager) GetAllQueriesInfo() []QueryInfo {
	qm.Mu.RLock()
	defer qm.Mu.RUnlock()

	result := make([]QueryInfo, 0, len(qm.Queries))
	for _, info := range qm.Queries {
		result = append(result, *info)
	}
	return result
}

// GetQueryResult returns at most rowLimit rows (all when rowLimit <= 0). With
// flushResult the query is forgotten afterwards.
func (qm *QueryManager) GetQueryResult(queryId string, flushResult bool, rowLimit int32) (*types.ColumnarResult, error) {
	qm.Mu.RLock()
	info, ok := qm.Queries[queryId]
	if !ok {
		qm.Mu.RUnlock()
		return nil, errors.Wrapf(ErrQueryNotFound, "query %s", queryId)
	}
	result := info.Result
	qm.Mu.RUnlock()

	result, err := trimResult(result, rowLimit)
	if err != nil {
		return nil, err
	}
	if flushResult {
		qm.flushQueryResult(queryId)
	}
	return result, nil
}

func (qm *QueryManager) flushQueryResult(queryId string) {
	qm.Mu.Lock()
	defer qm.Mu.Unlock()
	delete(qm.Queries, queryId)
}

func (qm *QueryManager) createQuery(id string, kind QueryKind, definition any) {
	qm.Mu.Lock()
	defer qm.Mu.Unlock()
	qm.Queries[id] = &QueryInfo{
		Id:         id,
		Kind:       kind,
		State:      QueryStatePending,
		Definition: definition,
	}
}

func (qm *QueryManager) updateState(id string, state QueryState) {
	qm.Mu.Lock()
	defer qm.Mu.Unlock()
	if q, ok := qm.Queries[id]; ok {
		q.State = state
	}
}

func (qm *QueryManager) failQuery(id string, err error) {
	qm.Mu.Lock()
	defer qm.Mu.Unlock()
	if q, ok := qm.Queries[id]; ok {
		q.State = QueryStateFailed
		q.Error = err
		metrics.QueriesFinished.WithLabelValues(string(QueryStateFailed)).Inc()
	}
}

func (qm *QueryManager) finishQuery(id string, result *types.ColumnarResult) {
	qm.Mu.Lock()
	defer qm.Mu.Unlock()
	if q, ok := qm.Queries[id]; ok {
		q.State = QueryStateFinished
		q.Result = result
		metrics.QueriesFinished.WithLabelValues(string(QueryStateFinished)).Inc()
	}
}

func copySlice[T any](src []T, limit int) []T {
	dst := make([]T, limit)
	copy(dst, src[:limit])
	return dst
}

func trimResult(original *types.ColumnarResult, rowLimit int32) (*types.ColumnarResult, error) {
	if original == nil {
		return nil, nil
	}

	limit := int(original.RowCount)
	if rowLimit > 0 && uint64(rowLimit) < original.RowCount {
		limit = int(rowLimit)
	}

	trimmed := &types.ColumnarResult{
		RowCount:    uint64(limit),
		ColumnNames: original.ColumnNames,
		Columns:     make([]any, len(original.Columns)),
	}
	for i, col := range original.Columns {
		switch v := col.(type) {
		case []int64:
			trimmed.Columns[i] = copySlice(v, limit)
		case []string:
			trimmed.Columns[i] = copySlice(v, limit)
		case []bool:
			trimmed.Columns[i] = copySlice(v, limit)
		default:
			return nil, errors.AssertionFailedf("unsupported result column type %T", col)
		}
	}
	return trimmed, nil
}
