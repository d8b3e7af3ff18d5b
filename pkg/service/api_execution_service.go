package service

import (
	"context"
	"fmt"
	"net/http"

	"vexec/pkg/api"
	"vexec/pkg/engine"
	"vexec/pkg/engine/plan"
)

var stateToStatus = map[engine.QueryState]api.QueryStatus{
	engine.QueryStatePending:  api.CREATED,
	engine.QueryStateRunning:  api.RUNNING,
	engine.QueryStateFinished: api.COMPLETED,
	engine.QueryStateFailed:   api.FAILED,
}

type ExecutionAPIService struct {
	QueryManager *engine.QueryManager
}

func NewExecutionAPIService(qm *engine.QueryManager) *ExecutionAPIService {
	return &ExecutionAPIService{QueryManager: qm}
}

// GetQueries - list of queries with their status
func (s *ExecutionAPIService) GetQueries(ctx context.Context) (ImplResponse, error) {
	allInfos := s.QueryManager.GetAllQueriesInfo()

	queries := make([]api.ShallowQuery, 0, len(allInfos))
	for _, info := range allInfos {
		queries = append(queries, api.ShallowQuery{QueryId: info.Id, Status: stateToStatus[info.State]})
	}
	return Response(http.StatusOK, queries), nil
}

// GetQueryById - detailed status of the selected query
func (s *ExecutionAPIService) GetQueryById(ctx context.Context, queryId string) (ImplResponse, error) {
	info, exists := s.QueryManager.GetQueryInfo(queryId)
	if !exists {
		return Response(http.StatusNotFound, api.Error{Message: "Query not found"}), nil
	}

	return Response(http.StatusOK, api.Query{
		QueryId:           queryId,
		Status:            stateToStatus[info.State],
		IsResultAvailable: info.State == engine.QueryStateFinished && info.Kind != engine.QueryKindCopy,
		QueryDefinition:   info.Definition,
	}), nil
}

// SubmitQuery - submit a SELECT or COPY query
func (s *ExecutionAPIService) SubmitQuery(ctx context.Context, req api.ExecuteQueryRequest) (ImplResponse, error) {
	if err := api.AssertQueryQueryDefinitionRequired(req.QueryDefinition); err != nil {
		return Response(http.StatusBadRequest, api.ToProblems(err)), nil
	}

	var (
		queryId string
		err     error
	)
	switch q := req.QueryDefinition.Definition.(type) {
	case api.SelectQuery:
		queryId, err = s.QueryManager.SubmitSelect(q, req.QueryDefinition)
	case api.CopyQuery:
		queryId, err = s.QueryManager.SubmitCopy(q.DestinationTableName, q.SourceFilepath, q.DestinationColumns, q.DoesCsvContainHeader, req.QueryDefinition)
	}
	if err != nil {
		return Response(http.StatusBadRequest, api.ToProblems(err)), nil
	}
	return Response(http.StatusOK, queryId), nil
}

// SubmitPlan - submit an already serialized plan
func (s *ExecutionAPIService) SubmitPlan(ctx context.Context, queryPlan *plan.QueryPlan) (ImplResponse, error) {
	queryId, err := s.QueryManager.SubmitPlan(queryPlan)
	if err != nil {
		return Response(http.StatusBadRequest, api.ToProblems(err)), nil
	}
	return Response(http.StatusOK, queryId), nil
}

// GetQueryResult - result of the selected query
func (s *ExecutionAPIService) GetQueryResult(ctx context.Context, queryId string, req api.GetQueryResultRequest) (ImplResponse, error) {
	info, exists := s.QueryManager.GetQueryInfo(queryId)
	if !exists {
		return Response(http.StatusNotFound, api.Error{Message: "Query not found"}), nil
	}
	if info.Kind == engine.QueryKindCopy {
		return Response(http.StatusBadRequest, api.Error{Message: "COPY queries do not return a result set"}), nil
	}
	if info.State != engine.QueryStateFinished {
		return Response(http.StatusBadRequest, api.Error{Message: fmt.Sprintf("Query is in state %s", info.State)}), nil
	}

	result, err := s.QueryManager.GetQueryResult(queryId, req.FlushResult, req.RowLimit)
	if err != nil {
		return Response(http.StatusNotFound, api.Error{Message: err.Error()}), nil
	}
	return Response(http.StatusOK, []any{result}), nil
}

// GetQueryError - error of the selected query
func (s *ExecutionAPIService) GetQueryError(ctx context.Context, queryId string) (ImplResponse, error) {
	info, exists := s.QueryManager.GetQueryInfo(queryId)
	if !exists {
		return Response(http.StatusNotFound, api.Error{Message: "Query not found"}), nil
	}
	if info.State != engine.QueryStateFailed {
		return Response(http.StatusBadRequest, api.Error{Message: "Query did not fail"}), nil
	}
	return Response(http.StatusOK, api.ToProblems(info.Error)), nil
}
