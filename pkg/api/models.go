package api

import "github.com/cockroachdb/errors"

type SystemInformation struct {
	Version          string `json:"version"`
	InterfaceVersion string `json:"interfaceVersion"`
	Uptime           int64  `json:"uptime"`
	Parallelism      int    `json:"parallelism"`
}

type LogicalColumnType string

const (
	INT64   LogicalColumnType = "INT64"
	VARCHAR LogicalColumnType = "VARCHAR"
)

func (t LogicalColumnType) IsValid() bool {
	return t == INT64 || t == VARCHAR
}

type Column struct {
	Name     string            `json:"name"`
	Type     LogicalColumnType `json:"type"`
	Nullable bool              `json:"nullable,omitempty"`
}

type TableSchema struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type ShallowTable struct {
	TableId string `json:"tableId"`
	Name    string `json:"name"`
}

type QueryStatus string

const (
	CREATED   QueryStatus = "CREATED"
	RUNNING   QueryStatus = "RUNNING"
	COMPLETED QueryStatus = "COMPLETED"
	FAILED    QueryStatus = "FAILED"
)

type ShallowQuery struct {
	QueryId string      `json:"queryId"`
	Status  QueryStatus `json:"status"`
}

type Query struct {
	QueryId           string      `json:"queryId"`
	Status            QueryStatus `json:"status"`
	IsResultAvailable bool        `json:"isResultAvailable"`
	QueryDefinition   any         `json:"queryDefinition,omitempty"`
}

type ColumnReferenceExpression struct {
	TableName  string `json:"tableName,omitempty"`
	ColumnName string `json:"columnName"`
}

type OrderByExpression struct {
	ColumnIndex int32 `json:"columnIndex"`
	Ascending   bool  `json:"ascending"`
}

type LimitExpression struct {
	Limit int32 `json:"limit"`
}

// SelectQuery projects columns of a single table.
type SelectQuery struct {
	ColumnClauses []ColumnReferenceExpression `json:"columnClauses"`
	OrderByClause []OrderByExpression         `json:"orderByClause,omitempty"`
	LimitClause   *LimitExpression            `json:"limitClause,omitempty"`
}

type CopyQuery struct {
	SourceFilepath       string   `json:"sourceFilepath"`
	DestinationTableName string   `json:"destinationTableName"`
	DestinationColumns   []string `json:"destinationColumns,omitempty"`
	DoesCsvContainHeader bool     `json:"doesCsvContainHeader,omitempty"`
}

type ExecuteQueryRequest struct {
	QueryDefinition QueryQueryDefinition `json:"queryDefinition"`
}

type GetQueryResultRequest struct {
	RowLimit    int32 `json:"rowLimit,omitempty"`
	FlushResult bool  `json:"flushResult,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}

type MultipleProblemsErrorProblemsInner struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}

type MultipleProblemsError struct {
	Problems []MultipleProblemsErrorProblemsInner `json:"problems"`
}

func NewProblem(msg string) MultipleProblemsError {
	return MultipleProblemsError{Problems: []MultipleProblemsErrorProblemsInner{{Error: msg}}}
}

func AssertSelectQueryRequired(q SelectQuery) error {
	if len(q.ColumnClauses) == 0 {
		return errors.New("no columns specified for SELECT")
	}
	for i, c := range q.ColumnClauses {
		if c.ColumnName == "" {
			return errors.Newf("column clause %d has no column name", i)
		}
	}
	return nil
}

func AssertCopyQueryRequired(q CopyQuery) error {
	if q.DestinationTableName == "" || q.SourceFilepath == "" {
		return errors.New("missing destination table or source filepath for COPY")
	}
	return nil
}
