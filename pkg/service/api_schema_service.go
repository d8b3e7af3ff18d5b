package service

import (
	"context"
	"net/http"

	"vexec/pkg/api"
	"vexec/pkg/metadata"
)

type SchemaAPIService struct {
	metastore *metadata.Metastore
}

func NewSchemaAPIService(m *metadata.Metastore) *SchemaAPIService {
	return &SchemaAPIService{metastore: m}
}

// GetTables - list of tables with their ids
func (s *SchemaAPIService) GetTables(ctx context.Context) (ImplResponse, error) {
	names, ids := s.metastore.GetTables()

	tables := make([]api.ShallowTable, 0, len(names))
	for i := range names {
		tables = append(tables, api.ShallowTable{TableId: ids[i], Name: names[i]})
	}
	return Response(http.StatusOK, tables), nil
}

// GetTableById - schema of the selected table
func (s *SchemaAPIService) GetTableById(ctx context.Context, tableId string) (ImplResponse, error) {
	tableDef, exists := s.metastore.GetTableById(tableId)
	if !exists {
		return Response(http.StatusNotFound, api.Error{Message: "Table not found"}), nil
	}

	cols := make([]api.Column, 0, len(tableDef.Columns))
	for _, c := range tableDef.Columns {
		cols = append(cols, api.Column{Name: c.Name, Type: api.LogicalColumnType(c.Type), Nullable: c.Nullable})
	}
	return Response(http.StatusOK, api.TableSchema{Name: tableDef.Name, Columns: cols}), nil
}

func (s *SchemaAPIService) DeleteTable(ctx context.Context, tableId string) (ImplResponse, error) {
	if err := s.metastore.DeleteTable(tableId); err != nil {
		return Response(http.StatusNotFound, api.Error{Message: err.Error()}), nil
	}
	return Response(http.StatusOK, nil), nil
}

func (s *SchemaAPIService) CreateTable(ctx context.Context, tableSchema api.TableSchema) (ImplResponse, error) {
	if tableSchema.Name == "" {
		return Response(http.StatusBadRequest, api.NewProblem("Table must have a name")), nil
	}
	if len(tableSchema.Columns) == 0 {
		return Response(http.StatusBadRequest, api.NewProblem("Table must have at least one column")), nil
	}

	cols := make([]metadata.ColumnDef, 0, len(tableSchema.Columns))
	seenColumns := make(map[string]bool)
	problems := []api.MultipleProblemsErrorProblemsInner{}

	for _, c := range tableSchema.Columns {
		if !c.Type.IsValid() {
			problems = append(problems, api.MultipleProblemsErrorProblemsInner{
				Error:   "Invalid column type: " + string(c.Type),
				Context: c.Name,
			})
		}
		if seenColumns[c.Name] {
			problems = append(problems, api.MultipleProblemsErrorProblemsInner{
				Error: "Duplicate column name: " + c.Name,
			})
		}
		seenColumns[c.Name] = true
		cols = append(cols, metadata.ColumnDef{Name: c.Name, Type: metadata.ColumnType(c.Type), Nullable: c.Nullable})
	}

	if len(problems) > 0 {
		return Response(http.StatusBadRequest, api.MultipleProblemsError{Problems: problems}), nil
	}

	tableId, err := s.metastore.CreateTable(tableSchema.Name, cols)
	if err != nil {
		return Response(http.StatusBadRequest, api.ToProblems(err)), nil
	}
	return Response(http.StatusOK, tableId), nil
}
