package api

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vexec/pkg/engine/types"
)

func TestQueryQueryDefinition_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    QueryDefinition
		wantErr bool
	}{
		{
			name:  "select",
			input: `{"columnClauses":[{"columnName":"a"},{"tableName":"t","columnName":"b"}],"limitClause":{"limit":3}}`,
			want: SelectQuery{
				ColumnClauses: []ColumnReferenceExpression{{ColumnName: "a"}, {TableName: "t", ColumnName: "b"}},
				LimitClause:   &LimitExpression{Limit: 3},
			},
		},
		{
			name:  "copy",
			input: `{"sourceFilepath":"/tmp/x.csv","destinationTableName":"t","doesCsvContainHeader":true}`,
			want:  CopyQuery{SourceFilepath: "/tmp/x.csv", DestinationTableName: "t", DoesCsvContainHeader: true},
		},
		{
			name:    "ambiguous",
			input:   `{"sourceFilepath":"x","columnClauses":[]}`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			input:   `{"columnClauses":[],"whereClause":{}}`,
			wantErr: true,
		},
		{
			name:    "neither",
			input:   `{}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var q QueryQueryDefinition
			err := json.Unmarshal([]byte(tc.input), &q)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.Definition)
			assert.NoError(t, AssertQueryQueryDefinitionRequired(q))
		})
	}
}

func TestToProblems(t *testing.T) {
	ve := &types.ValidationError{}
	ve.Add("unknown column x", "ColumnClauses 0")
	ve.Add("limit must be non-negative", "LimitClause")

	problems := ToProblems(errors.Wrap(ve, "planning"))
	require.Len(t, problems.Problems, 2)
	assert.Equal(t, "ColumnClauses 0", problems.Problems[0].Context)

	single := ToProblems(errors.New("boom"))
	assert.Equal(t, []MultipleProblemsErrorProblemsInner{{Error: "boom"}}, single.Problems)
}
