package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeNullableIsIdempotent(t *testing.T) {
	once := MakeNullable(Int64)
	twice := MakeNullable(once)

	assert.True(t, once.IsNullable())
	assert.Same(t, once, twice)
	assert.Equal(t, "NULLABLE(INT64)", twice.Name())
	assert.True(t, RemoveNullable(twice).Equal(Int64))
	assert.Nil(t, MakeNullable(nil))
}

func TestDataTypeEqual(t *testing.T) {
	assert.True(t, Int64.Equal(Int64))
	assert.False(t, Int64.Equal(Varchar))
	assert.False(t, Int64.Equal(MakeNullable(Int64)))
	assert.True(t, MakeNullable(Varchar).Equal(MakeNullable(Varchar)))
	assert.Equal(t, ChunkColumnTypeVarchar, MakeNullable(Varchar).ColumnType())
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in       string
		expected DataType
		wantErr  bool
	}{
		{in: "INT64", expected: Int64},
		{in: "varchar", expected: Varchar},
		{in: " BOOLEAN ", expected: Boolean},
		{in: "NULLABLE(INT64)", expected: MakeNullable(Int64)},
		{in: "NULLABLE(NULLABLE(INT64))", expected: MakeNullable(Int64)},
		{in: "NULLABLE(INT64", wantErr: true},
		{in: "FLOAT", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDataType(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected.Name(), got.Name())
		})
	}
}
