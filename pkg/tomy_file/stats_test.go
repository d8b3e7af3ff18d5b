package tomy_file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.tomy")
	table := &ColumnarTable{
		NumRows: 4,
		Columns: []AnyColumn{
			&Int64Column{Name: "n", Values: []int64{-3, 10, 5, 0}},
			NewVarcharColumn("s", []string{"ab", "zó", "", "c"}),
		},
	}
	require.NoError(t, table.Serialize(path))

	meta, stats, err := CalculateStats(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), meta.NumRows)
	require.Len(t, stats, 2)

	assert.Equal(t, TypeInt64, stats[0].Type)
	assert.Equal(t, int64(-3), stats[0].Min)
	assert.Equal(t, int64(10), stats[0].Max)
	assert.InDelta(t, 3.0, stats[0].Mean, 1e-9)
	assert.Positive(t, stats[0].CompressedSize)

	assert.Equal(t, "s", stats[1].Name)
	assert.Equal(t, 6, stats[1].TotalBytes)
	assert.Equal(t, 4, stats[1].ASCIIBytes)
}

func TestCalculateStats_MissingFile(t *testing.T) {
	_, _, err := CalculateStats(filepath.Join(t.TempDir(), "absent.tomy"))
	assert.Error(t, err)
}
