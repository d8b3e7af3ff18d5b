package tomy_file

import "math"

// ColumnStats summarizes one column of a table. Min, Max and Mean are set for
// INT64 columns, ASCIIBytes and TotalBytes for VARCHAR columns.
type ColumnStats struct {
	Name           string
	Type           ColumnType
	CompressedSize int64
	Min            int64
	Max            int64
	Mean           float64
	ASCIIBytes     int
	TotalBytes     int
}

// CalculateStats reads the whole file and summarizes every column.
func CalculateStats(filePath string) (*FileMetaData, []ColumnStats, error) {
	meta, err := ReadMetadata(filePath)
	if err != nil {
		return nil, nil, err
	}
	table, err := Deserialize(filePath)
	if err != nil {
		return nil, nil, err
	}

	stats := make([]ColumnStats, 0, len(table.Columns))
	for i, col := range table.Columns {
		s := ColumnStats{Name: col.GetName(), Type: col.GetType(), CompressedSize: meta.Columns[i].CompressedSize}
		switch c := col.(type) {
		case *Int64Column:
			s.Min, s.Max, s.Mean = int64Stats(c.Values)
		case *VarcharColumn:
			s.TotalBytes = len(c.Data)
			for _, b := range c.Data {
				if b < 128 {
					s.ASCIIBytes++
				}
			}
		}
		stats = append(stats, s)
	}
	return meta, stats, nil
}

func int64Stats(values []int64) (minV, maxV int64, mean float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	minV, maxV = math.MaxInt64, math.MinInt64
	var sum float64
	for _, v := range values {
		minV = min(minV, v)
		maxV = max(maxV, v)
		sum += float64(v)
	}
	return minV, maxV, sum / float64(len(values))
}
