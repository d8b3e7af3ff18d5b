package types

type ColumnarResult struct {
	RowCount    uint64   `json:"rowCount"`
	ColumnNames []string `json:"columnNames,omitempty"`
	Columns     []any    `json:"columns"`
}
