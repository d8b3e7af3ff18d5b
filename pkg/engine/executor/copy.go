package executor

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/planner"
	"vexec/pkg/metadata"
	"vexec/pkg/tomy_file"
)

func readCSV(path string, hasHeader bool) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if hasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, errors.Wrap(err, "reading CSV header")
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV")
	}
	if len(records) == 0 {
		return nil, errors.New("empty CSV, no data imported")
	}
	return records, nil
}

// createCsvToTableMap maps CSV column positions to table column positions.
func createCsvToTableMap(columnsMapping []string, schemaColumns []metadata.ColumnDef) (map[int]int, error) {
	csvToTableMap := make(map[int]int)
	if columnsMapping == nil {
		for i := range schemaColumns {
			csvToTableMap[i] = i
		}
		return csvToTableMap, nil
	}

	tableColToIndex := make(map[string]int)
	for i, col := range schemaColumns {
		tableColToIndex[col.Name] = i
	}
	for csvIdx, colName := range columnsMapping {
		targetIdx, ok := tableColToIndex[colName]
		if !ok {
			return nil, errors.Newf("column %s from CSV mapping not found in table definition", colName)
		}
		csvToTableMap[csvIdx] = targetIdx
	}
	if len(csvToTableMap) != len(schemaColumns) {
		return nil, errors.Newf("CSV mapping covers %d of %d table columns", len(csvToTableMap), len(schemaColumns))
	}
	return csvToTableMap, nil
}

// ExecuteCopy imports a CSV file into a table, writing one .tomy file per
// maxRowsInFile rows.
func (e *Executor) ExecuteCopy(ctx context.Context, p *planner.CopyPlan) error {
	tableDef, exists := p.Metastore.GetTableByName(p.TableName)
	if !exists {
		return errors.Wrapf(metadata.ErrTableNotFound, "table %s does not exist", p.TableName)
	}

	records, err := readCSV(p.CsvFilePath, p.CsvContainsHeader)
	if err != nil {
		return err
	}
	csvToTableMap, err := createCsvToTableMap(p.ColumnsMapping, tableDef.Columns)
	if err != nil {
		return err
	}

	rowsPerFile := len(records)
	if e.maxRowsInFile > 0 && uint64(rowsPerFile) > e.maxRowsInFile {
		rowsPerFile = int(e.maxRowsInFile)
	}

	for start := 0; start < len(records); start += rowsPerFile {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+rowsPerFile, len(records))
		table, err := buildColumnarTable(records[start:end], start, tableDef.Columns, csvToTableMap)
		if err != nil {
			return err
		}

		fileName := fmt.Sprintf("%s_%d_%d.tomy", p.TableName, time.Now().UnixNano(), start/rowsPerFile)
		outPath := filepath.Join(e.tablesDir, fileName)
		if err := table.Serialize(outPath); err != nil {
			return errors.Wrap(err, "serializing data")
		}
		if err := p.Metastore.AddFile(p.TableName, outPath); err != nil {
			_ = os.Remove(outPath)
			e.logger.Warn("copy finished, but could not add file to metastore", "table", p.TableName, "error", err)
			return errors.Wrapf(err, "table %s was removed during import", p.TableName)
		}
		e.logger.Info("data file written", "table", p.TableName, "path", outPath, "rows", end-start)
	}
	return nil
}

func buildColumnarTable(records [][]string, firstRow int, columns []metadata.ColumnDef, csvToTableMap map[int]int) (*tomy_file.ColumnarTable, error) {
	numRows := len(records)
	builders := make([]tomy_file.AnyColumn, len(columns))
	for i, colDef := range columns {
		switch colDef.Type {
		case metadata.Int64Type:
			builders[i] = &tomy_file.Int64Column{Name: colDef.Name, Values: make([]int64, 0, numRows)}
		case metadata.VarcharType:
			builders[i] = &tomy_file.VarcharColumn{Name: colDef.Name, Offsets: make([]uint64, 0, numRows)}
		default:
			return nil, errors.Newf("unknown column type: %s", colDef.Type)
		}
	}

	for i, record := range records {
		row := firstRow + i
		if len(record) != len(csvToTableMap) {
			return nil, errors.Newf("row %d has %d columns, expected %d", row, len(record), len(csvToTableMap))
		}
		for csvColIdx, value := range record {
			tableColIdx := csvToTableMap[csvColIdx]
			switch col := builders[tableColIdx].(type) {
			case *tomy_file.Int64Column:
				val, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return nil, errors.Newf("row %d, col %s: invalid INT64 %q", row, col.Name, value)
				}
				col.Values = append(col.Values, val)
			case *tomy_file.VarcharColumn:
				col.Offsets = append(col.Offsets, uint64(len(col.Data)))
				col.Data = append(col.Data, value...)
			}
		}
	}

	return &tomy_file.ColumnarTable{NumRows: uint64(numRows), Columns: builders}, nil
}
