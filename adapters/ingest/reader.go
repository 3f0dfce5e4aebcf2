// Package ingest loads the raw schools extract from XLSX or CSV into the
// pipeline's column-typed table. Blank cells become missing values; the
// pipeline never sees raw strings for numeric columns.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"schoolscope/domain/core"
	"schoolscope/domain/schools"
	"schoolscope/domain/table"
	"schoolscope/internal"
	"schoolscope/ports"
)

var _ ports.TableReader = (*Reader)(nil)

// Reader handles reading Excel and CSV extracts
type Reader struct {
	filePath string
	sheet    string
	log      *internal.Logger
}

// NewReader creates a reader for the given file; .csv parses as CSV,
// anything else goes through excelize
func NewReader(filePath, sheet string, log *internal.Logger) *Reader {
	return &Reader{filePath: filePath, sheet: sheet, log: log.Stage("ingest")}
}

// Read loads the extract into a typed table keyed by URN
func (r *Reader) Read(ctx context.Context) (*table.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(r.filePath)) == ".csv" {
		rows, err = r.readCSV()
	} else {
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("input %s has no data rows", r.filePath)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.ToLower(h))
	}
	return r.buildTable(headers, rows[1:])
}

func (r *Reader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

func (r *Reader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", r.sheet, err)
	}
	return rows, nil
}

// buildTable turns header + data rows into typed columns. Column kinds come
// from the schools schema; unknown columns are numeric when every observed
// cell parses, categorical otherwise. Rows without a parseable URN are
// dropped with a count, never silently.
func (r *Reader) buildTable(headers []string, data [][]string) (*table.Table, error) {
	urnIdx := -1
	for i, h := range headers {
		if h == schools.ColURN {
			urnIdx = i
		}
	}
	if urnIdx < 0 {
		return nil, core.NewColumnMissingError(schools.ColURN)
	}

	var ids []core.RecordID
	var kept [][]string
	badURNs := 0
	for _, row := range data {
		if urnIdx >= len(row) {
			badURNs++
			continue
		}
		urn, err := strconv.ParseInt(strings.TrimSpace(row[urnIdx]), 10, 64)
		if err != nil {
			badURNs++
			continue
		}
		ids = append(ids, core.RecordID(urn))
		kept = append(kept, row)
	}
	if badURNs > 0 {
		r.log.Warn("dropped %d rows without a parseable %s", badURNs, schools.ColURN)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("input %s has no rows with a parseable %s", r.filePath, schools.ColURN)
	}

	t := table.New(ids)
	schema := schools.Schema()
	for j, name := range headers {
		if j == urnIdx {
			continue
		}
		cells := make([]string, len(kept))
		for i, row := range kept {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}

		kind, declared := schema[name]
		if !declared {
			kind = inferKind(cells)
		}

		var col *table.Column
		if kind == table.KindNumeric {
			vals := make([]float64, len(cells))
			for i, cell := range cells {
				vals[i] = parseCell(cell)
			}
			col = table.NumericColumn(name, vals)
		} else {
			col = table.CategoricalColumn(name, cells)
		}
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}

	r.log.Info("loaded %d rows, %d columns from %s", t.Rows(), len(t.ColumnNames()), r.filePath)
	return t, nil
}

// inferKind treats an undeclared column as numeric only when every observed
// cell parses as a number
func inferKind(cells []string) table.Kind {
	observed := 0
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		observed++
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return table.KindCategorical
		}
	}
	if observed == 0 {
		return table.KindCategorical
	}
	return table.KindNumeric
}

// parseCell maps blanks and unparseable cells to the missing sentinel
func parseCell(cell string) float64 {
	if cell == "" {
		return table.Missing()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return table.Missing()
	}
	return v
}
