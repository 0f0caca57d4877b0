package export

import (
	"fmt"
	"io"

	"github.com/Sternrassler/stars-export/pkg/record"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet written to XLSX exports.
const SheetName = "Sheet1"

// WriteXLSX writes records as a one-sheet workbook.
func WriteXLSX(w io.Writer, records []record.Record) error {
	return writeXLSXRows(w, Rows(records))
}

// ReadXLSX reads every row of the workbook's first sheet.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	// GetRows drops trailing empty cells; pad back to the header width.
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row
		}
	}
	return rows, nil
}

func writeXLSXRows(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}

		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
