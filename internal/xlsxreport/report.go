// =============================================================================
// Product Feed - XLSX Report
// =============================================================================
//
// Writes a spreadsheet with one row per product and one row per skipped
// line, for people who review the feed by hand.
//
// SHEETS:
//   Products  header row of catalog field names, then one row per record.
//             Integers and booleans are stored as native cell values.
//   Errors    Source | Line | Error, one row per malformed line.
//
// =============================================================================

package xlsxreport

import (
	"fmt"

	"github.com/popiel/code-exercise-services/internal/feed"
	"github.com/popiel/code-exercise-services/internal/record"
	"github.com/popiel/code-exercise-services/internal/xmlwriter"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	ProductsSheet = "Products"
	ErrorsSheet   = "Errors"
)

// errorColumns heads the Errors sheet.
var errorColumns = []any{"Source", "Line", "Error"}

// Write builds the report and saves it to path.
//
// PARAMETERS:
//   - path: Destination .xlsx file.
//   - catalog: Supplies the column order of the Products sheet.
//   - rows: Evaluated records.
//   - skipped: Malformed lines.
//
// RETURNS:
//   - An error if a sheet cannot be built or the file cannot be saved.
func Write(path string, catalog *record.Catalog, rows []xmlwriter.Row, skipped []*feed.LineError) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ProductsSheet); err != nil {
		return fmt.Errorf("failed to name products sheet: %w", err)
	}
	if _, err := f.NewSheet(ErrorsSheet); err != nil {
		return fmt.Errorf("failed to add errors sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeProducts(f, catalog, rows, header); err != nil {
		return err
	}
	if err := writeErrors(f, skipped, header); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func writeProducts(f *excelize.File, catalog *record.Catalog, rows []xmlwriter.Row, header int) error {
	entries := catalog.Entries()
	columns := make([]any, 0, len(entries)+1)
	columns = append(columns, "line")
	for _, entry := range entries {
		columns = append(columns, entry.Name())
	}
	if err := writeHeader(f, ProductsSheet, columns, header); err != nil {
		return err
	}

	for i, row := range rows {
		values := make([]any, 0, len(row.Fields)+1)
		values = append(values, row.Line)
		for _, field := range row.Fields {
			values = append(values, cellValue(field.Value))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ProductsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write product row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeErrors(f *excelize.File, skipped []*feed.LineError, header int) error {
	if err := writeHeader(f, ErrorsSheet, errorColumns, header); err != nil {
		return err
	}
	for i, lineErr := range skipped {
		values := []any{lineErr.Source, lineErr.Line, lineErr.Err.Error()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ErrorsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write error row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(ErrorsSheet, "C", "C", 80)
}

func writeHeader(f *excelize.File, sheet string, columns []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue keeps numbers and booleans native; everything else is text.
func cellValue(v any) any {
	switch x := v.(type) {
	case int64, int, bool:
		return x
	case decimal.Decimal:
		return x.InexactFloat64()
	default:
		return record.FormatValue(v)
	}
}
