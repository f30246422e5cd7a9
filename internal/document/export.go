package document

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	exportScansSheet  = "Scans"
	exportFieldsSheet = "Fields"
)

// exportWorkbook renders scan records as an XLSX workbook: a summary sheet
// with one row per scan, plus a detail sheet with one row per extracted
// field. Rows are ordered by scan creation time.
func exportWorkbook(records []*ScanRecord) ([]byte, error) {
	sorted := make([]*ScanRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportScansSheet); err != nil {
		return nil, fmt.Errorf("naming scans sheet: %w", err)
	}
	if _, err := f.NewSheet(exportFieldsSheet); err != nil {
		return nil, fmt.Errorf("creating fields sheet: %w", err)
	}

	if err := setRow(f, exportScansSheet, 1, []any{"ID", "Profile", "Filename", "Content Type", "Valid", "Error", "Created At"}); err != nil {
		return nil, err
	}
	for i, record := range sorted {
		row := []any{
			record.ID,
			record.Profile,
			record.Filename,
			record.ContentType,
			record.Result.IsValid,
			record.Result.ErrorMessage,
			record.CreatedAt.Format(time.RFC3339),
		}
		if err := setRow(f, exportScansSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := setRow(f, exportFieldsSheet, 1, []any{"Scan ID", "Key", "Type", "Value", "Found", "Confidence"}); err != nil {
		return nil, err
	}
	fieldRow := 2
	for _, record := range sorted {
		for _, field := range record.Result.Fields {
			row := []any{
				record.ID,
				field.Key,
				string(field.Type),
				field.Value,
				field.Found,
				field.Confidence,
			}
			if err := setRow(f, exportFieldsSheet, fieldRow, row); err != nil {
				return nil, err
			}
			fieldRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("rendering workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("addressing cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("writing cell %s: %w", cell, err)
		}
	}
	return nil
}
