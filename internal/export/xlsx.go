// Package export renders a batch of extraction results as an XLSX
// workbook, one row per URL with a stable column order.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bazaarlens/bazaarlens/internal/recovery"
)

// ResultsXLSX returns a workbook with one column per requested field plus
// the url, source, error, and note bookkeeping columns.
func ResultsXLSX(results []recovery.Result, requested []string, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Products"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := append([]string{"URL"}, requested...)
	headers = append(headers, "Source", "Error", "Note")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, r := range results {
		row := rowIdx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.URL)
		for i, name := range requested {
			if v, ok := r.Fields[name]; ok && v != nil {
				write(i+2, v)
			} else {
				write(i+2, "")
			}
		}
		base := len(requested) + 2
		write(base, string(r.Source))
		write(base+1, r.Error)
		write(base+2, r.Note)
	}

	// Widen the URL and trailing columns; field columns keep the default.
	_ = f.SetColWidth(sheet, "A", "A", 60)
	errCol, _ := excelize.ColumnNumberToName(len(requested) + 3)
	noteCol, _ := excelize.ColumnNumberToName(len(requested) + 4)
	_ = f.SetColWidth(sheet, errCol, noteCol, 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(results),
		"fields", len(requested),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
