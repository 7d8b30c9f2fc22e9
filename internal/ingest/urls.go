// Package ingest parses uploaded URL lists out of CSV and XLSX files.
// Anything that is not an absolute http(s) URL is counted and skipped, so
// one bad row never sinks a batch.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Stats summarizes one parsed upload.
type Stats struct {
	Rows    int
	URLs    int
	Skipped int
}

// FromCSV reads URLs from a CSV stream. Every cell in every row is
// considered; header rows fall out naturally because header text is not a
// URL.
func FromCSV(r io.Reader, logger *slog.Logger) ([]string, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var urls []string
	var stats Stats
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read csv: %w", err)
		}
		stats.Rows++
		for _, cell := range record {
			collect(cell, &urls, &stats)
		}
	}

	logger.Info("ingest.csv.ok", "rows", stats.Rows, "urls", stats.URLs, "skipped", stats.Skipped)
	return urls, stats, nil
}

// FromXLSX reads URLs from every cell of the first sheet of a workbook.
func FromXLSX(r io.Reader, logger *slog.Logger) ([]string, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn("ingest.xlsx.close_error", "error", cerr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, Stats{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var urls []string
	var stats Stats
	for _, row := range rows {
		stats.Rows++
		for _, cell := range row {
			collect(cell, &urls, &stats)
		}
	}

	logger.Info("ingest.xlsx.ok", "sheet", sheets[0], "rows", stats.Rows, "urls", stats.URLs, "skipped", stats.Skipped)
	return urls, stats, nil
}

func collect(cell string, urls *[]string, stats *Stats) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return
	}
	if !IsHTTPURL(trimmed) {
		stats.Skipped++
		return
	}
	*urls = append(*urls, trimmed)
	stats.URLs++
}

// IsHTTPURL reports whether s is an absolute http or https URL.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
