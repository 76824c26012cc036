// Package export renders batch run reports as XLSX workbooks.
package export

import (
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

// DocumentResult is one row of a run report.
type DocumentResult struct {
	Filename    string
	Status      string
	Sections    int
	Failures    int
	PlainPath   string
	SummaryPath string
	Error       string
	Elapsed     time.Duration
}

// Service produces XLSX bytes summarizing a batch run.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RunReportXLSX returns a workbook with one row per processed document.
func (s *Service) RunReportXLSX(results []DocumentResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on Documents.
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Filename",
		"Status",
		"Sections",
		"Section Failures",
		"Plain English Output",
		"Summary Output",
		"Error",
		"Elapsed (s)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.Filename)
		write(2, r.Status)
		write(3, r.Sections)
		write(4, r.Failures)
		write(5, r.PlainPath)
		write(6, r.SummaryPath)
		write(7, r.Error)
		write(8, r.Elapsed.Seconds())
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.report.ok",
		"documents", len(results),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
