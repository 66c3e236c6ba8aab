package report

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"LinkSentry/internal/ports"
)

const (
	sheetName   = "Pending Reviews"
	exportLimit = 500
)

// ExportPending writes the pending review queue to an .xlsx workbook so
// reviewers can work through the backlog offline.
func ExportPending(ctx context.Context, reviews ports.ReviewLog, path string) (int, error) {
	pending, err := reviews.Pending(ctx, exportLimit)
	if err != nil {
		return 0, fmt.Errorf("query pending reviews: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return 0, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"URL", "Domain", "Score", "Malicious Hits", "Redirects", "Rendered", "Timestamp", "Model Output"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
	}

	for i, rec := range pending {
		row := i + 2
		values := []any{
			rec.RawURL,
			rec.Domain,
			rec.Analysis.Score,
			rec.Analysis.MaliciousHits,
			rec.Analysis.Redirects,
			rec.Analysis.Rendered,
			rec.Timestamp.Format(time.RFC3339),
			rec.LLMOutput,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return 0, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save workbook: %w", err)
	}
	return len(pending), nil
}
