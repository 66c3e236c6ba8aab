package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"LinkSentry/internal/domain"
)

type stubReviewLog struct {
	pending []domain.ReviewRecord
}

func (s *stubReviewLog) Append(context.Context, domain.ReviewRecord) error { return nil }
func (s *stubReviewLog) MarkReviewed(context.Context, string) error        { return nil }
func (s *stubReviewLog) Pending(context.Context, int) ([]domain.ReviewRecord, error) {
	return s.pending, nil
}

func TestExportPending(t *testing.T) {
	t.Parallel()

	reviews := &stubReviewLog{pending: []domain.ReviewRecord{
		{
			RawURL: "https://shady.test/offer",
			Domain: "shady.test",
			Analysis: domain.Analysis{
				URL:           "https://shady.test/offer",
				Score:         4,
				MaliciousHits: 2,
				Redirects:     0,
			},
			LLMOutput: "RAW_URL: https://shady.test/offer\nSAFE: 0",
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}}

	path := filepath.Join(t.TempDir(), "pending.xlsx")
	count, err := ExportPending(context.Background(), reviews, path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "URL", header)

	url, err := f.GetCellValue(sheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "https://shady.test/offer", url)

	score, err := f.GetCellValue(sheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "4", score)
}

func TestExportPending_EmptyQueue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	count, err := ExportPending(context.Background(), &stubReviewLog{}, path)
	require.NoError(t, err)
	assert.Zero(t, count)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
