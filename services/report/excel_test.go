package reportsvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/tathmini/core/submission"
)

func Test_excelWriter_WriteReport(t *testing.T) {
	rep := submission.Report{
		Title:    "Geo",
		FileName: "Geo - Results.xlsx",
		Header:   []string{"Student Name", "Email", "Status", "Submission Date", "Marks", "Auto-calculated Score", "Qq1"},
		Rows: [][]string{
			{"Ann", "ann@test.cd", "Completed", "2024-05-10 14:30", "7/8", "2 correct answers", "Kinshasa"},
			{"Cid", "cid@test.cd", "Not Started", "-", "-", "-", ""},
		},
	}

	w := NewExcelWriter()
	assert.Equal(t, xlsxContentType, w.ContentType())

	var buf bytes.Buffer
	require.NoError(t, w.WriteReport(&buf, rep))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{submission.ReportSheetName}, f.GetSheetList())

	rows, err := f.GetRows(submission.ReportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rep.Header, rows[0])
	assert.Equal(t, rep.Rows[0], rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 6)
	assert.Equal(t, rep.Rows[1][:6], rows[2][:6])

	val, err := f.GetCellValue(submission.ReportSheetName, "E2")
	require.NoError(t, err)
	assert.Equal(t, "7/8", val)
}

func Test_excelWriter_emptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExcelWriter().WriteReport(&buf, submission.Report{}))
	assert.NotZero(t, buf.Len())
}
