package reportsvc

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/tathmini/core/submission"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type excelWriter struct{}

var _ submission.ReportWriter = (*excelWriter)(nil)

// NewExcelWriter writes reports as .xlsx workbooks of a single sheet.
func NewExcelWriter() submission.ReportWriter {
	return &excelWriter{}
}

func (excelWriter) ContentType() string { return xlsxContentType }

func (excelWriter) WriteReport(w io.Writer, rep submission.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := submission.ReportSheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	if err := setRow(f, sheet, 1, rep.Header); err != nil {
		return err
	}
	for i, row := range rep.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if len(rep.Header) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return errors.Wrap(err, "creating header style")
		}
		last, err := excelize.CoordinatesToCellName(len(rep.Header), 1)
		if err != nil {
			return errors.Wrap(err, "locating header")
		}
		if err = f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return errors.Wrap(err, "styling header")
		}
		lastCol, _ := excelize.ColumnNumberToName(len(rep.Header))
		if err = f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
			return errors.Wrap(err, "sizing columns")
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return errors.Wrap(err, "locating row")
	}
	row := make([]interface{}, 0, len(values))
	for _, v := range values {
		row = append(row, v)
	}
	if err = f.SetSheetRow(sheet, cell, &row); err != nil {
		return errors.Wrapf(err, "writing row %d", rowNum)
	}
	return nil
}
