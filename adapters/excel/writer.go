package excel

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"adlens/internal/errors"
)

// WriteCSV writes headers plus formatted rows to a CSV file.
func WriteCSV(path string, headers []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(headers); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing CSV")
}

// WriteXLSX writes headers plus formatted rows to Sheet1 of an XLSX file.
func WriteXLSX(path string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "computing header cell")
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrap(err, "writing header cell")
		}
	}
	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return errors.Wrap(err, "computing data cell")
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return errors.Wrapf(err, "writing cell %s", cell)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}

// Describe summarizes a written dataset for CLI output.
func Describe(path string, headers []string, rows [][]string) string {
	return fmt.Sprintf("%s: %d columns, %d rows", path, len(headers), len(rows))
}
