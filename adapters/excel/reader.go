package excel

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"adlens/domain/campaign"
	"adlens/internal/errors"
)

// DataReader loads campaign data from XLSX or CSV files into a typed table.
// Column typing is inferred per column: values that mostly parse as dates
// become a time column, mostly-numeric columns become numeric, everything
// else is a label column. Column names are taken verbatim from the header.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for the given path. The format is inferred
// from the extension; anything that is not .csv is treated as XLSX.
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Read loads the file into a campaign table.
func (r *DataReader) Read() (*campaign.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound("data file " + r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readXLSX()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("data file must have a header row and at least one data row")
	}
	return buildTable(rows[0], rows[1:])
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.ReadError("failed to open CSV file", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.ReadError("failed to read CSV file", err)
	}
	return rows, nil
}

func (r *DataReader) readXLSX() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.ReadError("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.ReadError("failed to read sheet "+sheet, err)
	}
	return rows, nil
}

// buildTable infers a type per column and assembles the typed table.
func buildTable(header []string, records [][]string) (*campaign.Table, error) {
	t := campaign.NewTable(len(records))

	for col, rawName := range header {
		name := strings.TrimSpace(rawName)
		if name == "" {
			continue
		}

		cells := make([]string, len(records))
		for i, rec := range records {
			if col < len(rec) {
				cells[i] = strings.TrimSpace(rec[col])
			}
		}

		switch inferType(cells) {
		case campaign.ColumnTime:
			values := make([]time.Time, len(cells))
			for i, cell := range cells {
				values[i], _ = parseDate(cell) // zero time marks unparsable
			}
			if err := t.AddTime(name, values); err != nil {
				return nil, errors.Wrapf(err, "adding time column %s", name)
			}
		case campaign.ColumnNumeric:
			values := make([]float64, len(cells))
			for i, cell := range cells {
				if v, ok := parseNumber(cell); ok {
					values[i] = v
				} else {
					values[i] = math.NaN()
				}
			}
			if err := t.AddNumeric(name, values); err != nil {
				return nil, errors.Wrapf(err, "adding numeric column %s", name)
			}
		default:
			if err := t.AddLabel(name, cells); err != nil {
				return nil, errors.Wrapf(err, "adding label column %s", name)
			}
		}
	}
	return t, nil
}

// inferType votes over the non-empty cells. Dates win over numbers so that
// serial-looking date formats stay dates.
func inferType(cells []string) campaign.ColumnType {
	dates, numbers, nonEmpty := 0, 0, 0
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		nonEmpty++
		if _, ok := parseDate(cell); ok {
			dates++
		}
		if _, ok := parseNumber(cell); ok {
			numbers++
		}
	}
	if nonEmpty == 0 {
		return campaign.ColumnLabel
	}
	if dates*2 > nonEmpty {
		return campaign.ColumnTime
	}
	if numbers*2 > nonEmpty {
		return campaign.ColumnNumeric
	}
	return campaign.ColumnLabel
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	time.RFC3339,
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumber(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
