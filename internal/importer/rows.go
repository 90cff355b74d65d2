// Package importer turns timeclock and tip exports into row grids and typed
// records.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxXLSRows = 100000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRowsFile opens path and reads its first worksheet (or CSV body) as rows.
func ReadRowsFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadRows(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// ReadRows reads a CSV, XLS or XLSX export into a grid of cell strings. The
// format is chosen from the filename extension; unknown extensions are read
// as CSV.
func ReadRows(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		return readXLS(data)
	case ".xlsx", ".xlsm":
		return readXLSX(data)
	default:
		return readCSV(data)
	}
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	// encoding/csv skips blank lines. They are kept as empty rows so that
	// fixed row offsets count lines of the file, as spreadsheet readers do.
	var rows [][]string
	nextLine := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := r.FieldPos(0)
		for ; nextLine < line; nextLine++ {
			rows = append(rows, []string{})
		}
		last := len(record) - 1
		lastLine, _ := r.FieldPos(last)
		nextLine = lastLine + strings.Count(record[last], "\n") + 1
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, errors.New("file is empty")
	}
	return rows, nil
}

func readXLS(data []byte) (rows [][]string, err error) {
	// The xls decoder panics on some malformed workbooks.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("unreadable xls workbook: %v", r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if workbook.NumSheets() == 0 {
		return nil, errors.New("no worksheet found")
	}
	rows = workbook.ReadAllCells(maxXLSRows)
	if len(rows) == 0 {
		return nil, errors.New("worksheet is empty")
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no worksheet found")
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("worksheet is empty")
	}
	return rows, nil
}
