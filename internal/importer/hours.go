package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/phillip-england/tipsheet/internal/payroll"
)

// ErrMissingColumn is returned when the hours export lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column headings of the timeclock hours export.
const (
	ColumnFirst   = "First"
	ColumnLast    = "Last"
	ColumnRole    = "Role"
	ColumnInTime  = "In Time"
	ColumnOutTime = "Out Time"
	ColumnRegular = "Regular hours"
)

var requiredHoursColumns = []string{ColumnFirst, ColumnLast, ColumnRole, ColumnInTime, ColumnOutTime, ColumnRegular}

type hoursRow struct {
	First   string `csv:"First"`
	Last    string `csv:"Last"`
	Role    string `csv:"Role"`
	InTime  string `csv:"In Time"`
	OutTime string `csv:"Out Time"`
	Regular string `csv:"Regular hours"`
}

func (r hoursRow) blank() bool {
	return strings.TrimSpace(r.First) == "" &&
		strings.TrimSpace(r.Last) == "" &&
		strings.TrimSpace(r.InTime) == "" &&
		strings.TrimSpace(r.OutTime) == "" &&
		strings.TrimSpace(r.Regular) == ""
}

// ParseHours decodes the hours export. The first non-blank row is the
// header; extra columns are ignored and blank rows are skipped.
func ParseHours(rows [][]string) ([]payroll.Shift, error) {
	headerLine := 0
	for len(rows) > 0 && blankRow(rows[0]) {
		rows = rows[1:]
		headerLine++
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: export has no header row", ErrMissingColumn)
	}

	header := make([]string, len(rows[0]))
	present := make(map[string]bool, len(header))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
		present[header[i]] = true
	}
	var missing []string
	for _, name := range requiredHoursColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	if len(rows) == 1 {
		return nil, nil
	}

	grid := make([][]string, 0, len(rows))
	grid = append(grid, header)
	for _, row := range rows[1:] {
		grid = append(grid, fitRow(row, len(header)))
	}

	var records []hoursRow
	if err := gocsv.UnmarshalCSV(&rowsReader{rows: grid}, &records); err != nil {
		return nil, fmt.Errorf("decode hours export: %w", err)
	}

	shifts := make([]payroll.Shift, 0, len(records))
	for i, rec := range records {
		if rec.blank() {
			continue
		}
		shift, err := rec.shift()
		if err != nil {
			return nil, fmt.Errorf("hours row %d: %w", headerLine+i+2, err)
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}

func (r hoursRow) shift() (payroll.Shift, error) {
	clockIn, err := parseOptionalClock(r.InTime)
	if err != nil {
		return payroll.Shift{}, fmt.Errorf("in time: %w", err)
	}
	clockOut, err := parseOptionalClock(r.OutTime)
	if err != nil {
		return payroll.Shift{}, fmt.Errorf("out time: %w", err)
	}
	regular, err := parseHours(r.Regular)
	if err != nil {
		return payroll.Shift{}, err
	}
	return payroll.Shift{
		Employee:     strings.TrimSpace(strings.TrimSpace(r.First) + " " + strings.TrimSpace(r.Last)),
		Role:         strings.TrimSpace(r.Role),
		ClockIn:      clockIn,
		ClockOut:     clockOut,
		RegularHours: regular,
	}, nil
}

func parseOptionalClock(value string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return payroll.ParseClock(value)
}

func parseHours(value string) (float64, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if trimmed == "" {
		return 0, nil
	}
	hours, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid regular hours %q", value)
	}
	return hours, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// rowsReader feeds an already-read grid to gocsv.
type rowsReader struct {
	rows [][]string
	pos  int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}
