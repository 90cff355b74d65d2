package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phillip-england/tipsheet/internal/payroll"
	"github.com/xuri/excelize/v2"
)

// ReadHoursFile reads the hours section back out of a rendered report.
func ReadHoursFile(path string) (*payroll.HoursTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadHours(f)
}

// ReadHours rebuilds the hours table from the first section of the sheet:
// the two header rows and the employee rows above ROLE TOTALS.
func ReadHours(f *excelize.File) (*payroll.HoursTable, error) {
	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SheetName, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("read %s: missing header rows", SheetName)
	}

	buckets := headerBuckets(rows[0], rows[1])
	table := payroll.NewHoursTable()
	for i, row := range rows[2:] {
		name := cell(row, 0)
		if name == "" || name == LabelRoleTotals {
			break
		}
		for _, c := range buckets {
			raw := cell(row, c.index)
			if raw == "" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: invalid hours %q", i+3, c.bucket, raw)
			}
			table.Add(name, c.bucket, value)
		}
	}
	return table, nil
}

type headerColumn struct {
	index  int
	bucket payroll.Bucket
}

// headerBuckets maps sheet columns to buckets. Merged header cells only
// carry their value in the first column, so a blank top cell belongs to the
// role on its left.
func headerBuckets(top, sub []string) []headerColumn {
	var out []headerColumn
	role := ""
	for col := 1; col < len(top) || col < len(sub); col++ {
		if v := cell(top, col); v != "" {
			role = v
		}
		if role == LabelTotalHours || role == LabelTotalTips {
			break
		}
		switch period := cell(sub, col); period {
		case payroll.PeriodLunch, payroll.PeriodDinner:
			out = append(out, headerColumn{index: col, bucket: payroll.RoleBucket(role, period)})
		default:
			out = append(out, headerColumn{index: col, bucket: payroll.RoleBucket(role, "")})
		}
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
