// Package report renders the payroll summary workbook.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/phillip-england/tipsheet/internal/payroll"
	"github.com/phillip-england/tipsheet/internal/tips"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Payroll Summary"

// Row and header labels written to column A.
const (
	LabelTeamMember       = "Team Member"
	LabelTotalHours       = "Total Hours"
	LabelTotalTips        = "Total Tips"
	LabelRoleTotals       = "ROLE TOTALS"
	LabelLunchTips        = "LUNCH TIPS"
	LabelDinnerGeneral    = "DINNER TIPS GENERAL"
	LabelDinnerServers    = "DINNER TIPS SERVERS"
	LabelTipTotal         = "TOTAL"
	LabelIndividualTips   = "INDIVIDUAL EMPLOYEE TIPS"
	LabelIndividualTotals = "INDIVIDUAL TOTALS"
)

const (
	nameColumnWidth = 25
	dataColumnWidth = 15
)

// Model is everything the sheet shows. Tips is nil when no tip summary was
// available; only the hours section is rendered then.
type Model struct {
	Hours   *payroll.HoursTable
	Columns []payroll.Column
	Tips    *tips.Report
}

// Layout records the 1-based rows each section was written to. Tip rows are
// zero when the model has no tips.
type Layout struct {
	FirstDataRow        int
	RoleTotalsRow       int
	LunchTipsRow        int
	DinnerGeneralRow    int
	DinnerServersRow    int
	TipTotalRow         int
	IndividualTitleRow  int
	IndividualDataRow   int
	IndividualTotalsRow int
	TotalColumn         int
}

// Render builds the workbook in memory.
func Render(m Model) (*excelize.File, Layout, error) {
	if m.Hours == nil {
		return nil, Layout{}, fmt.Errorf("render report: no hours")
	}
	columns := m.Columns
	if len(columns) == 0 {
		columns = payroll.ReportColumns()
	}
	var buckets []payroll.Bucket
	for _, c := range columns {
		buckets = append(buckets, c.Buckets()...)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, Layout{}, fmt.Errorf("name sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: SheetName, styles: newStyleCache(f)}
	r := &renderer{w: w, model: m, columns: columns, buckets: buckets}
	layout := r.render()
	if w.err != nil {
		_ = f.Close()
		return nil, Layout{}, fmt.Errorf("render report: %w", w.err)
	}
	return f, layout, nil
}

// Save renders the model and writes it to path. The workbook is written to
// a temporary file in the same directory and renamed into place, so path
// never holds a partial report.
func Save(m Model, path string) (Layout, error) {
	f, layout, err := Render(m)
	if err != nil {
		return Layout{}, err
	}
	defer func() { _ = f.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tipsheet-*.xlsx")
	if err != nil {
		return Layout{}, fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return Layout{}, fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return Layout{}, fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return Layout{}, fmt.Errorf("move report into place: %w", err)
	}
	return layout, nil
}

type renderer struct {
	w       *sheetWriter
	model   Model
	columns []payroll.Column
	buckets []payroll.Bucket
}

func (r *renderer) totalColumn() int {
	return len(r.buckets) + 2
}

func (r *renderer) render() Layout {
	hours := r.model.Hours
	employees := hours.Employees()
	layout := Layout{FirstDataRow: 3, TotalColumn: r.totalColumn()}

	r.writeHeader(1, LabelTotalHours)

	for i, employee := range employees {
		row := layout.FirstDataRow + i
		salaried := hours.IsSalaried(employee)
		r.w.set(1, row, employee, cellStyle{})
		for j, b := range r.buckets {
			r.w.set(j+2, row, hours.Hours(employee, b), hoursStyle(salaried))
		}
		r.w.set(layout.TotalColumn, row, hours.Subtotal(employee, r.buckets), hoursStyle(salaried))
	}

	layout.RoleTotalsRow = layout.FirstDataRow + len(employees)
	r.w.set(1, layout.RoleTotalsRow, LabelRoleTotals, labelStyle(colorMainHeader))
	grand := 0.0
	for j, b := range r.buckets {
		total := hours.BucketTotal(b)
		grand += total
		r.w.set(j+2, layout.RoleTotalsRow, total, totalsStyle(colorRoleTotals, formatHours))
	}
	r.w.set(layout.TotalColumn, layout.RoleTotalsRow, grand, totalsStyle(colorRoleTotals, formatHours))

	if r.model.Tips == nil {
		r.setWidths()
		return layout
	}
	report := r.model.Tips

	layout.LunchTipsRow = layout.RoleTotalsRow + 2
	layout.DinnerGeneralRow = layout.LunchTipsRow + 1
	layout.DinnerServersRow = layout.DinnerGeneralRow + 1
	r.writePoolRow(layout.LunchTipsRow, LabelLunchTips, tips.PoolLunch, colorLunchLabel, colorLunch)
	r.writePoolRow(layout.DinnerGeneralRow, LabelDinnerGeneral, tips.PoolDinnerGeneral, colorDinnerLabel, colorDinner)
	r.writePoolRow(layout.DinnerServersRow, LabelDinnerServers, tips.PoolDinnerServers, colorServerLabel, colorServer)

	layout.TipTotalRow = layout.DinnerServersRow + 2
	totalLabel := labelStyle(colorTotalLabel)
	totalLabel.size = 12
	totalValue := totalsStyle(colorTotal, formatMoney)
	totalValue.size = 11
	r.w.set(1, layout.TipTotalRow, LabelTipTotal, totalLabel)
	for j, b := range r.buckets {
		r.w.set(j+2, layout.TipTotalRow, money(report.RoleTips[b]), totalValue)
	}
	r.w.set(layout.TotalColumn, layout.TipTotalRow, money(report.GrandTotal), totalValue)

	layout.IndividualTitleRow = layout.TipTotalRow + 3
	title := labelStyle(colorIndividual)
	title.size = 14
	r.w.set(1, layout.IndividualTitleRow, LabelIndividualTips, cellStyle{})
	r.w.merge(1, layout.IndividualTitleRow, layout.TotalColumn, layout.IndividualTitleRow, title)
	r.writeHeader(layout.IndividualTitleRow+1, LabelTotalTips)

	layout.IndividualDataRow = layout.IndividualTitleRow + 3
	for i, employee := range employees {
		row := layout.IndividualDataRow + i
		salaried := hours.IsSalaried(employee)
		nameStyle := cellStyle{horizontal: "left", border: true}
		if salaried {
			nameStyle.fill = colorSalaried
			nameStyle.bold = true
		}
		r.w.set(1, row, employee, nameStyle)
		for j, b := range r.buckets {
			tip := money(report.Tip(employee, b))
			r.w.set(j+2, row, tip, tipStyle(tip, salaried))
		}
		total := money(report.EmployeeTotals[employee])
		r.w.set(layout.TotalColumn, row, total, tipTotalStyle(total, salaried))
	}

	layout.IndividualTotalsRow = layout.IndividualDataRow + len(employees)
	indTotals := cellStyle{fill: colorIndTotals, bold: true, numFmt: formatMoney, horizontal: "center", border: true}
	r.w.set(1, layout.IndividualTotalsRow, LabelIndividualTotals, labelStyle(colorIndividual))
	for j, b := range r.buckets {
		r.w.set(j+2, layout.IndividualTotalsRow, money(report.RoleTips[b]), indTotals)
	}
	r.w.set(layout.TotalColumn, layout.IndividualTotalsRow, money(report.RoleTipsTotal), indTotals)

	r.setWidths()
	return layout
}

// writeHeader writes the two-row column header starting at row.
func (r *renderer) writeHeader(row int, totalLabel string) {
	r.w.set(1, row, LabelTeamMember, cellStyle{})
	r.w.merge(1, row, 1, row+1, styleSingleHeader)

	col := 2
	for _, c := range r.columns {
		r.w.set(col, row, c.Role, cellStyle{})
		if !c.Split {
			r.w.merge(col, row, col, row+1, styleSingleHeader)
			col++
			continue
		}
		r.w.merge(col, row, col+1, row, styleMainHeader)
		r.w.set(col, row+1, payroll.PeriodLunch, styleSubHeader)
		r.w.set(col+1, row+1, payroll.PeriodDinner, styleSubHeader)
		col += 2
	}

	r.w.set(col, row, totalLabel, cellStyle{})
	r.w.merge(col, row, col, row+1, styleSingleHeader)
}

func (r *renderer) writePoolRow(row int, label string, pool tips.Pool, labelFill, fill string) {
	report := r.model.Tips
	r.w.set(1, row, label, labelStyle(labelFill))
	for j, b := range r.buckets {
		r.w.set(j+2, row, money(report.Share(pool, b)), totalsStyle(fill, formatMoney))
	}
	r.w.set(r.totalColumn(), row, money(report.PoolTotals[pool]), totalsStyle(fill, formatMoney))
}

func (r *renderer) setWidths() {
	last, err := excelize.ColumnNumberToName(r.totalColumn())
	if err != nil {
		r.w.fail(err)
		return
	}
	r.w.width("A", "A", nameColumnWidth)
	r.w.width("B", last, dataColumnWidth)
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// sheetWriter wraps the workbook calls and keeps the first error, so the
// layout code reads top to bottom.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	styles *styleCache
	err    error
}

func (w *sheetWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *sheetWriter) set(col, row int, value any, style cellStyle) {
	if w.err != nil {
		return
	}
	cell := cellName(col, row)
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.fail(err)
		return
	}
	if !style.zero() {
		w.apply(cell, cell, style)
	}
}

// merge joins the range and styles every cell in it so borders survive.
func (w *sheetWriter) merge(col1, row1, col2, row2 int, style cellStyle) {
	if w.err != nil {
		return
	}
	from, to := cellName(col1, row1), cellName(col2, row2)
	if err := w.f.MergeCell(w.sheet, from, to); err != nil {
		w.fail(err)
		return
	}
	w.apply(from, to, style)
}

func (w *sheetWriter) apply(from, to string, style cellStyle) {
	id, err := w.styles.id(style)
	if err != nil {
		w.fail(err)
		return
	}
	if err := w.f.SetCellStyle(w.sheet, from, to, id); err != nil {
		w.fail(err)
	}
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err != nil {
		return
	}
	if err := w.f.SetColWidth(w.sheet, from, to, width); err != nil {
		w.fail(err)
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
