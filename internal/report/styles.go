package report

import (
	"github.com/xuri/excelize/v2"
)

// Fill colours used across the sheet.
const (
	colorSingleHeader = "808080"
	colorMainHeader   = "4472C4"
	colorSubHeader    = "D9D9D9"
	colorRoleTotals   = "E7E6E6"
	colorSalaried     = "E6F3FF"
	colorSalariedSum  = "B3D9FF"
	colorLunchLabel   = "70AD47"
	colorLunch        = "D5E8D4"
	colorDinnerLabel  = "FF6B35"
	colorDinner       = "FFE5DB"
	colorServerLabel  = "8E44AD"
	colorServer       = "E8DAEF"
	colorTotalLabel   = "2E2E2E"
	colorTotal        = "F2F2F2"
	colorIndividual   = "1F4E79"
	colorIndTotals    = "D9E2F3"
	colorTipHigh      = "C6E0B4"
	colorTipMedium    = "FFE699"
	colorTipTop       = "92D050"
	colorWhite        = "FFFFFF"

	formatHours = "0.00"
	formatMoney = "$0.00"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// cellStyle is a comparable description of a style so identical styles are
// registered with the workbook once.
type cellStyle struct {
	fill       string
	fontColor  string
	bold       bool
	size       float64
	numFmt     string
	horizontal string
	border     bool
}

func (s cellStyle) zero() bool { return s == cellStyle{} }

type styleCache struct {
	f   *excelize.File
	ids map[cellStyle]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: map[cellStyle]int{}}
}

func (c *styleCache) id(s cellStyle) (int, error) {
	if id, ok := c.ids[s]; ok {
		return id, nil
	}
	style := &excelize.Style{}
	if s.border {
		style.Border = thinBorder
	}
	if s.fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{s.fill}, Pattern: 1}
	}
	if s.bold || s.fontColor != "" || s.size > 0 {
		style.Font = &excelize.Font{Bold: s.bold, Color: s.fontColor, Size: s.size}
	}
	if s.horizontal != "" {
		style.Alignment = &excelize.Alignment{Horizontal: s.horizontal, Vertical: "center", WrapText: true}
	}
	if s.numFmt != "" {
		numFmt := s.numFmt
		style.CustomNumFmt = &numFmt
	}
	id, err := c.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	c.ids[s] = id
	return id, nil
}

var (
	styleSingleHeader = cellStyle{fill: colorSingleHeader, fontColor: colorWhite, bold: true, horizontal: "center", border: true}
	styleMainHeader   = cellStyle{fill: colorMainHeader, fontColor: colorWhite, bold: true, horizontal: "center", border: true}
	styleSubHeader    = cellStyle{fill: colorSubHeader, bold: true, horizontal: "center", border: true}
)

func labelStyle(fill string) cellStyle {
	return cellStyle{fill: fill, fontColor: colorWhite, bold: true, horizontal: "center", border: true}
}

func hoursStyle(salaried bool) cellStyle {
	s := cellStyle{numFmt: formatHours, border: true}
	if salaried {
		s.fill = colorSalaried
	}
	return s
}

func totalsStyle(fill, numFmt string) cellStyle {
	return cellStyle{fill: fill, bold: true, numFmt: numFmt, border: true}
}

// tipStyle shades an individual tip cell by amount.
func tipStyle(amount float64, salaried bool) cellStyle {
	s := cellStyle{numFmt: formatMoney, horizontal: "center", border: true}
	switch {
	case salaried:
		s.fill = colorSalaried
	case amount >= 50:
		s.fill = colorTipHigh
	case amount >= 20:
		s.fill = colorTipMedium
	case amount > 0:
		s.fill = colorTotal
	}
	return s
}

func tipTotalStyle(amount float64, salaried bool) cellStyle {
	s := cellStyle{bold: true, numFmt: formatMoney, horizontal: "center", border: true}
	switch {
	case salaried:
		s.fill = colorSalariedSum
	case amount >= 100:
		s.fill = colorTipTop
	case amount >= 50:
		s.fill = colorTipHigh
	case amount >= 20:
		s.fill = colorTipMedium
	default:
		s.fill = colorTotal
	}
	return s
}
