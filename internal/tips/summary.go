package tips

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Labels of the pool total rows in the tip summary export. Labels sit in the
// second column; amounts in the third (lunch) and fourth (dinner) columns.
const (
	LabelGeneralPool        = "Total Allocated General Pool"
	LabelServerContribution = "Server Contribution to General Pool"
	LabelServerCashCC       = "Less Server Cash & CC Tips"

	labelColumn  = 1
	lunchColumn  = 2
	dinnerColumn = 3
)

// The per-server region of the export starts after a fixed header block.
const (
	ServerTipsHeaderRows = 6
	ServerNameColumn     = 8
	ServerTipColumn      = 15
)

// ParsePoolTotals scans the export for the labelled total rows. A label
// that is missing leaves its total at zero; an amount that is present but
// unreadable is an error.
func ParsePoolTotals(rows [][]string) (PoolTotals, error) {
	var totals PoolTotals

	if row, ok := findLabelRow(rows, LabelGeneralPool); ok {
		lunch, err := amountAt(row, lunchColumn, LabelGeneralPool)
		if err != nil {
			return PoolTotals{}, err
		}
		dinner, err := amountAt(row, dinnerColumn, LabelGeneralPool)
		if err != nil {
			return PoolTotals{}, err
		}
		totals.Lunch = lunch
		totals.DinnerGeneral = dinner
	}

	if row, ok := findLabelRow(rows, LabelServerContribution); ok {
		amount, err := amountAt(row, dinnerColumn, LabelServerContribution)
		if err != nil {
			return PoolTotals{}, err
		}
		totals.ServerContribution = amount
	}

	if row, ok := findLabelRow(rows, LabelServerCashCC); ok {
		amount, err := amountAt(row, dinnerColumn, LabelServerCashCC)
		if err != nil {
			return PoolTotals{}, err
		}
		totals.ServerCashCC = amount
	}

	return totals, nil
}

// ParseServerTips reads the per-server region: one (name, tip) pair per row
// after the header block. Rows without a name, the repeated "Server"
// heading, and tips that are blank, unreadable or not positive are skipped.
func ParseServerTips(rows [][]string) ServerTips {
	out := ServerTips{}
	if len(rows) <= ServerTipsHeaderRows {
		return out
	}
	for _, row := range rows[ServerTipsHeaderRows:] {
		name := cellValue(row, ServerNameColumn)
		if name == "" || name == "Server" {
			continue
		}
		amount, ok, err := ParseAmount(cellValue(row, ServerTipColumn))
		if err != nil || !ok || !amount.IsPositive() {
			continue
		}
		out[ReorderName(name)] = amount
	}
	return out
}

// ReorderName turns "Last, First" into "First Last". Anything else is
// returned trimmed.
func ReorderName(name string) string {
	parts := strings.Split(name, ",")
	if len(parts) != 2 {
		return strings.TrimSpace(name)
	}
	last := strings.TrimSpace(parts[0])
	first := strings.TrimSpace(parts[1])
	return first + " " + last
}

// NameKey folds a name for matching across exports.
func NameKey(name string) string {
	var b strings.Builder
	lastWasSpace := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastWasSpace = false
			continue
		}
		if !lastWasSpace {
			b.WriteByte(' ')
			lastWasSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ParseAmount reads a dollar amount such as "1,234.50", "$12" or "(3.00)".
// ok is false for a blank cell.
func ParseAmount(raw string) (decimal.Decimal, bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, false, nil
	}
	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
	}
	value = strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	if value == "" {
		return decimal.Zero, false, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid amount %q", raw)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true, nil
}

func findLabelRow(rows [][]string, label string) ([]string, bool) {
	for _, row := range rows {
		if strings.Contains(cellValue(row, labelColumn), label) {
			return row, true
		}
	}
	return nil, false
}

func amountAt(row []string, idx int, label string) (decimal.Decimal, error) {
	amount, _, err := ParseAmount(cellValue(row, idx))
	if err != nil {
		return decimal.Zero, fmt.Errorf("read %s: %w", label, err)
	}
	return amount, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
