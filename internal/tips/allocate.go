package tips

import (
	"sort"

	"github.com/phillip-england/tipsheet/internal/payroll"
	"github.com/shopspring/decimal"
)

// Report is the result of distributing the three pools over a set of
// report columns.
type Report struct {
	Columns   []payroll.Bucket
	Employees []string

	RoleHours map[payroll.Bucket]float64

	// Shares holds each pool's per-bucket amount.
	Shares     map[Pool]map[payroll.Bucket]decimal.Decimal
	PoolTotals map[Pool]decimal.Decimal
	RoleTips   map[payroll.Bucket]decimal.Decimal

	Individual     map[string]map[payroll.Bucket]decimal.Decimal
	EmployeeTotals map[string]decimal.Decimal

	// GrandTotal is the sum of the pool totals and RoleTipsTotal the sum of
	// RoleTips; the two are always equal. IndividualTotal can differ when a
	// server's direct tips replace their proportional share.
	GrandTotal      decimal.Decimal
	RoleTipsTotal   decimal.Decimal
	IndividualTotal decimal.Decimal

	// UnmatchedServerTips lists direct tip entries whose name matched no
	// employee.
	UnmatchedServerTips []string
	// DuplicateServerTips lists direct tip entries ignored because an
	// earlier name, in sorted order, folds to the same key.
	DuplicateServerTips []string
}

func (r Report) Share(pool Pool, bucket payroll.Bucket) decimal.Decimal {
	return r.Shares[pool][bucket]
}

func (r Report) Tip(employee string, bucket payroll.Bucket) decimal.Decimal {
	return r.Individual[employee][bucket]
}

// Allocate distributes the pools over columns and then over employees by
// hours worked in each bucket.
func Allocate(hours *payroll.HoursTable, columns []payroll.Bucket, table AllocationTable, totals PoolTotals, direct ServerTips) Report {
	report := Report{
		Columns:        columns,
		Employees:      hours.Employees(),
		RoleHours:      make(map[payroll.Bucket]float64, len(columns)),
		Shares:         make(map[Pool]map[payroll.Bucket]decimal.Decimal, len(Pools)),
		PoolTotals:     make(map[Pool]decimal.Decimal, len(Pools)),
		RoleTips:       make(map[payroll.Bucket]decimal.Decimal, len(columns)),
		Individual:     make(map[string]map[payroll.Bucket]decimal.Decimal),
		EmployeeTotals: make(map[string]decimal.Decimal),
	}
	for _, b := range columns {
		report.RoleHours[b] = hours.BucketTotal(b)
	}

	for _, pool := range Pools {
		shares := make(map[payroll.Bucket]decimal.Decimal, len(columns))
		total := decimal.Zero
		for _, b := range columns {
			amount := poolShare(pool, b, report.RoleHours[b], table, totals)
			shares[b] = amount
			total = total.Add(amount)
			report.RoleTips[b] = report.RoleTips[b].Add(amount)
		}
		report.Shares[pool] = shares
		report.PoolTotals[pool] = total
		report.GrandTotal = report.GrandTotal.Add(total)
	}
	for _, b := range columns {
		report.RoleTipsTotal = report.RoleTipsTotal.Add(report.RoleTips[b])
	}

	names := make([]string, 0, len(direct))
	for name := range direct {
		names = append(names, name)
	}
	sort.Strings(names)
	directByKey := make(map[string]decimal.Decimal, len(direct))
	directName := make(map[string]string, len(direct))
	for _, name := range names {
		key := NameKey(name)
		if _, ok := directByKey[key]; ok {
			report.DuplicateServerTips = append(report.DuplicateServerTips, name)
			continue
		}
		directByKey[key] = direct[name]
		directName[key] = name
	}
	matched := map[string]bool{}

	serverBucket := payroll.RoleBucket(payroll.RoleServer, "")
	for _, employee := range report.Employees {
		row := make(map[payroll.Bucket]decimal.Decimal, len(columns))
		employeeTotal := decimal.Zero
		for _, b := range columns {
			empHours := hours.Hours(employee, b)
			tip := proportionalTip(report.RoleTips[b], empHours, report.RoleHours[b])
			if b == serverBucket {
				key := NameKey(employee)
				if amount, ok := directByKey[key]; ok {
					tip = amount
					matched[key] = true
				}
			}
			row[b] = tip
			employeeTotal = employeeTotal.Add(tip)
		}
		report.Individual[employee] = row
		report.EmployeeTotals[employee] = employeeTotal
		report.IndividualTotal = report.IndividualTotal.Add(employeeTotal)
	}

	for key, name := range directName {
		if !matched[key] {
			report.UnmatchedServerTips = append(report.UnmatchedServerTips, name)
		}
	}
	sort.Strings(report.UnmatchedServerTips)

	return report
}

// poolShare is the amount of one pool paid to one bucket.
func poolShare(pool Pool, bucket payroll.Bucket, bucketHours float64, table AllocationTable, totals PoolTotals) decimal.Decimal {
	switch pool {
	case PoolLunch:
		if bucketHours <= 0 {
			return decimal.Zero
		}
		return generalShare(bucket, payroll.PeriodLunch, table.Lunch, totals.Lunch)
	case PoolDinnerGeneral:
		if bucketHours <= 0 {
			return decimal.Zero
		}
		return generalShare(bucket, payroll.PeriodDinner, table.DinnerGeneral, totals.DinnerGeneral)
	case PoolDinnerServers:
		// The server pool is paid whether or not the bucket has hours.
		if bucket == payroll.RoleBucket(payroll.RoleServer, "") {
			kept := decimal.NewFromInt(1).Sub(table.ServersToPoolRate)
			return totals.ServerCashCC.Mul(kept)
		}
		return generalShare(bucket, payroll.PeriodDinner, table.DinnerServers, totals.ServerContribution)
	default:
		return decimal.Zero
	}
}

// generalShare pays total*fraction to buckets of the given period and to
// unsplit roles listed in fractions.
func generalShare(bucket payroll.Bucket, period string, fractions map[string]decimal.Decimal, total decimal.Decimal) decimal.Decimal {
	var role string
	switch bucket.Period() {
	case period:
		role = bucket.Role()
	case "":
		role = string(bucket)
	default:
		return decimal.Zero
	}
	fraction, ok := fractions[role]
	if !ok {
		return decimal.Zero
	}
	return total.Mul(fraction)
}

func proportionalTip(roleTip decimal.Decimal, employeeHours, roleHours float64) decimal.Decimal {
	if roleHours <= 0 || employeeHours <= 0 {
		return decimal.Zero
	}
	return roleTip.Mul(decimal.NewFromFloat(employeeHours)).Div(decimal.NewFromFloat(roleHours))
}
