package payroll

import "slices"

// Column is one role heading of the payroll report. Split columns carry a
// Lunch and a Dinner sub-column.
type Column struct {
	Role  string
	Split bool
}

var reportColumns = []Column{
	{Role: RoleServer},
	{Role: "Busser", Split: true},
	{Role: "Barrista", Split: true},
	{Role: RoleKitchen},
	{Role: "Case", Split: true},
	{Role: "Register", Split: true},
	{Role: RoleTraining},
	{Role: "Lead", Split: true},
	{Role: RoleHostess},
	{Role: "Runner", Split: true},
	{Role: RoleNone},
}

func (c Column) Buckets() []Bucket {
	if !c.Split {
		return []Bucket{RoleBucket(c.Role, "")}
	}
	return []Bucket{RoleBucket(c.Role, PeriodLunch), RoleBucket(c.Role, PeriodDinner)}
}

func ReportColumns() []Column {
	return slices.Clone(reportColumns)
}

// ReportBuckets flattens ReportColumns into the report's data columns.
func ReportBuckets() []Bucket {
	var out []Bucket
	for _, c := range reportColumns {
		out = append(out, c.Buckets()...)
	}
	return out
}

// UnreportedBuckets returns buckets in t that have no report column.
func UnreportedBuckets(t *HoursTable) []Bucket {
	reported := ReportBuckets()
	var out []Bucket
	for _, b := range t.Buckets() {
		if !slices.Contains(reported, b) {
			out = append(out, b)
		}
	}
	return out
}
