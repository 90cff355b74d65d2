package payroll

// Aggregate builds the hours table from timesheet shifts and then injects
// the salaried roster from rules.
func Aggregate(shifts []Shift, rules Rules) *HoursTable {
	table := NewHoursTable()

	for _, shift := range shifts {
		role := rules.NormalizeRole(shift.Role)
		if rules.IsSplitRole(role) {
			lunch, dinner := Split(shift.ClockIn, shift.ClockOut, shift.RegularHours, rules.DinnerCutoff)
			table.Add(shift.Employee, RoleBucket(role, PeriodLunch), lunch)
			table.Add(shift.Employee, RoleBucket(role, PeriodDinner), dinner)
			continue
		}
		if shift.RegularHours > 0 {
			table.Add(shift.Employee, RoleBucket(role, ""), shift.RegularHours)
		}
	}

	for _, emp := range rules.Salaried {
		addSalaried(table, emp, rules)
	}
	return table
}

func addSalaried(table *HoursTable, emp SalariedEmployee, rules Rules) {
	switch {
	case emp.Role == RoleKitchen:
		// Kitchen is reported as a single column even when configured as split.
		table.Add(emp.Name, RoleBucket(RoleKitchen, ""), emp.LunchHours+emp.DinnerHours)
	case rules.IsSplitRole(emp.Role):
		if emp.LunchHours > 0 {
			table.Add(emp.Name, RoleBucket(emp.Role, PeriodLunch), emp.LunchHours)
		}
		if emp.DinnerHours > 0 {
			table.Add(emp.Name, RoleBucket(emp.Role, PeriodDinner), emp.DinnerHours)
		}
	default:
		table.Add(emp.Name, RoleBucket(emp.Role, ""), emp.LunchHours+emp.DinnerHours)
	}
	table.MarkSalaried(emp.Name)
}
