package payroll

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSalaried() Rules {
	rules := DefaultRules()
	rules.Salaried = nil
	return rules
}

func TestNormalizeRole(t *testing.T) {
	rules := DefaultRules()
	tests := map[string]string{
		"Dishwasher":   RoleKitchen,
		" Prep Cook ":  RoleKitchen,
		"Grill":        RoleKitchen,
		"Shift Leader": "Lead",
		"Host/Hostess": RoleHostess,
		"":             RoleNone,
		"   ":          RoleNone,
		"Bartender":    "Bartender",
		"Server":       RoleServer,
	}
	for raw, want := range tests {
		assert.Equal(t, want, rules.NormalizeRole(raw), "role %q", raw)
	}
}

func TestAggregateBuckets(t *testing.T) {
	shifts := []Shift{
		{Employee: "Ana Diaz", Role: "Busser", ClockIn: clock(15, 0), ClockOut: clock(19, 0), RegularHours: 4},
		{Employee: "Ben Cole", Role: "Dishwasher", ClockIn: clock(10, 0), ClockOut: clock(18, 0), RegularHours: 7.5},
		{Employee: "Ana Diaz", Role: "Server", ClockIn: clock(17, 0), ClockOut: clock(22, 0), RegularHours: 5},
		{Employee: "Cal Ross", Role: "", ClockIn: clock(9, 0), ClockOut: clock(11, 0), RegularHours: 2},
		{Employee: "Ana Diaz", Role: "Busser", ClockIn: clock(11, 0), ClockOut: clock(14, 0), RegularHours: 3},
	}

	table := Aggregate(shifts, noSalaried())

	assert.Equal(t, []string{"Ana Diaz", "Ben Cole", "Cal Ross"}, table.Employees())
	assert.InDelta(t, 5.0, table.Hours("Ana Diaz", "Busser_Lunch"), 1e-9)
	assert.InDelta(t, 2.0, table.Hours("Ana Diaz", "Busser_Dinner"), 1e-9)
	assert.InDelta(t, 5.0, table.Hours("Ana Diaz", RoleServer), 1e-9)
	assert.InDelta(t, 7.5, table.Hours("Ben Cole", RoleKitchen), 1e-9)
	assert.InDelta(t, 2.0, table.Hours("Cal Ross", RoleNone), 1e-9)
	assert.Zero(t, table.Hours("Ben Cole", "Busser_Lunch"))
	assert.InDelta(t, 12.0, table.EmployeeTotal("Ana Diaz"), 1e-9)
}

func TestAggregateSkipsZeroHourShifts(t *testing.T) {
	shifts := []Shift{
		{Employee: "Dee Park", Role: "Hostess", ClockIn: clock(11, 0), ClockOut: clock(11, 0), RegularHours: 0},
		{Employee: "Eli Moss", Role: "Runner", ClockIn: clock(11, 0), ClockOut: clock(13, 0), RegularHours: 0},
	}
	table := Aggregate(shifts, noSalaried())
	assert.Zero(t, table.Len())
}

func TestAggregateSalariedKitchenIsNotSplit(t *testing.T) {
	table := Aggregate(nil, DefaultRules())

	require.Equal(t, []string{"Jesus Elizondo"}, table.Employees())
	assert.InDelta(t, 80.0, table.Hours("Jesus Elizondo", RoleKitchen), 1e-9)
	assert.Equal(t, []Bucket{RoleKitchen}, table.Buckets())
	assert.True(t, table.IsSalaried("Jesus Elizondo"))
}

func TestAggregateSalariedRoles(t *testing.T) {
	rules := noSalaried()
	rules.Salaried = []SalariedEmployee{
		{Name: "Fay Lund", Role: "Lead", LunchHours: 20, DinnerHours: 0},
		{Name: "Gus Hale", Role: "Hostess", LunchHours: 10, DinnerHours: 15},
	}

	table := Aggregate(nil, rules)

	got := map[string]float64{}
	for _, emp := range table.Employees() {
		for _, b := range table.Buckets() {
			if h := table.Hours(emp, b); h > 0 {
				got[emp+"/"+string(b)] = h
			}
		}
	}
	want := map[string]float64{
		"Fay Lund/Lead_Lunch": 20,
		"Gus Hale/Hostess":    25,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("salaried buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatePreservesTotals(t *testing.T) {
	shifts := []Shift{
		{Employee: "Hal Ortiz", Role: "Kitchen", ClockIn: clock(9, 0), ClockOut: clock(15, 0), RegularHours: 6},
		{Employee: "Hal Ortiz", Role: "Hostess", ClockIn: clock(17, 0), ClockOut: clock(21, 0), RegularHours: 4},
		{Employee: "Hal Ortiz", Role: "Register", ClockIn: clock(10, 0), ClockOut: clock(16, 0), RegularHours: 6},
	}
	table := Aggregate(shifts, DefaultRules())

	assert.InDelta(t, 16.0, table.EmployeeTotal("Hal Ortiz"), 1e-9)
	assert.InDelta(t, 16.0+80.0, table.Total(), 1e-9)
}

func TestUnreportedBuckets(t *testing.T) {
	shifts := []Shift{
		{Employee: "Ivy Shaw", Role: "Bartender", ClockIn: clock(17, 0), ClockOut: clock(23, 0), RegularHours: 6},
		{Employee: "Ivy Shaw", Role: "Server", ClockIn: clock(11, 0), ClockOut: clock(15, 0), RegularHours: 4},
	}
	table := Aggregate(shifts, noSalaried())
	assert.Equal(t, []Bucket{"Bartender"}, UnreportedBuckets(table))
}

func TestReportBucketsOrder(t *testing.T) {
	want := []Bucket{
		"Server", "Busser_Lunch", "Busser_Dinner", "Barrista_Lunch", "Barrista_Dinner",
		"Kitchen", "Case_Lunch", "Case_Dinner", "Register_Lunch", "Register_Dinner",
		"Training", "Lead_Lunch", "Lead_Dinner", "Hostess", "Runner_Lunch", "Runner_Dinner", "No Role",
	}
	assert.Equal(t, want, ReportBuckets())
}

func TestRulesCloneIsIndependent(t *testing.T) {
	rules := DefaultRules()
	clone := rules.Clone()
	clone.RoleAliases["Grill"] = "Lead"
	clone.SplitRoles[0] = "Nobody"

	assert.Equal(t, RoleKitchen, rules.NormalizeRole("Grill"))
	assert.True(t, rules.IsSplitRole("Busser"))
}
