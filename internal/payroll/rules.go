package payroll

import (
	"slices"
	"strings"
	"time"
)

const DefaultDinnerCutoff = 17 * time.Hour

// SalariedEmployee is paid fixed hours that never appear on the timesheet.
type SalariedEmployee struct {
	Name        string
	Role        string
	LunchHours  float64
	DinnerHours float64
}

// Rules is the hours policy for a run. Callers get their own copy from
// DefaultRules or the config package and pass it by value.
type Rules struct {
	DinnerCutoff time.Duration
	RoleAliases  map[string]string
	SplitRoles   []string
	Salaried     []SalariedEmployee
}

func DefaultRules() Rules {
	return Rules{
		DinnerCutoff: DefaultDinnerCutoff,
		RoleAliases: map[string]string{
			"Dishwasher":   RoleKitchen,
			"Prep Cook":    RoleKitchen,
			"Pasta":        RoleKitchen,
			"Salad":        RoleKitchen,
			"Grill":        RoleKitchen,
			"Shift Leader": "Lead",
			"Host/Hostess": RoleHostess,
		},
		SplitRoles: []string{"Busser", "Barrista", "Case", "Register", "Lead", "Runner"},
		Salaried: []SalariedEmployee{
			{Name: "Jesus Elizondo", Role: RoleKitchen, LunchHours: 40, DinnerHours: 40},
		},
	}
}

func (r Rules) Clone() Rules {
	out := Rules{
		DinnerCutoff: r.DinnerCutoff,
		RoleAliases:  make(map[string]string, len(r.RoleAliases)),
		SplitRoles:   slices.Clone(r.SplitRoles),
		Salaried:     slices.Clone(r.Salaried),
	}
	for k, v := range r.RoleAliases {
		out.RoleAliases[k] = v
	}
	return out
}

// NormalizeRole maps an export role label to its canonical role. Unknown
// labels pass through; blank labels become RoleNone.
func (r Rules) NormalizeRole(raw string) string {
	role := strings.TrimSpace(raw)
	if role == "" {
		return RoleNone
	}
	if canonical, ok := r.RoleAliases[role]; ok {
		return canonical
	}
	return role
}

func (r Rules) IsSplitRole(role string) bool {
	return slices.Contains(r.SplitRoles, role)
}

func (r Rules) IsSalaried(name string) bool {
	for _, emp := range r.Salaried {
		if emp.Name == name {
			return true
		}
	}
	return false
}
