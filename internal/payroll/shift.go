// Package payroll turns timeclock shifts into per-employee hours buckets.
package payroll

import (
	"fmt"
	"strings"
	"time"
)

const (
	PeriodLunch  = "Lunch"
	PeriodDinner = "Dinner"

	RoleServer   = "Server"
	RoleKitchen  = "Kitchen"
	RoleTraining = "Training"
	RoleHostess  = "Hostess"
	RoleNone     = "No Role"
)

// Shift is one parsed row of the hours export. ClockIn and ClockOut are
// offsets from midnight.
type Shift struct {
	Employee     string
	Role         string
	ClockIn      time.Duration
	ClockOut     time.Duration
	RegularHours float64
}

// Bucket is a role, suffixed with "_Lunch" or "_Dinner" for roles whose
// hours are split by period.
type Bucket string

func RoleBucket(role, period string) Bucket {
	if period == "" {
		return Bucket(role)
	}
	return Bucket(role + "_" + period)
}

func (b Bucket) Role() string {
	role, _ := b.parts()
	return role
}

func (b Bucket) Period() string {
	_, period := b.parts()
	return period
}

func (b Bucket) parts() (string, string) {
	s := string(b)
	for _, period := range []string{PeriodLunch, PeriodDinner} {
		if role, ok := strings.CutSuffix(s, "_"+period); ok && role != "" {
			return role, period
		}
	}
	return s, ""
}

var clockLayouts = []string{"3:04PM", "3:04 PM", "15:04", "3:04:05PM", "15:04:05"}

// ParseClock reads an export time of day such as "4:30PM" and returns its
// offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return 0, fmt.Errorf("empty time value")
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		return time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second, nil
	}
	return 0, fmt.Errorf("invalid time value %q", value)
}

// FormatClock renders an offset from midnight as "15:04".
func FormatClock(d time.Duration) string {
	d = d % (24 * time.Hour)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
