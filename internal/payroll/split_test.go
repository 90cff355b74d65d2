package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		in, out    time.Duration
		regular    float64
		wantLunch  float64
		wantDinner float64
	}{
		{
			name: "straddles cutoff evenly",
			in:   clock(15, 0), out: clock(19, 0), regular: 4,
			wantLunch: 2, wantDinner: 2,
		},
		{
			name: "entirely before cutoff uses regular hours",
			in:   clock(10, 0), out: clock(14, 0), regular: 3.5,
			wantLunch: 3.5,
		},
		{
			name: "ends exactly at cutoff",
			in:   clock(16, 30), out: clock(17, 0), regular: 0.5,
			wantLunch: 0.5,
		},
		{
			name: "starts exactly at cutoff",
			in:   clock(17, 0), out: clock(22, 0), regular: 5,
			wantDinner: 5,
		},
		{
			name: "overnight after cutoff",
			in:   clock(20, 0), out: clock(1, 0), regular: 5,
			wantDinner: 5,
		},
		{
			name: "overnight straddling cutoff",
			in:   clock(16, 0), out: clock(1, 0), regular: 9,
			wantLunch: 1, wantDinner: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lunch, dinner := Split(tt.in, tt.out, tt.regular, DefaultDinnerCutoff)
			assert.InDelta(t, tt.wantLunch, lunch, 1e-9)
			assert.InDelta(t, tt.wantDinner, dinner, 1e-9)
		})
	}
}

// A straddling shift is split on wall-clock time, so a deducted break makes
// lunch+dinner exceed the paid hours.
func TestSplitStraddleIgnoresRegularHours(t *testing.T) {
	lunch, dinner := Split(clock(12, 0), clock(20, 0), 7.5, DefaultDinnerCutoff)
	assert.InDelta(t, 5.0, lunch, 1e-9)
	assert.InDelta(t, 3.0, dinner, 1e-9)
	assert.InDelta(t, 8.0, lunch+dinner, 1e-9)
}

func TestSplitDropsSlivers(t *testing.T) {
	lunch, dinner := Split(DefaultDinnerCutoff-2*time.Second, clock(21, 0), 4, DefaultDinnerCutoff)
	assert.Zero(t, lunch)
	assert.InDelta(t, 4.0, dinner, 1e-3)
}

func TestSplitCustomCutoff(t *testing.T) {
	lunch, dinner := Split(clock(14, 0), clock(18, 0), 4, clock(16, 0))
	assert.InDelta(t, 2.0, lunch, 1e-9)
	assert.InDelta(t, 2.0, dinner, 1e-9)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"4:30PM", clock(16, 30)},
		{"04:30PM", clock(16, 30)},
		{" 9:05am ", clock(9, 5)},
		{"12:00AM", 0},
		{"12:15PM", clock(12, 15)},
		{"4:30 PM", clock(16, 30)},
		{"16:30", clock(16, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseClock(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseClock("")
	assert.Error(t, err)
	_, err = ParseClock("half past four")
	assert.Error(t, err)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "17:00", FormatClock(DefaultDinnerCutoff))
	assert.Equal(t, "09:05", FormatClock(clock(9, 5)))
}

func TestBucketParts(t *testing.T) {
	assert.Equal(t, Bucket("Busser_Lunch"), RoleBucket("Busser", PeriodLunch))
	assert.Equal(t, "Busser", Bucket("Busser_Dinner").Role())
	assert.Equal(t, PeriodDinner, Bucket("Busser_Dinner").Period())
	assert.Equal(t, RoleNone, Bucket(RoleNone).Role())
	assert.Empty(t, Bucket(RoleServer).Period())
}
