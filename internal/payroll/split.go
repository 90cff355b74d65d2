package payroll

import "time"

// MinBucketHours is the smallest amount of time recorded in a bucket.
const MinBucketHours = 0.001

// Split divides a shift between the lunch and dinner periods around cutoff.
//
// A shift that ends at or before the cutoff is all lunch and one that starts
// at or after it is all dinner; in both cases the recorded amount is
// regularHours. A shift straddling the cutoff is split by wall-clock time on
// each side, so an unpaid break deducted from regularHours does not change
// the split. Clock-out before clock-in means the shift ended the next day.
func Split(clockIn, clockOut time.Duration, regularHours float64, cutoff time.Duration) (lunch, dinner float64) {
	if clockOut < clockIn {
		clockOut += 24 * time.Hour
	}

	switch {
	case clockOut <= cutoff:
		lunch = regularHours
	case clockIn >= cutoff:
		dinner = regularHours
	default:
		lunch = (cutoff - clockIn).Hours()
		dinner = (clockOut - cutoff).Hours()
	}

	if lunch < MinBucketHours {
		lunch = 0
	}
	if dinner < MinBucketHours {
		dinner = 0
	}
	return lunch, dinner
}
