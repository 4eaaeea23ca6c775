package accounts

import "time"

// IsWithinThresholdPeriod reports whether now falls inside the window
// [since, since+threshold].
func IsWithinThresholdPeriod(now time.Time, since time.Time, threshold time.Duration) bool {
	cutoff := since.Add(threshold)
	return !now.Before(since) && !now.After(cutoff)
}

// IsOutsideThresholdPeriod reports whether now falls outside the window
// [since, since+threshold].
func IsOutsideThresholdPeriod(now time.Time, since time.Time, threshold time.Duration) bool {
	return !IsWithinThresholdPeriod(now, since, threshold)
}
