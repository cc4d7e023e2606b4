package logic

import "time"

// MiddayWindow is the tolerance either side of local noon.
const MiddayWindow = 15 * time.Minute

// IsMidday reports whether now is within MiddayWindow (inclusive) of 12:00:00
// on the same calendar day, in now's location.
func IsMidday(now time.Time) bool {
	y, m, d := now.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, now.Location())
	diff := now.Sub(noon)
	if diff < 0 {
		diff = -diff
	}
	return diff <= MiddayWindow
}

// IsScheduledNotificationDue reports whether the daily notification should be
// sent this cycle. With hourly invocations it fires once per day.
func IsScheduledNotificationDue(now time.Time) bool {
	return IsMidday(now)
}
