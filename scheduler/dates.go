package scheduler

import "time"

// PlanDates returns the days in [start, start+days) whose weekday is allowed.
// Skipped days still count towards days. A nil allowed set allows every day.
func PlanDates(start time.Time, days int, allowed map[time.Weekday]bool) []time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	var dates []time.Time
	for i := range max(days, 0) {
		day := start.AddDate(0, 0, i)
		if allowed != nil && !allowed[day.Weekday()] {
			continue
		}
		dates = append(dates, day)
	}
	return dates
}
