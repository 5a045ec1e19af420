// Package aggregate computes streaks, windowed sums and goal progress from
// date-keyed records.
package aggregate

import (
	"math"
	"sort"

	"github.com/jghoshh/getfit/lib/utils"
)

// StepsPerKm is the stride estimate used to derive steps from walk and run distance.
const StepsPerKm = 1300

// Default daily and weekly goals substituted when a user has none configured.
const (
	DefaultDailySteps     = 10000
	DefaultDailyCalories  = 2000
	DefaultWeeklyWorkouts = 5
	DefaultDailyWater     = 8
)

// CurrentStreak counts consecutive days ending at today on which at least one
// record exists. The streak is 0 when today itself has no record.
func CurrentStreak(dates []string, today string) int {
	seen := distinct(dates)
	streak := 0
	for day := today; seen[day]; day = utils.AddDays(day, -1) {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive days present in dates.
func LongestStreak(dates []string) int {
	seen := distinct(dates)
	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)

	longest, run := 0, 0
	for i, d := range days {
		if i > 0 && utils.AddDays(days[i-1], 1) == d {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// SumInWindow adds value(r) over every record whose date lies in [start, end].
func SumInWindow[T any](records []T, date func(T) string, value func(T) float64, start, end string) float64 {
	total := 0.0
	for _, r := range records {
		if d := date(r); d >= start && d <= end {
			total += value(r)
		}
	}
	return total
}

// AverageOf returns the mean of values, or 0 for an empty slice.
func AverageOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// Progress is 100*current/goal rounded and clamped to [0, 100]. A goal that
// is not positive yields 0.
func Progress(current, goal float64) int {
	if goal <= 0 {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, 100*current/goal))))
}

// EstimateSteps derives a step count from a distance in kilometres for the
// activity types that are done on foot.
func EstimateSteps(activityType string, distanceKm float64) int {
	switch activityType {
	case "walk", "run":
		return int(math.Round(distanceKm * StepsPerKm))
	}
	return 0
}

// WeekWindow returns the seven day window ending at end, inclusive.
func WeekWindow(end string) (string, string) {
	return utils.AddDays(end, -6), end
}

func distinct(dates []string) map[string]bool {
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		if utils.ValidateDate(d) {
			seen[d] = true
		}
	}
	return seen
}
