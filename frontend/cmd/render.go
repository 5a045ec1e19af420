package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/frontend/hooks"
)

func nonEmpty(message string) func(string) error {
	return func(s string) error {
		if s == "" {
			return errors.New(message)
		}
		return nil
	}
}

// formatNumber prints whole numbers without decimals and everything else
// with one.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatProgress(current, target float64) string {
	return formatNumber(current) + " / " + formatNumber(target)
}

// bar draws a ten cell progress bar for a percentage in [0, 100].
func bar(percent int) string {
	filled := percent / 10
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 10-filled) + "] " + strconv.Itoa(percent) + "%"
}

func renderDashboard(d hooks.DashboardData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today (%s)\n", d.Today.Date)
	fmt.Fprintf(&b, "  Steps     %-24s %d / %d\n", bar(d.StepsProgress), d.Today.Steps, d.Goals.DailySteps)
	fmt.Fprintf(&b, "  Calories  %-24s %s / %s\n", bar(d.CaloriesProgress), formatNumber(d.Today.CaloriesBurned), formatNumber(d.Goals.DailyCalories))
	fmt.Fprintf(&b, "  Water     %-24s %d / %d\n", bar(d.WaterProgress), d.Today.WaterGlasses, d.Goals.DailyWater)
	fmt.Fprintf(&b, "  Eaten     %s kcal, %d active minutes\n", formatNumber(d.Today.CaloriesConsumed), d.Today.ActiveMinutes)
	fmt.Fprintf(&b, "This week (%s to %s)\n", d.Week.StartDate, d.Week.EndDate)
	fmt.Fprintf(&b, "  Workouts  %-24s %d / %d\n", bar(d.WorkoutsProgress), d.Week.Workouts, d.Goals.WeeklyWorkouts)
	fmt.Fprintf(&b, "  Streak    %d days (best %d)", d.Week.CurrentStreak, d.Week.LongestStreak)
	return b.String()
}

func renderProfile(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", u.DisplayName, u.Email)
	fmt.Fprintf(&b, "  Workouts: %d, calories burned: %s, distance: %s km\n", u.Stats.TotalWorkouts, formatNumber(u.Stats.TotalCalories), formatNumber(u.Stats.TotalDistance))
	fmt.Fprintf(&b, "  Streak: %d days (best %d)\n", u.Stats.CurrentStreak, u.Stats.LongestStreak)
	fmt.Fprintf(&b, "  Goals: %d steps, %s kcal, %d glasses a day, %d workouts a week", u.Goals.DailySteps, formatNumber(u.Goals.DailyCalories), u.Goals.DailyWater, u.Goals.WeeklyWorkouts)
	return b.String()
}

func renderActivities(list []models.Activity) string {
	if len(list) == 0 {
		return "No activities yet. Log one with 'activity'."
	}
	lines := make([]string, 0, len(list))
	for _, a := range list {
		lines = append(lines, fmt.Sprintf("  %s  %-6s %s km, %d min, %s kcal", a.Date, a.Type, formatNumber(a.Distance), a.Duration, formatNumber(a.Calories)))
	}
	return strings.Join(lines, "\n")
}

func renderWorkouts(list []models.Workout) string {
	if len(list) == 0 {
		return "No workouts yet. Log one with 'workout'."
	}
	lines := make([]string, 0, len(list))
	for _, w := range list {
		lines = append(lines, fmt.Sprintf("  %s (%s, %s) %d min, %s kcal", w.Title, w.Category, w.Difficulty, w.Duration, formatNumber(w.Calories)))
	}
	return strings.Join(lines, "\n")
}

func renderMeals(list []models.Meal) string {
	if len(list) == 0 {
		return "No meals logged today."
	}
	var total float64
	lines := make([]string, 0, len(list)+1)
	for _, m := range list {
		total += m.Calories
		lines = append(lines, fmt.Sprintf("  %s  %-9s %s, %s kcal", m.Time, m.Type, m.Name, formatNumber(m.Calories)))
	}
	lines = append(lines, "  Total: "+formatNumber(total)+" kcal")
	return strings.Join(lines, "\n")
}

func renderMetrics(list []models.HealthMetric) string {
	if len(list) == 0 {
		return "No health entries yet. Add one with 'health'."
	}
	lines := make([]string, 0, len(list))
	for _, m := range list {
		var value string
		switch m.Type {
		case models.MetricMood:
			value = m.Mood
		case models.MetricSleep:
			value = formatNumber(m.Value) + " h"
			if m.Quality != "" {
				value += " (" + m.Quality + ")"
			}
		case models.MetricHeartRate:
			value = formatNumber(m.Value) + " bpm"
		default:
			value = strings.TrimSpace(formatNumber(m.Value) + " " + m.Unit)
		}
		lines = append(lines, fmt.Sprintf("  %s  %-10s %s", m.Date, m.Type, value))
	}
	return strings.Join(lines, "\n")
}

func renderGoals(list []models.Goal) string {
	if len(list) == 0 {
		return "No active goals. Set one with 'goal'."
	}
	lines := make([]string, 0, len(list))
	for _, g := range list {
		lines = append(lines, fmt.Sprintf("  %-24s %s", g.Title, formatProgress(g.CurrentValue, g.TargetValue)))
	}
	return strings.Join(lines, "\n")
}

// goalTitles lists the goals for a choice menu followed by a final option
// that picks none of them.
func goalTitles(list []models.Goal, none string) []string {
	titles := make([]string, 0, len(list)+1)
	for _, g := range list {
		titles = append(titles, g.Title)
	}
	return append(titles, none)
}

func challengeNames(list []models.Challenge, none string) []string {
	names := make([]string, 0, len(list)+1)
	for _, ch := range list {
		names = append(names, ch.Name)
	}
	return append(names, none)
}

func renderChallenges(list []models.Challenge, userID string) string {
	if len(list) == 0 {
		return "No challenges yet. Start one with 'challenge'."
	}
	lines := make([]string, 0, len(list))
	for _, ch := range list {
		joined := ""
		for _, p := range ch.Participants {
			if p == userID {
				joined = " (joined)"
				break
			}
		}
		lines = append(lines, fmt.Sprintf("  %s%s: %s, %d participants, %d days left", ch.Name, joined, ch.Description, len(ch.Participants), ch.DaysLeft))
	}
	return strings.Join(lines, "\n")
}

func renderSocial(d hooks.SocialData) string {
	var b strings.Builder
	b.WriteString("Friends\n")
	if len(d.Friends) == 0 {
		b.WriteString("  No friends yet. Add one with 'addfriend'.\n")
	}
	for _, f := range d.Friends {
		fmt.Fprintf(&b, "  %s: %d workouts, %d day streak\n", f.DisplayName, f.TotalWorkouts, f.CurrentStreak)
	}
	if len(d.Feed) > 0 {
		b.WriteString("Recent workouts\n")
		for _, a := range d.Feed {
			fmt.Fprintf(&b, "  %s did %s (%d min)\n", a.DisplayName, a.Workout.Title, a.Workout.Duration)
		}
	}
	b.WriteString("Leaderboard")
	for _, e := range d.Leaderboard {
		fmt.Fprintf(&b, "\n  %d. %s: %d workouts, %s kcal", e.Rank, e.DisplayName, e.TotalWorkouts, formatNumber(e.TotalCalories))
	}
	return b.String()
}
