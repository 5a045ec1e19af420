package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/frontend/hooks"
)

func TestParseNumber(t *testing.T) {
	v, err := parseNumber(" 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = parseNumber("-1")
	assert.Error(t, err)
	_, err = parseNumber("ten")
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "300", formatNumber(300))
	assert.Equal(t, "5.3", formatNumber(5.26))
	assert.Equal(t, "1 / 2.5", formatProgress(1, 2.5))
}

func TestBarClamps(t *testing.T) {
	assert.Equal(t, "[#####.....] 50%", bar(50))
	assert.Equal(t, "[##########] 100%", bar(100))
	assert.Equal(t, "[..........] 0%", bar(0))
}

func TestRenderDashboard(t *testing.T) {
	d := hooks.Derive(
		models.DailySummary{Date: "2024-03-10", Steps: 5000, CaloriesBurned: 250, WaterGlasses: 4},
		models.WeekData{StartDate: "2024-03-04", EndDate: "2024-03-10", Workouts: 2, CurrentStreak: 3, LongestStreak: 5},
		models.UserGoals{},
	)
	out := renderDashboard(d)
	assert.Contains(t, out, "Today (2024-03-10)")
	assert.Contains(t, out, "5000 / 10000")
	assert.Contains(t, out, "4 / 8")
	assert.Contains(t, out, "2 / 5")
	assert.Contains(t, out, "3 days (best 5)")
}

func TestRenderEmptyLists(t *testing.T) {
	assert.Contains(t, renderActivities(nil), "'activity'")
	assert.Contains(t, renderWorkouts(nil), "'workout'")
	assert.Contains(t, renderGoals(nil), "'goal'")
	assert.Contains(t, renderChallenges(nil, "u1"), "'challenge'")
	assert.Contains(t, renderSocial(hooks.SocialData{}), "'addfriend'")
}

func TestRenderMealsTotals(t *testing.T) {
	out := renderMeals([]models.Meal{
		{Type: "breakfast", Name: "Oats", Calories: 350, Time: "08:00"},
		{Type: "lunch", Name: "Salad", Calories: 420.5, Time: "12:30"},
	})
	assert.Contains(t, out, "Oats")
	assert.Contains(t, out, "Total: 770.5 kcal")
}

func TestRenderMetricsByType(t *testing.T) {
	out := renderMetrics([]models.HealthMetric{
		{Type: models.MetricWeight, Value: 70, Unit: "kg", Date: "2024-03-10"},
		{Type: models.MetricSleep, Value: 7.5, Quality: "Good", Date: "2024-03-10"},
		{Type: models.MetricMood, Mood: "Great", Date: "2024-03-10"},
	})
	assert.Contains(t, out, "70 kg")
	assert.Contains(t, out, "7.5 h (Good)")
	assert.Contains(t, out, "Great")
}

func TestRenderChallengesMarksJoined(t *testing.T) {
	list := []models.Challenge{
		{Name: "Plank", Description: "Daily plank", Participants: []string{"u1", "u2"}, DaysLeft: 10},
		{Name: "Run", Description: "5k", Participants: []string{"u2"}, DaysLeft: 3},
	}
	out := renderChallenges(list, "u1")
	assert.Contains(t, out, "Plank (joined)")
	assert.NotContains(t, out, "Run (joined)")
	assert.Equal(t, []string{"Plank", "Run", "Done"}, challengeNames(list, "Done"))
}

func TestNonEmpty(t *testing.T) {
	check := nonEmpty("Name cannot be empty.")
	assert.EqualError(t, check(""), "Name cannot be empty.")
	assert.NoError(t, check("Ana"))
}
