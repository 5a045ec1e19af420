package validation

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestMealRejectsNegativeCalories(t *testing.T) {
	_, err := Meal(models.MealInput{
		Type:     "lunch",
		Name:     "Salad",
		Calories: -5,
		Date:     "2024-03-10",
		Time:     "12:30",
	})
	assert.Equal(t, []string{"calories"}, fieldNames(t, err))
}

func TestMealListsEveryFailingField(t *testing.T) {
	_, err := Meal(models.MealInput{
		Type:  "brunch",
		Name:  "   ",
		Date:  "2024-02-30",
		Image: "not a url",
	})
	assert.ElementsMatch(t,
		[]string{"type", "name", "calories", "date", "time", "image"},
		fieldNames(t, err))
}

func TestMealNormalizesStrings(t *testing.T) {
	in, err := Meal(models.MealInput{
		Type:     "dinner",
		Name:     "  Pasta  ",
		Calories: 640,
		Date:     "2024-03-10",
		Time:     " 19:00 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pasta", in.Name)
	assert.Equal(t, "19:00", in.Time)
}

func TestWaterBounds(t *testing.T) {
	_, err := Water(models.WaterInput{Glasses: 20, Date: "2024-03-10"})
	assert.NoError(t, err)

	_, err = Water(models.WaterInput{Glasses: 21, Date: "2024-03-10"})
	assert.Equal(t, []string{"glasses"}, fieldNames(t, err))

	_, err = Water(models.WaterInput{Glasses: -1, Date: "10/03/2024"})
	assert.Equal(t, []string{"glasses", "date"}, fieldNames(t, err))
}

func TestHealthMetricRulesPerKind(t *testing.T) {
	weight, err := HealthMetric(models.HealthMetricInput{Type: models.MetricWeight, Value: 72.5, Date: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "kg", weight.Unit)

	_, err = HealthMetric(models.HealthMetricInput{Type: models.MetricSleep, Value: 25, Date: "2024-03-10"})
	assert.Equal(t, []string{"value"}, fieldNames(t, err))

	_, err = HealthMetric(models.HealthMetricInput{Type: models.MetricMood, Mood: "Ecstatic", Date: "2024-03-10"})
	assert.Equal(t, []string{"mood"}, fieldNames(t, err))

	_, err = HealthMetric(models.HealthMetricInput{Type: models.MetricHeartRate, Value: 300, Date: "2024-03-10"})
	assert.Equal(t, []string{"value"}, fieldNames(t, err))

	_, err = HealthMetric(models.HealthMetricInput{Type: "bloodPressure", Date: "2024-03-10"})
	assert.Equal(t, []string{"type"}, fieldNames(t, err))
}

func TestWorkoutExerciseFields(t *testing.T) {
	zero := 0
	_, err := Workout(models.WorkoutInput{
		Title:      "Leg day",
		Category:   "Strength",
		Difficulty: "Expert",
		Duration:   45,
		Exercises: []models.Exercise{
			{Name: "Squat", Sets: 4},
			{Name: "", Sets: 3, Reps: &zero},
		},
	})
	assert.ElementsMatch(t,
		[]string{"difficulty", "exercises[1].name", "exercises[1].reps"},
		fieldNames(t, err))
}

func TestEnumsDoNotCoerce(t *testing.T) {
	_, err := Activity(models.ActivityInput{Type: "Run", Duration: 600, Date: "2024-03-10"})
	assert.Equal(t, []string{"type"}, fieldNames(t, err))
}

func TestUserMessage(t *testing.T) {
	_, err := Water(models.WaterInput{Glasses: 40, Date: "2024-03-10"})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Please check the glasses field: it must be between 0 and 20.", verr.UserMessage())
}

func TestPatchesCheckOnlyPresentFields(t *testing.T) {
	empty := ""
	blank := "   "
	patch, err := MealPatch(models.MealUpdate{Image: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", *patch.Image)

	_, err = MealPatch(models.MealUpdate{Name: &blank, Image: &blank})
	assert.Equal(t, []string{"name", "image"}, fieldNames(t, err))

	status := "archived"
	_, err = GoalPatch(models.GoalUpdate{Status: &status, EndDate: &empty})
	assert.Equal(t, []string{"status"}, fieldNames(t, err))
}

func TestUserPatchNestedFields(t *testing.T) {
	_, err := UserPatch(models.UserUpdate{
		Goals:    &models.UserGoals{DailySteps: 8000, DailyCalories: 2000, WeeklyWorkouts: 3, DailyWater: 30},
		Settings: &models.UserSettings{Units: "metric", Theme: "neon"},
	})
	assert.Equal(t, []string{"goals.dailyWater", "settings.theme"}, fieldNames(t, err))

	name := "  Ana  "
	patch, err := UserPatch(models.UserUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana", *patch.DisplayName)
}

func TestWeightNeedsKnownUnit(t *testing.T) {
	_, err := HealthMetric(models.HealthMetricInput{Type: models.MetricWeight, Value: 0, Unit: "stone", Date: "2024-03-10"})
	assert.Equal(t, []string{"value", "unit"}, fieldNames(t, err))
}

func TestScalarChecks(t *testing.T) {
	assert.Equal(t, []string{"progress"}, fieldNames(t, ChallengeProgress(101)))
	assert.NoError(t, ChallengeProgress(100))
	assert.Equal(t, []string{"amount"}, fieldNames(t, GoalIncrement(0)))
	assert.Equal(t, []string{"category"}, fieldNames(t, TipCategory("sleep")))
	assert.ElementsMatch(t, []string{"email", "displayName"}, fieldNames(t, NewUser("nope", " ")))
	assert.NoError(t, ListOptions(models.ListOptions{Date: "2024-03-10"}))
	assert.Equal(t, []string{"startDate"}, fieldNames(t, ListOptions(models.ListOptions{StartDate: "yesterday"})))
}

func TestEnumListsMatchRules(t *testing.T) {
	cases := []struct {
		input interface{}
		field string
		want  []string
	}{
		{models.ActivityInput{}, "Type", ActivityTypes},
		{models.WorkoutInput{}, "Difficulty", Difficulties},
		{models.MealInput{}, "Type", MealTypes},
		{models.HealthMetricInput{}, "Type", MetricTypes},
		{models.GoalInput{}, "Type", GoalTypes},
		{models.UserSettings{}, "Units", Units},
		{models.UserSettings{}, "Theme", Themes},
	}
	for _, tc := range cases {
		f, ok := reflect.TypeOf(tc.input).FieldByName(tc.field)
		require.True(t, ok, tc.field)
		rule := f.Tag.Get("validate")
		require.True(t, strings.HasPrefix(rule, "oneof="), rule)
		assert.Equal(t, tc.want, strings.Fields(strings.TrimPrefix(rule, "oneof=")), tc.field)
	}
}
