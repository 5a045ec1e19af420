package repository

import (
	"context"
	"fmt"

	"github.com/jghoshh/getfit/backend/aggregate"
	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/backend/validation"
	"github.com/jghoshh/getfit/lib/utils"
)

// DailySummary totals the owner's activities, workouts, meals and water for date.
func (r *Repository) DailySummary(ctx context.Context, ownerID, date string) (*models.DailySummary, error) {
	if date == "" {
		date = r.Today()
	}
	if err := validation.ListOptions(models.ListOptions{Date: date}); err != nil {
		return nil, err
	}

	var activities []models.Activity
	aq := ownerQuery(models.ActivitiesCollection, ownerID, "date", "createdAt", rangeOf(date, "", ""))
	if err := r.store.Query(ctx, aq, &activities); err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	workouts, err := r.workoutsBetween(ctx, ownerID, date, date)
	if err != nil {
		return nil, err
	}
	var meals []models.Meal
	mq := ownerQuery(models.MealsCollection, ownerID, "date", "createdAt", rangeOf(date, "", ""))
	if err := r.store.Query(ctx, mq, &meals); err != nil {
		return nil, fmt.Errorf("failed to load meals: %w", err)
	}
	water, err := r.GetWaterIntake(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}

	summary := &models.DailySummary{
		Date:       date,
		Activities: len(activities),
		Workouts:   len(workouts),
	}
	for _, a := range activities {
		summary.Steps += aggregate.EstimateSteps(a.Type, a.Distance)
		summary.Distance += a.Distance
		summary.ActiveMinutes += a.Duration
		summary.CaloriesBurned += a.Calories
	}
	for _, w := range workouts {
		summary.ActiveMinutes += w.Duration
		summary.CaloriesBurned += w.Calories
	}
	for _, m := range meals {
		summary.CaloriesConsumed += m.Calories
	}
	if water != nil {
		summary.WaterGlasses = water.Glasses
	}
	return summary, nil
}

// WeeklySummary builds the seven day summary ending at end. Streaks are
// computed with end as "today".
func (r *Repository) WeeklySummary(ctx context.Context, ownerID, end string) (*models.WeekData, error) {
	if end == "" {
		end = r.Today()
	}
	if err := validation.ListOptions(models.ListOptions{Date: end}); err != nil {
		return nil, err
	}
	user, err := r.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	weekStart, weekEnd := aggregate.WeekWindow(end)

	// Streaks look at the whole history up to end.
	var activities []models.Activity
	aq := ownerQuery(models.ActivitiesCollection, ownerID, "date", "createdAt", rangeOf("", "", end))
	if err := r.store.Query(ctx, aq, &activities); err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	workouts, err := r.workoutsBetween(ctx, ownerID, "", end)
	if err != nil {
		return nil, err
	}
	var sleep []models.HealthMetric
	sq := ownerQuery(models.HealthMetricsCollection, ownerID, "date", "createdAt", rangeOf("", weekStart, weekEnd)).
		Where("type", persistent.OpEqual, models.MetricSleep)
	if err := r.store.Query(ctx, sq, &sleep); err != nil {
		return nil, fmt.Errorf("failed to load sleep: %w", err)
	}

	workoutDate := func(w models.Workout) string { return utils.MillisToDate(w.CompletedAt) }
	activityDate := func(a models.Activity) string { return a.Date }

	week := &models.WeekData{
		StartDate: weekStart,
		EndDate:   weekEnd,
		Workouts: int(aggregate.SumInWindow(workouts, workoutDate,
			func(models.Workout) float64 { return 1 }, weekStart, weekEnd)),
		TotalCalories: aggregate.SumInWindow(workouts, workoutDate,
			func(w models.Workout) float64 { return w.Calories }, weekStart, weekEnd) +
			aggregate.SumInWindow(activities, activityDate,
				func(a models.Activity) float64 { return a.Calories }, weekStart, weekEnd),
		TotalSteps: int(aggregate.SumInWindow(activities, activityDate,
			func(a models.Activity) float64 { return float64(aggregate.EstimateSteps(a.Type, a.Distance)) }, weekStart, weekEnd)),
	}

	hours := make([]float64, 0, len(sleep))
	for _, m := range sleep {
		hours = append(hours, m.Value)
	}
	week.AverageSleep = aggregate.AverageOf(hours)

	dates := make([]string, 0, len(workouts)+len(activities))
	active := map[string]bool{}
	for _, w := range workouts {
		dates = append(dates, workoutDate(w))
	}
	for _, a := range activities {
		dates = append(dates, a.Date)
	}
	for _, d := range dates {
		if d >= weekStart && d <= weekEnd {
			active[d] = true
		}
	}
	week.ActiveDays = len(active)
	week.CurrentStreak = aggregate.CurrentStreak(dates, end)
	week.LongestStreak = aggregate.LongestStreak(dates)

	goals, err := r.ListActiveGoals(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		week.Goals = append(week.Goals, models.GoalProgress{
			Type:     g.Type,
			Progress: g.CurrentValue,
			Target:   g.TargetValue,
		})
	}
	if len(week.Goals) == 0 {
		target := user.Goals.WeeklyWorkouts
		if target <= 0 {
			target = aggregate.DefaultWeeklyWorkouts
		}
		week.Goals = []models.GoalProgress{{
			Type:     "Workouts",
			Progress: float64(week.Workouts),
			Target:   float64(target),
		}}
	}
	return week, nil
}

// workoutsBetween loads the owner's workouts completed on any UTC day in
// [from, to]. An empty from has no lower bound.
func (r *Repository) workoutsBetween(ctx context.Context, ownerID, from, to string) ([]models.Workout, error) {
	_, end, err := utils.DayBounds(to)
	if err != nil {
		return nil, err
	}
	q := persistent.Query{Collection: models.WorkoutsCollection, OrderBy: "completedAt", Descending: true}.
		Where("userId", persistent.OpEqual, ownerID)
	if from != "" {
		start, _, err := utils.DayBounds(from)
		if err != nil {
			return nil, err
		}
		q = q.Where("completedAt", persistent.OpGreaterOrEqual, start)
	}
	q = q.Where("completedAt", persistent.OpLessOrEqual, end-1)

	var workouts []models.Workout
	if err := r.store.Query(ctx, q, &workouts); err != nil {
		return nil, fmt.Errorf("failed to load workouts: %w", err)
	}
	return workouts, nil
}
