package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/backend/validation"
	"github.com/jghoshh/getfit/lib/utils"
)

// CreateActivity validates and stores a new activity, then adds its distance
// and calories to the owner's stats. The stats write is best effort.
func (r *Repository) CreateActivity(ctx context.Context, ownerID string, in models.ActivityInput) (*models.Activity, error) {
	in, err := validation.Activity(in)
	if err != nil {
		return nil, err
	}

	activity := models.Activity{
		ID:        r.store.NewID(models.ActivitiesCollection),
		UserID:    ownerID,
		Type:      in.Type,
		Distance:  in.Distance,
		Duration:  in.Duration,
		Calories:  in.Calories,
		Date:      in.Date,
		CreatedAt: r.nowMillis(),
	}
	if err := r.store.Set(ctx, models.ActivitiesCollection, activity.ID, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	err = r.incrementStats(ctx, ownerID, map[string]interface{}{
		"totalDistance": activity.Distance,
		"totalCalories": activity.Calories,
	})
	if err != nil {
		log.Printf("activity %s stored but stats update for user %s failed: %v", activity.ID, ownerID, err)
	}
	return &activity, nil
}

func (r *Repository) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	return getOne[models.Activity](ctx, r, models.ActivitiesCollection, id)
}

// ListActivities returns the owner's activities, newest first.
func (r *Repository) ListActivities(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.Activity, error) {
	if err := validation.ListOptions(opts); err != nil {
		return nil, err
	}
	q := ownerQuery(models.ActivitiesCollection, ownerID, "date", "createdAt", rangeOf(opts.Date, opts.StartDate, opts.EndDate))
	if opts.Type != "" {
		q = q.Where("type", persistent.OpEqual, opts.Type)
	}
	q.Limit = listLimit(opts.Limit, defaultListLimit)

	var activities []models.Activity
	if err := r.store.Query(ctx, q, &activities); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// GetHistory is ListActivities with the page size capped at 100.
func (r *Repository) GetHistory(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.Activity, error) {
	opts.Limit = listLimit(opts.Limit, maxListLimit)
	return r.ListActivities(ctx, ownerID, opts)
}

func (r *Repository) DeleteActivity(ctx context.Context, ownerID, id string) error {
	_, err := getOwned(ctx, r, models.ActivitiesCollection, id, ownerID, func(a *models.Activity) string { return a.UserID })
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, models.ActivitiesCollection, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// CreateWorkout validates and stores a completed workout, then increments the
// owner's workout count and calories. The second write is best effort: a
// failure is logged and the stored workout is still returned.
func (r *Repository) CreateWorkout(ctx context.Context, ownerID string, in models.WorkoutInput) (*models.Workout, error) {
	in, err := validation.Workout(in)
	if err != nil {
		return nil, err
	}

	workout := models.Workout{
		ID:          r.store.NewID(models.WorkoutsCollection),
		UserID:      ownerID,
		Title:       in.Title,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		Duration:    in.Duration,
		Calories:    in.Calories,
		Exercises:   in.Exercises,
		Notes:       in.Notes,
		CompletedAt: r.nowMillis(),
	}
	if workout.Exercises == nil {
		workout.Exercises = []models.Exercise{}
	}
	if err := r.store.Set(ctx, models.WorkoutsCollection, workout.ID, workout); err != nil {
		return nil, fmt.Errorf("failed to create workout: %w", err)
	}

	err = r.incrementStats(ctx, ownerID, map[string]interface{}{
		"totalWorkouts": 1,
		"totalCalories": workout.Calories,
	})
	if err != nil {
		log.Printf("workout %s stored but stats update for user %s failed: %v", workout.ID, ownerID, err)
	}
	return &workout, nil
}

func (r *Repository) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	return getOne[models.Workout](ctx, r, models.WorkoutsCollection, id)
}

// ListWorkouts returns the owner's workouts by completion time, newest first.
// Date filters select on the UTC day of completion.
func (r *Repository) ListWorkouts(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.Workout, error) {
	if err := validation.ListOptions(opts); err != nil {
		return nil, err
	}
	q := persistent.Query{Collection: models.WorkoutsCollection, OrderBy: "completedAt", Descending: true}.
		Where("userId", persistent.OpEqual, ownerID)

	start, end := opts.StartDate, opts.EndDate
	if opts.Date != "" {
		start, end = opts.Date, opts.Date
	}
	if start != "" {
		from, _, err := utils.DayBounds(start)
		if err != nil {
			return nil, err
		}
		q = q.Where("completedAt", persistent.OpGreaterOrEqual, from)
	}
	if end != "" {
		_, until, err := utils.DayBounds(end)
		if err != nil {
			return nil, err
		}
		q = q.Where("completedAt", persistent.OpLessOrEqual, until-1)
	}
	if opts.Type != "" {
		q = q.Where("category", persistent.OpEqual, opts.Type)
	}
	q.Limit = listLimit(opts.Limit, defaultListLimit)

	var workouts []models.Workout
	if err := r.store.Query(ctx, q, &workouts); err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	return workouts, nil
}

func (r *Repository) DeleteWorkout(ctx context.Context, ownerID, id string) error {
	_, err := getOwned(ctx, r, models.WorkoutsCollection, id, ownerID, func(w *models.Workout) string { return w.UserID })
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, models.WorkoutsCollection, id); err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	return nil
}
