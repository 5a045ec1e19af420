package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jghoshh/getfit/backend/aggregate"
	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/backend/validation"
	"github.com/jghoshh/getfit/lib/utils"
)

// NewUserProfile builds the user document written at sign up, with zero
// stats and the default goals and settings.
func NewUserProfile(id, email, displayName string, createdAt int64) models.User {
	return models.User{
		ID:          id,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   createdAt,
		Goals: models.UserGoals{
			DailySteps:     aggregate.DefaultDailySteps,
			DailyCalories:  aggregate.DefaultDailyCalories,
			WeeklyWorkouts: aggregate.DefaultWeeklyWorkouts,
			DailyWater:     aggregate.DefaultDailyWater,
		},
		Settings: models.UserSettings{
			Units: "metric",
			Theme: "dark",
			Notifications: models.NotificationSettings{
				Workouts:     true,
				Meals:        true,
				Hydration:    true,
				Achievements: true,
				Social:       false,
			},
		},
		Friends: []string{},
	}
}

// CreateUser writes a new user profile.
func (r *Repository) CreateUser(ctx context.Context, id, email, displayName string) (*models.User, error) {
	if err := validation.NewUser(email, displayName); err != nil {
		return nil, err
	}
	user := NewUserProfile(id, email, displayName, r.nowMillis())
	if err := r.store.Set(ctx, models.UsersCollection, id, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUser returns nil when the user does not exist.
func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	return getOne[models.User](ctx, r, models.UsersCollection, id)
}

// FindUserByEmail returns nil when no user has the given email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User
	q := persistent.Query{Collection: models.UsersCollection, Limit: 1}.
		Where("email", persistent.OpEqual, strings.ToLower(strings.TrimSpace(email)))
	if err := r.store.Query(ctx, q, &users); err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// UpdateUser changes the profile fields a user controls on their own document.
func (r *Repository) UpdateUser(ctx context.Context, userID string, patch models.UserUpdate) (*models.User, error) {
	patch, err := validation.UserPatch(patch)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.DisplayName != nil {
		fields["displayName"] = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		fields["photoURL"] = *patch.PhotoURL
	}
	if patch.Goals != nil {
		fields["goals"] = *patch.Goals
	}
	if patch.Settings != nil {
		fields["settings"] = *patch.Settings
	}
	if len(fields) > 0 {
		if err := r.store.Update(ctx, models.UsersCollection, userID, fields); err != nil {
			if errors.Is(err, persistent.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// WatchUser pushes the user document to onChange on every change, with nil
// when it does not exist. The returned function stops the subscription.
func (r *Repository) WatchUser(ctx context.Context, userID string, onChange func(*models.User), onError func(error)) (func(), error) {
	return r.store.Watch(ctx, models.UsersCollection, userID, func(snap persistent.Snapshot) {
		if !snap.Exists {
			onChange(nil)
			return
		}
		var user models.User
		if err := snap.DataTo(&user); err != nil {
			onError(err)
			return
		}
		onChange(&user)
	}, onError)
}

// ListNotifiableUsers returns users who want workout notifications, at most
// 1000 per call.
func (r *Repository) ListNotifiableUsers(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 || limit > maxNotifiableUsers {
		limit = maxNotifiableUsers
	}
	var users []models.User
	q := persistent.Query{Collection: models.UsersCollection, Limit: limit}.
		Where("settings.notifications.workouts", persistent.OpEqual, true)
	if err := r.store.Query(ctx, q, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ReconcileStats recomputes a user's stats from their raw workouts and
// activities. Cumulative counters never move backwards, so each takes the
// larger of its stored and recomputed value. Streaks are recomputed.
func (r *Repository) ReconcileStats(ctx context.Context, userID string) (*models.UserStats, error) {
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	var workouts []models.Workout
	wq := persistent.Query{Collection: models.WorkoutsCollection}.Where("userId", persistent.OpEqual, userID)
	if err := r.store.Query(ctx, wq, &workouts); err != nil {
		return nil, fmt.Errorf("failed to load workouts: %w", err)
	}
	var activities []models.Activity
	aq := persistent.Query{Collection: models.ActivitiesCollection}.Where("userId", persistent.OpEqual, userID)
	if err := r.store.Query(ctx, aq, &activities); err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}

	recomputed := models.UserStats{TotalWorkouts: len(workouts)}
	dates := make([]string, 0, len(workouts)+len(activities))
	for _, w := range workouts {
		recomputed.TotalCalories += w.Calories
		dates = append(dates, utils.MillisToDate(w.CompletedAt))
	}
	for _, a := range activities {
		recomputed.TotalCalories += a.Calories
		recomputed.TotalDistance += a.Distance
		dates = append(dates, a.Date)
	}

	stored := user.Stats
	stats := models.UserStats{
		TotalWorkouts: maxInt(stored.TotalWorkouts, recomputed.TotalWorkouts),
		TotalCalories: maxFloat(stored.TotalCalories, recomputed.TotalCalories),
		TotalDistance: maxFloat(stored.TotalDistance, recomputed.TotalDistance),
		CurrentStreak: aggregate.CurrentStreak(dates, r.Today()),
	}
	stats.LongestStreak = maxInt(stored.LongestStreak, maxInt(aggregate.LongestStreak(dates), stats.CurrentStreak))

	if err := r.store.Update(ctx, models.UsersCollection, userID, map[string]interface{}{"stats": stats}); err != nil {
		return nil, fmt.Errorf("failed to write stats: %w", err)
	}
	return &stats, nil
}

// incrementStats is the best-effort second write after a workout or activity.
// Failures are logged by the caller and never surface.
func (r *Repository) incrementStats(ctx context.Context, userID string, deltas map[string]interface{}) error {
	prefixed := make(map[string]interface{}, len(deltas))
	for k, v := range deltas {
		prefixed["stats."+k] = v
	}
	return r.store.Increment(ctx, models.UsersCollection, userID, prefixed)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
