package client

import (
	"context"
	"log"
	"reflect"
	"time"

	"github.com/jghoshh/getfit/backend/models"
)

// The owner arguments below exist so that the Client satisfies the same
// source interfaces as the repository. The server always acts for the user
// of the auth token.

type idArg struct {
	ID string `json:"id"`
}

type dateArg struct {
	Date string `json:"date"`
}

type limitArg struct {
	Limit int `json:"limit,omitempty"`
}

func (c *Client) GetUser(ctx context.Context, _ string) (*models.User, error) {
	var u *models.User
	err := c.authed(ctx, "user.get", nil, &u)
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, _ string, patch models.UserUpdate) (*models.User, error) {
	var u models.User
	if err := c.authed(ctx, "user.update", patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// WatchUser polls the profile and calls onChange whenever it differs from
// the last delivered value. The first poll happens before it returns.
func (c *Client) WatchUser(ctx context.Context, userID string, onChange func(*models.User), onError func(error)) (func(), error) {
	last, err := c.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	onChange(last)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				u, err := c.GetUser(ctx, userID)
				if ctx.Err() != nil {
					return
				}
				if err != nil {
					log.Printf("user poll failed: %v", err)
					onError(err)
					continue
				}
				if !reflect.DeepEqual(u, last) {
					last = u
					onChange(u)
				}
			}
		}
	}()
	return cancel, nil
}

func (c *Client) CreateActivity(ctx context.Context, _ string, in models.ActivityInput) (*models.Activity, error) {
	var a models.Activity
	if err := c.authed(ctx, "activity.logActivity", in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ListActivities(ctx context.Context, _ string, opts models.ListOptions) ([]models.Activity, error) {
	var list []models.Activity
	err := c.authed(ctx, "activity.list", opts, &list)
	return list, err
}

func (c *Client) GetHistory(ctx context.Context, _ string, opts models.ListOptions) ([]models.Activity, error) {
	var list []models.Activity
	err := c.authed(ctx, "activity.getHistory", opts, &list)
	return list, err
}

func (c *Client) DeleteActivity(ctx context.Context, _ string, id string) error {
	return c.authed(ctx, "activity.delete", idArg{ID: id}, nil)
}

func (c *Client) CreateWorkout(ctx context.Context, _ string, in models.WorkoutInput) (*models.Workout, error) {
	var w models.Workout
	if err := c.authed(ctx, "activity.logWorkout", in, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) ListWorkouts(ctx context.Context, _ string, opts models.ListOptions) ([]models.Workout, error) {
	var list []models.Workout
	err := c.authed(ctx, "workouts.list", opts, &list)
	return list, err
}

func (c *Client) DeleteWorkout(ctx context.Context, _ string, id string) error {
	return c.authed(ctx, "workouts.delete", idArg{ID: id}, nil)
}

func (c *Client) DailySummary(ctx context.Context, _ string, date string) (*models.DailySummary, error) {
	var s models.DailySummary
	if err := c.authed(ctx, "activity.getDailySummary", dateArg{Date: date}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) WeeklySummary(ctx context.Context, _ string, end string) (*models.WeekData, error) {
	var w models.WeekData
	if err := c.authed(ctx, "activity.getWeeklySummary", map[string]string{"endDate": end}, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) ReconcileStats(ctx context.Context, _ string) (*models.UserStats, error) {
	var s models.UserStats
	if err := c.authed(ctx, "activity.reconcileStats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateMeal(ctx context.Context, _ string, in models.MealInput) (*models.Meal, error) {
	var m models.Meal
	if err := c.authed(ctx, "meals.create", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) ListMeals(ctx context.Context, _ string, opts models.ListOptions) ([]models.Meal, error) {
	var list []models.Meal
	err := c.authed(ctx, "meals.list", opts, &list)
	return list, err
}

func (c *Client) UpdateMeal(ctx context.Context, _ string, id string, patch models.MealUpdate) (*models.Meal, error) {
	var m models.Meal
	in := struct {
		ID    string            `json:"id"`
		Patch models.MealUpdate `json:"patch"`
	}{id, patch}
	if err := c.authed(ctx, "meals.update", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) DeleteMeal(ctx context.Context, _ string, id string) error {
	return c.authed(ctx, "meals.delete", idArg{ID: id}, nil)
}

func (c *Client) SetWaterIntake(ctx context.Context, _ string, in models.WaterInput) (*models.WaterIntake, error) {
	var w models.WaterIntake
	if err := c.authed(ctx, "water.set", in, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetWaterIntake returns nil when nothing was logged for the day.
func (c *Client) GetWaterIntake(ctx context.Context, _ string, date string) (*models.WaterIntake, error) {
	var w *models.WaterIntake
	err := c.authed(ctx, "water.get", dateArg{Date: date}, &w)
	return w, err
}

func (c *Client) CreateHealthMetric(ctx context.Context, _ string, in models.HealthMetricInput) (*models.HealthMetric, error) {
	var m models.HealthMetric
	if err := c.authed(ctx, "health.create", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) ListHealthMetrics(ctx context.Context, _ string, opts models.ListOptions) ([]models.HealthMetric, error) {
	var list []models.HealthMetric
	err := c.authed(ctx, "health.list", opts, &list)
	return list, err
}

func (c *Client) DeleteHealthMetric(ctx context.Context, _ string, id string) error {
	return c.authed(ctx, "health.delete", idArg{ID: id}, nil)
}

func (c *Client) CreateChallenge(ctx context.Context, _ string, in models.ChallengeInput) (*models.Challenge, error) {
	var ch models.Challenge
	if err := c.authed(ctx, "challenges.create", in, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) ListChallenges(ctx context.Context, limit int) ([]models.Challenge, error) {
	var list []models.Challenge
	err := c.authed(ctx, "challenges.list", limitArg{Limit: limit}, &list)
	return list, err
}

func (c *Client) JoinChallenge(ctx context.Context, _ string, challengeID string) (*models.Challenge, error) {
	var ch models.Challenge
	if err := c.authed(ctx, "challenges.join", idArg{ID: challengeID}, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) UpdateChallengeProgress(ctx context.Context, _ string, challengeID string, progress int) (*models.Challenge, error) {
	var ch models.Challenge
	in := struct {
		ID       string `json:"id"`
		Progress int    `json:"progress"`
	}{challengeID, progress}
	if err := c.authed(ctx, "challenges.updateProgress", in, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) DeleteChallenge(ctx context.Context, _ string, challengeID string) error {
	return c.authed(ctx, "challenges.delete", idArg{ID: challengeID}, nil)
}

func (c *Client) CreateGoal(ctx context.Context, _ string, in models.GoalInput) (*models.Goal, error) {
	var g models.Goal
	if err := c.authed(ctx, "goals.createGoal", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) ListActiveGoals(ctx context.Context, _ string) ([]models.Goal, error) {
	var list []models.Goal
	err := c.authed(ctx, "goals.getActiveGoals", nil, &list)
	return list, err
}

func (c *Client) UpdateGoal(ctx context.Context, _ string, id string, patch models.GoalUpdate) (*models.Goal, error) {
	var g models.Goal
	in := struct {
		ID    string            `json:"id"`
		Patch models.GoalUpdate `json:"patch"`
	}{id, patch}
	if err := c.authed(ctx, "goals.updateGoal", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) AddGoalProgress(ctx context.Context, _ string, id string, amount float64) (*models.Goal, error) {
	var g models.Goal
	in := struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}{id, amount}
	if err := c.authed(ctx, "goals.updateGoalProgress", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) DeleteGoal(ctx context.Context, _ string, id string) error {
	return c.authed(ctx, "goals.deleteGoal", idArg{ID: id}, nil)
}

func (c *Client) AddFriend(ctx context.Context, _ string, emailOrID string) (*models.FriendSummary, error) {
	var f models.FriendSummary
	if err := c.authed(ctx, "social.addFriend", map[string]string{"emailOrId": emailOrID}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) ListFriends(ctx context.Context, _ string) ([]models.FriendSummary, error) {
	var list []models.FriendSummary
	err := c.authed(ctx, "social.listFriends", nil, &list)
	return list, err
}

func (c *Client) FriendsActivity(ctx context.Context, _ string, limit int) ([]models.FriendActivity, error) {
	var list []models.FriendActivity
	err := c.authed(ctx, "social.friendsActivity", limitArg{Limit: limit}, &list)
	return list, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	var list []models.LeaderboardEntry
	err := c.authed(ctx, "social.leaderboard", limitArg{Limit: limit}, &list)
	return list, err
}

// CoachingAdvice asks the server for today's advice, letting it summarize
// the week.
func (c *Client) CoachingAdvice(ctx context.Context, _ string) (models.CoachingAdvice, error) {
	var advice models.CoachingAdvice
	err := c.authed(ctx, "ai.getCoachingAdvice", nil, &advice)
	return advice, err
}

func (c *Client) QuickTip(ctx context.Context, category string) (models.QuickTip, error) {
	var tip models.QuickTip
	err := c.authed(ctx, "ai.getQuickTip", map[string]string{"category": category}, &tip)
	return tip, err
}
