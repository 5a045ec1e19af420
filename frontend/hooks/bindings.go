package hooks

import (
	"context"

	"github.com/jghoshh/getfit/backend/models"
)

// Sources are satisfied by *repository.Repository and by *client.Client. The
// owner argument names the signed in user; the RPC client ignores it in
// favour of its token.

type ActivitySource interface {
	ListActivities(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.Activity, error)
	CreateActivity(ctx context.Context, ownerID string, in models.ActivityInput) (*models.Activity, error)
	DeleteActivity(ctx context.Context, ownerID, id string) error
}

type WorkoutSource interface {
	ListWorkouts(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.Workout, error)
	CreateWorkout(ctx context.Context, ownerID string, in models.WorkoutInput) (*models.Workout, error)
	DeleteWorkout(ctx context.Context, ownerID, id string) error
}

type MealSource interface {
	ListMeals(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.Meal, error)
	CreateMeal(ctx context.Context, ownerID string, in models.MealInput) (*models.Meal, error)
	UpdateMeal(ctx context.Context, ownerID, id string, patch models.MealUpdate) (*models.Meal, error)
	DeleteMeal(ctx context.Context, ownerID, id string) error
}

type WaterSource interface {
	GetWaterIntake(ctx context.Context, ownerID, date string) (*models.WaterIntake, error)
	SetWaterIntake(ctx context.Context, ownerID string, in models.WaterInput) (*models.WaterIntake, error)
}

type HealthSource interface {
	ListHealthMetrics(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.HealthMetric, error)
	CreateHealthMetric(ctx context.Context, ownerID string, in models.HealthMetricInput) (*models.HealthMetric, error)
	DeleteHealthMetric(ctx context.Context, ownerID, id string) error
}

type ChallengeSource interface {
	ListChallenges(ctx context.Context, limit int) ([]models.Challenge, error)
	CreateChallenge(ctx context.Context, ownerID string, in models.ChallengeInput) (*models.Challenge, error)
	JoinChallenge(ctx context.Context, userID, challengeID string) (*models.Challenge, error)
	UpdateChallengeProgress(ctx context.Context, userID, challengeID string, progress int) (*models.Challenge, error)
	DeleteChallenge(ctx context.Context, userID, challengeID string) error
}

type GoalSource interface {
	ListActiveGoals(ctx context.Context, ownerID string) ([]models.Goal, error)
	CreateGoal(ctx context.Context, ownerID string, in models.GoalInput) (*models.Goal, error)
	UpdateGoal(ctx context.Context, ownerID, id string, patch models.GoalUpdate) (*models.Goal, error)
	AddGoalProgress(ctx context.Context, ownerID, id string, amount float64) (*models.Goal, error)
	DeleteGoal(ctx context.Context, ownerID, id string) error
}

type SocialSource interface {
	ListFriends(ctx context.Context, userID string) ([]models.FriendSummary, error)
	AddFriend(ctx context.Context, userID, emailOrID string) (*models.FriendSummary, error)
	FriendsActivity(ctx context.Context, userID string, limit int) ([]models.FriendActivity, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

func activityID(a *models.Activity) string   { return a.ID }
func workoutID(w *models.Workout) string     { return w.ID }
func mealID(m *models.Meal) string           { return m.ID }
func metricID(m *models.HealthMetric) string { return m.ID }
func challengeID(c *models.Challenge) string { return c.ID }
func goalID(g *models.Goal) string           { return g.ID }

// Activities binds the owner's activity log.
type Activities struct {
	*resource[[]models.Activity]
	src ActivitySource
}

func NewActivities(src ActivitySource) *Activities {
	return &Activities{src: src, resource: newResource(func(ctx context.Context, owner string) ([]models.Activity, error) {
		return src.ListActivities(ctx, owner, models.ListOptions{})
	})}
}

func (h *Activities) Add(ctx context.Context, in models.ActivityInput) (*models.Activity, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Activity, error) {
		return h.src.CreateActivity(ctx, owner, in)
	}, prependBy(activityID))
}

func (h *Activities) Delete(ctx context.Context, id string) error {
	_, err := mutate(ctx, h.resource, none(func(ctx context.Context, owner string) error {
		return h.src.DeleteActivity(ctx, owner, id)
	}), func(list []models.Activity, _ struct{}) []models.Activity {
		return remove(list, id, activityID)
	})
	return err
}

// Workouts binds the owner's completed workouts.
type Workouts struct {
	*resource[[]models.Workout]
	src WorkoutSource
}

func NewWorkouts(src WorkoutSource) *Workouts {
	return &Workouts{src: src, resource: newResource(func(ctx context.Context, owner string) ([]models.Workout, error) {
		return src.ListWorkouts(ctx, owner, models.ListOptions{})
	})}
}

func (h *Workouts) Add(ctx context.Context, in models.WorkoutInput) (*models.Workout, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Workout, error) {
		return h.src.CreateWorkout(ctx, owner, in)
	}, prependBy(workoutID))
}

func (h *Workouts) Delete(ctx context.Context, id string) error {
	_, err := mutate(ctx, h.resource, none(func(ctx context.Context, owner string) error {
		return h.src.DeleteWorkout(ctx, owner, id)
	}), func(list []models.Workout, _ struct{}) []models.Workout {
		return remove(list, id, workoutID)
	})
	return err
}

// Meals binds the owner's meals, of one day when date is set.
type Meals struct {
	*resource[[]models.Meal]
	src MealSource
}

func NewMeals(src MealSource, date string) *Meals {
	return &Meals{src: src, resource: newResource(func(ctx context.Context, owner string) ([]models.Meal, error) {
		return src.ListMeals(ctx, owner, models.ListOptions{Date: date})
	})}
}

func (h *Meals) Add(ctx context.Context, in models.MealInput) (*models.Meal, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Meal, error) {
		return h.src.CreateMeal(ctx, owner, in)
	}, prependBy(mealID))
}

func (h *Meals) Update(ctx context.Context, id string, patch models.MealUpdate) (*models.Meal, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Meal, error) {
		return h.src.UpdateMeal(ctx, owner, id, patch)
	}, func(list []models.Meal, m *models.Meal) []models.Meal {
		return replace(list, m, mealID)
	})
}

func (h *Meals) Delete(ctx context.Context, id string) error {
	_, err := mutate(ctx, h.resource, none(func(ctx context.Context, owner string) error {
		return h.src.DeleteMeal(ctx, owner, id)
	}), func(list []models.Meal, _ struct{}) []models.Meal {
		return remove(list, id, mealID)
	})
	return err
}

// Water binds the owner's water record of one day. Data is nil until
// something was logged.
type Water struct {
	*resource[*models.WaterIntake]
	src  WaterSource
	date string
}

func NewWater(src WaterSource, date string) *Water {
	return &Water{src: src, date: date, resource: newResource(func(ctx context.Context, owner string) (*models.WaterIntake, error) {
		return src.GetWaterIntake(ctx, owner, date)
	})}
}

func (h *Water) Set(ctx context.Context, glasses int) (*models.WaterIntake, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.WaterIntake, error) {
		return h.src.SetWaterIntake(ctx, owner, models.WaterInput{Glasses: glasses, Date: h.date})
	}, func(_ *models.WaterIntake, w *models.WaterIntake) *models.WaterIntake {
		return w
	})
}

// HealthMetrics binds the owner's health entries, of one type when
// metricType is set.
type HealthMetrics struct {
	*resource[[]models.HealthMetric]
	src HealthSource
}

func NewHealthMetrics(src HealthSource, metricType string) *HealthMetrics {
	return &HealthMetrics{src: src, resource: newResource(func(ctx context.Context, owner string) ([]models.HealthMetric, error) {
		return src.ListHealthMetrics(ctx, owner, models.ListOptions{Type: metricType})
	})}
}

func (h *HealthMetrics) Add(ctx context.Context, in models.HealthMetricInput) (*models.HealthMetric, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.HealthMetric, error) {
		return h.src.CreateHealthMetric(ctx, owner, in)
	}, prependBy(metricID))
}

func (h *HealthMetrics) Delete(ctx context.Context, id string) error {
	_, err := mutate(ctx, h.resource, none(func(ctx context.Context, owner string) error {
		return h.src.DeleteHealthMetric(ctx, owner, id)
	}), func(list []models.HealthMetric, _ struct{}) []models.HealthMetric {
		return remove(list, id, metricID)
	})
	return err
}

// Challenges binds the public challenge list. It still waits for an owner
// since joining and creating need one.
type Challenges struct {
	*resource[[]models.Challenge]
	src ChallengeSource
}

func NewChallenges(src ChallengeSource) *Challenges {
	return &Challenges{src: src, resource: newResource(func(ctx context.Context, _ string) ([]models.Challenge, error) {
		return src.ListChallenges(ctx, 0)
	})}
}

func (h *Challenges) Create(ctx context.Context, in models.ChallengeInput) (*models.Challenge, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Challenge, error) {
		return h.src.CreateChallenge(ctx, owner, in)
	}, prependBy(challengeID))
}

func (h *Challenges) Join(ctx context.Context, id string) (*models.Challenge, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Challenge, error) {
		return h.src.JoinChallenge(ctx, owner, id)
	}, func(list []models.Challenge, c *models.Challenge) []models.Challenge {
		return replace(list, c, challengeID)
	})
}

func (h *Challenges) UpdateProgress(ctx context.Context, id string, progress int) (*models.Challenge, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Challenge, error) {
		return h.src.UpdateChallengeProgress(ctx, owner, id, progress)
	}, func(list []models.Challenge, c *models.Challenge) []models.Challenge {
		return replace(list, c, challengeID)
	})
}

func (h *Challenges) Delete(ctx context.Context, id string) error {
	_, err := mutate(ctx, h.resource, none(func(ctx context.Context, owner string) error {
		return h.src.DeleteChallenge(ctx, owner, id)
	}), func(list []models.Challenge, _ struct{}) []models.Challenge {
		return remove(list, id, challengeID)
	})
	return err
}

// Goals binds the owner's active goals. A goal that leaves the active state
// drops out of the local list.
type Goals struct {
	*resource[[]models.Goal]
	src GoalSource
}

func NewGoals(src GoalSource) *Goals {
	return &Goals{src: src, resource: newResource(src.ListActiveGoals)}
}

func (h *Goals) Create(ctx context.Context, in models.GoalInput) (*models.Goal, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Goal, error) {
		return h.src.CreateGoal(ctx, owner, in)
	}, prependBy(goalID))
}

func (h *Goals) Update(ctx context.Context, id string, patch models.GoalUpdate) (*models.Goal, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Goal, error) {
		return h.src.UpdateGoal(ctx, owner, id, patch)
	}, applyGoal)
}

func (h *Goals) AddProgress(ctx context.Context, id string, amount float64) (*models.Goal, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.Goal, error) {
		return h.src.AddGoalProgress(ctx, owner, id, amount)
	}, applyGoal)
}

func (h *Goals) Delete(ctx context.Context, id string) error {
	_, err := mutate(ctx, h.resource, none(func(ctx context.Context, owner string) error {
		return h.src.DeleteGoal(ctx, owner, id)
	}), func(list []models.Goal, _ struct{}) []models.Goal {
		return remove(list, id, goalID)
	})
	return err
}

func applyGoal(list []models.Goal, g *models.Goal) []models.Goal {
	if g == nil {
		return list
	}
	if g.Status != models.GoalActive {
		return remove(list, g.ID, goalID)
	}
	return replace(list, g, goalID)
}

// SocialData is everything the social screen shows.
type SocialData struct {
	Friends     []models.FriendSummary
	Feed        []models.FriendActivity
	Leaderboard []models.LeaderboardEntry
}

// Social binds the owner's friends, their recent workouts and the leaderboard.
type Social struct {
	*resource[SocialData]
	src SocialSource
}

func NewSocial(src SocialSource) *Social {
	return &Social{src: src, resource: newResource(func(ctx context.Context, owner string) (SocialData, error) {
		var data SocialData
		var err error
		if data.Friends, err = src.ListFriends(ctx, owner); err != nil {
			return SocialData{}, err
		}
		if data.Feed, err = src.FriendsActivity(ctx, owner, 0); err != nil {
			return SocialData{}, err
		}
		if data.Leaderboard, err = src.Leaderboard(ctx, 0); err != nil {
			return SocialData{}, err
		}
		return data, nil
	})}
}

func (h *Social) AddFriend(ctx context.Context, emailOrID string) (*models.FriendSummary, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.FriendSummary, error) {
		return h.src.AddFriend(ctx, owner, emailOrID)
	}, func(data SocialData, f *models.FriendSummary) SocialData {
		if f != nil {
			data.Friends = append(append([]models.FriendSummary{}, data.Friends...), *f)
		}
		return data
	})
}
