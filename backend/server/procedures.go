package server

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/jghoshh/getfit/backend/models"
)

// procedure is one entry of the RPC table. Non public procedures are only
// reached with an authenticated user id.
type procedure struct {
	public bool
	handle func(ctx context.Context, userID string, raw []byte) (interface{}, error)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string       { return "invalid request body: " + e.err.Error() }
func (e *decodeError) Unwrap() error       { return e.err }
func (e *decodeError) UserMessage() string { return "The request body is not valid for this procedure." }

func decode[In any](raw []byte) (In, error) {
	var in In
	if len(bytes.TrimSpace(raw)) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, &decodeError{err: err}
	}
	return in, nil
}

func authed[In any](fn func(ctx context.Context, userID string, in In) (interface{}, error)) procedure {
	return procedure{handle: func(ctx context.Context, userID string, raw []byte) (interface{}, error) {
		in, err := decode[In](raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, userID, in)
	}}
}

func public[In any](fn func(ctx context.Context, in In) (interface{}, error)) procedure {
	return procedure{public: true, handle: func(ctx context.Context, _ string, raw []byte) (interface{}, error) {
		in, err := decode[In](raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}}
}

// list keeps empty results encoded as [] rather than null.
func list[T any](items []T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func one[T any](v *T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func done(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type okResult struct {
	OK bool `json:"ok"`
}

type (
	empty     struct{}
	idInput   struct{ ID string `json:"id"` }
	dateInput struct {
		Date string `json:"date"`
	}
	limitInput struct {
		Limit int `json:"limit"`
	}
	signUpInput struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	signInInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	refreshInput struct {
		RefreshToken string `json:"refreshToken"`
	}
	changePasswordInput struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	weeklyInput struct {
		EndDate string `json:"endDate"`
	}
	mealPatchInput struct {
		ID    string            `json:"id"`
		Patch models.MealUpdate `json:"patch"`
	}
	goalPatchInput struct {
		ID    string            `json:"id"`
		Patch models.GoalUpdate `json:"patch"`
	}
	goalProgressInput struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	challengeProgressInput struct {
		ID       string `json:"id"`
		Progress int    `json:"progress"`
	}
	addFriendInput struct {
		EmailOrID string `json:"emailOrId"`
	}
	coachingInput struct {
		WeekData    *models.WeekData    `json:"weekData,omitempty"`
		UserProfile *models.UserProfile `json:"userProfile,omitempty"`
	}
	tipInput struct {
		Category string `json:"category"`
	}
)

func (s *Server) buildProcedures() map[string]procedure {
	repo := s.deps.Repo
	a := s.deps.Auth

	return map[string]procedure{
		// auth
		"auth.signUp": public(func(ctx context.Context, in signUpInput) (interface{}, error) {
			return one(a.SignUp(ctx, in.Email, in.Password, in.DisplayName))
		}),
		"auth.signIn": public(func(ctx context.Context, in signInInput) (interface{}, error) {
			return one(a.SignIn(ctx, in.Email, in.Password))
		}),
		"auth.refresh": public(func(ctx context.Context, in refreshInput) (interface{}, error) {
			return one(a.Refresh(ctx, in.RefreshToken))
		}),
		"auth.changePassword": authed(func(ctx context.Context, uid string, in changePasswordInput) (interface{}, error) {
			return done(a.ChangePassword(ctx, uid, in.CurrentPassword, in.NewPassword))
		}),

		// user
		"user.get": authed(func(ctx context.Context, uid string, _ empty) (interface{}, error) {
			return one(repo.GetUser(ctx, uid))
		}),
		"user.update": authed(func(ctx context.Context, uid string, in models.UserUpdate) (interface{}, error) {
			return one(repo.UpdateUser(ctx, uid, in))
		}),

		// activity
		"activity.logActivity": authed(func(ctx context.Context, uid string, in models.ActivityInput) (interface{}, error) {
			return one(repo.CreateActivity(ctx, uid, in))
		}),
		"activity.logWorkout": authed(func(ctx context.Context, uid string, in models.WorkoutInput) (interface{}, error) {
			return one(repo.CreateWorkout(ctx, uid, in))
		}),
		"activity.list": authed(func(ctx context.Context, uid string, in models.ListOptions) (interface{}, error) {
			return list(repo.ListActivities(ctx, uid, in))
		}),
		"activity.getHistory": authed(func(ctx context.Context, uid string, in models.ListOptions) (interface{}, error) {
			return list(repo.GetHistory(ctx, uid, in))
		}),
		"activity.delete": authed(func(ctx context.Context, uid string, in idInput) (interface{}, error) {
			return done(repo.DeleteActivity(ctx, uid, in.ID))
		}),
		"activity.getDailySummary": authed(func(ctx context.Context, uid string, in dateInput) (interface{}, error) {
			return one(repo.DailySummary(ctx, uid, in.Date))
		}),
		"activity.getWeeklySummary": authed(func(ctx context.Context, uid string, in weeklyInput) (interface{}, error) {
			return one(repo.WeeklySummary(ctx, uid, in.EndDate))
		}),
		"activity.reconcileStats": authed(func(ctx context.Context, uid string, _ empty) (interface{}, error) {
			return one(repo.ReconcileStats(ctx, uid))
		}),

		// workouts
		"workouts.list": authed(func(ctx context.Context, uid string, in models.ListOptions) (interface{}, error) {
			return list(repo.ListWorkouts(ctx, uid, in))
		}),
		"workouts.delete": authed(func(ctx context.Context, uid string, in idInput) (interface{}, error) {
			return done(repo.DeleteWorkout(ctx, uid, in.ID))
		}),

		// goals
		"goals.createGoal": authed(func(ctx context.Context, uid string, in models.GoalInput) (interface{}, error) {
			return one(repo.CreateGoal(ctx, uid, in))
		}),
		"goals.getActiveGoals": authed(func(ctx context.Context, uid string, _ empty) (interface{}, error) {
			return list(repo.ListActiveGoals(ctx, uid))
		}),
		"goals.updateGoal": authed(func(ctx context.Context, uid string, in goalPatchInput) (interface{}, error) {
			return one(repo.UpdateGoal(ctx, uid, in.ID, in.Patch))
		}),
		"goals.updateGoalProgress": authed(func(ctx context.Context, uid string, in goalProgressInput) (interface{}, error) {
			return one(repo.AddGoalProgress(ctx, uid, in.ID, in.Amount))
		}),
		"goals.deleteGoal": authed(func(ctx context.Context, uid string, in idInput) (interface{}, error) {
			return done(repo.DeleteGoal(ctx, uid, in.ID))
		}),

		// nutrition
		"meals.create": authed(func(ctx context.Context, uid string, in models.MealInput) (interface{}, error) {
			return one(repo.CreateMeal(ctx, uid, in))
		}),
		"meals.list": authed(func(ctx context.Context, uid string, in models.ListOptions) (interface{}, error) {
			return list(repo.ListMeals(ctx, uid, in))
		}),
		"meals.update": authed(func(ctx context.Context, uid string, in mealPatchInput) (interface{}, error) {
			return one(repo.UpdateMeal(ctx, uid, in.ID, in.Patch))
		}),
		"meals.delete": authed(func(ctx context.Context, uid string, in idInput) (interface{}, error) {
			return done(repo.DeleteMeal(ctx, uid, in.ID))
		}),
		"water.set": authed(func(ctx context.Context, uid string, in models.WaterInput) (interface{}, error) {
			return one(repo.SetWaterIntake(ctx, uid, in))
		}),
		"water.get": authed(func(ctx context.Context, uid string, in dateInput) (interface{}, error) {
			return one(repo.GetWaterIntake(ctx, uid, in.Date))
		}),

		// health
		"health.create": authed(func(ctx context.Context, uid string, in models.HealthMetricInput) (interface{}, error) {
			return one(repo.CreateHealthMetric(ctx, uid, in))
		}),
		"health.list": authed(func(ctx context.Context, uid string, in models.ListOptions) (interface{}, error) {
			return list(repo.ListHealthMetrics(ctx, uid, in))
		}),
		"health.delete": authed(func(ctx context.Context, uid string, in idInput) (interface{}, error) {
			return done(repo.DeleteHealthMetric(ctx, uid, in.ID))
		}),

		// challenges
		"challenges.create": authed(func(ctx context.Context, uid string, in models.ChallengeInput) (interface{}, error) {
			return one(repo.CreateChallenge(ctx, uid, in))
		}),
		"challenges.list": authed(func(ctx context.Context, _ string, in limitInput) (interface{}, error) {
			return list(repo.ListChallenges(ctx, in.Limit))
		}),
		"challenges.join": authed(func(ctx context.Context, uid string, in idInput) (interface{}, error) {
			return one(repo.JoinChallenge(ctx, uid, in.ID))
		}),
		"challenges.updateProgress": authed(func(ctx context.Context, uid string, in challengeProgressInput) (interface{}, error) {
			return one(repo.UpdateChallengeProgress(ctx, uid, in.ID, in.Progress))
		}),
		"challenges.delete": authed(func(ctx context.Context, uid string, in idInput) (interface{}, error) {
			return done(repo.DeleteChallenge(ctx, uid, in.ID))
		}),

		// social
		"social.addFriend": authed(func(ctx context.Context, uid string, in addFriendInput) (interface{}, error) {
			return one(repo.AddFriend(ctx, uid, in.EmailOrID))
		}),
		"social.listFriends": authed(func(ctx context.Context, uid string, _ empty) (interface{}, error) {
			return list(repo.ListFriends(ctx, uid))
		}),
		"social.friendsActivity": authed(func(ctx context.Context, uid string, in limitInput) (interface{}, error) {
			return list(repo.FriendsActivity(ctx, uid, in.Limit))
		}),
		"social.leaderboard": authed(func(ctx context.Context, _ string, in limitInput) (interface{}, error) {
			return list(repo.Leaderboard(ctx, in.Limit))
		}),

		// ai
		"ai.getCoachingAdvice": authed(s.coachingAdvice),
		"ai.getQuickTip": authed(func(_ context.Context, _ string, in tipInput) (interface{}, error) {
			tip, err := s.deps.Coaching.QuickTip(in.Category)
			if err != nil {
				return nil, err
			}
			return tip, nil
		}),
	}
}

// coachingAdvice uses the caller's week data when given and otherwise
// summarizes the last seven days server side.
func (s *Server) coachingAdvice(ctx context.Context, userID string, in coachingInput) (interface{}, error) {
	req := models.CoachingRequest{UserProfile: in.UserProfile}
	if in.WeekData != nil {
		req.WeekData = *in.WeekData
	} else {
		week, err := s.deps.Repo.WeeklySummary(ctx, userID, "")
		if err != nil {
			return nil, err
		}
		req.WeekData = *week
	}
	return s.deps.Coaching.GetCoachingAdvice(ctx, userID, req), nil
}
