package hooks

import (
	"context"
	"time"

	"github.com/jghoshh/getfit/backend/aggregate"
	"github.com/jghoshh/getfit/backend/coaching"
	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/lib/utils"
)

type DashboardSource interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	DailySummary(ctx context.Context, ownerID, date string) (*models.DailySummary, error)
	WeeklySummary(ctx context.Context, ownerID, end string) (*models.WeekData, error)
}

// DashboardData is today's totals and the week's activity measured against
// the user's goals.
type DashboardData struct {
	Today            models.DailySummary
	Week             models.WeekData
	Goals            models.UserGoals
	StepsProgress    int
	CaloriesProgress int
	WaterProgress    int
	WorkoutsProgress int
}

// Dashboard is a read only binding derived from the daily and weekly
// summaries.
type Dashboard struct {
	*resource[DashboardData]
}

func NewDashboard(src DashboardSource, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{resource: newResource(func(ctx context.Context, owner string) (DashboardData, error) {
		today := utils.DateString(now())
		user, err := src.GetUser(ctx, owner)
		if err != nil {
			return DashboardData{}, err
		}
		day, err := src.DailySummary(ctx, owner, today)
		if err != nil {
			return DashboardData{}, err
		}
		week, err := src.WeeklySummary(ctx, owner, today)
		if err != nil {
			return DashboardData{}, err
		}
		var goals models.UserGoals
		if user != nil {
			goals = user.Goals
		}
		return Derive(*day, *week, goals), nil
	})}
}

// Derive computes the dashboard figures. Goals that are not set fall back to
// the defaults.
func Derive(day models.DailySummary, week models.WeekData, goals models.UserGoals) DashboardData {
	if goals.DailySteps <= 0 {
		goals.DailySteps = aggregate.DefaultDailySteps
	}
	if goals.DailyCalories <= 0 {
		goals.DailyCalories = aggregate.DefaultDailyCalories
	}
	if goals.DailyWater <= 0 {
		goals.DailyWater = aggregate.DefaultDailyWater
	}
	if goals.WeeklyWorkouts <= 0 {
		goals.WeeklyWorkouts = aggregate.DefaultWeeklyWorkouts
	}

	return DashboardData{
		Today:            day,
		Week:             week,
		Goals:            goals,
		StepsProgress:    aggregate.Progress(float64(day.Steps), float64(goals.DailySteps)),
		CaloriesProgress: aggregate.Progress(day.CaloriesBurned, goals.DailyCalories),
		WaterProgress:    aggregate.Progress(float64(day.WaterGlasses), float64(goals.DailyWater)),
		WorkoutsProgress: aggregate.Progress(float64(week.Workouts), float64(goals.WeeklyWorkouts)),
	}
}

type CoachingSource interface {
	CoachingAdvice(ctx context.Context, userID string) (models.CoachingAdvice, error)
	QuickTip(ctx context.Context, category string) (models.QuickTip, error)
}

// LocalCoach serves coaching in process, summarizing the week itself.
type LocalCoach struct {
	Summaries coaching.WeekSummarizer
	Service   *coaching.Service
}

func (l LocalCoach) CoachingAdvice(ctx context.Context, userID string) (models.CoachingAdvice, error) {
	week, err := l.Summaries.WeeklySummary(ctx, userID, "")
	if err != nil {
		return models.CoachingAdvice{}, err
	}
	return l.Service.GetCoachingAdvice(ctx, userID, models.CoachingRequest{WeekData: *week}), nil
}

func (l LocalCoach) QuickTip(_ context.Context, category string) (models.QuickTip, error) {
	return l.Service.QuickTip(category)
}

// Coaching binds today's advice for the owner.
type Coaching struct {
	*resource[models.CoachingAdvice]
	src CoachingSource
}

func NewCoaching(src CoachingSource) *Coaching {
	return &Coaching{src: src, resource: newResource(src.CoachingAdvice)}
}

// Tip fetches a quick tip. It leaves the advice untouched.
func (h *Coaching) Tip(ctx context.Context, category string) (models.QuickTip, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, _ string) (models.QuickTip, error) {
		return h.src.QuickTip(ctx, category)
	}, func(advice models.CoachingAdvice, _ models.QuickTip) models.CoachingAdvice {
		return advice
	})
}
