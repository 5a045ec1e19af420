package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jghoshh/getfit/backend/models"
)

// The enums below feed the CLI menus. The oneof rules on the models input
// structs list the same values.
var (
	ActivityTypes  = []string{"run", "walk", "cycle", "swim", "other"}
	Difficulties   = []string{"Beginner", "Intermediate", "Advanced"}
	MealTypes      = []string{"breakfast", "lunch", "dinner", "snack"}
	MetricTypes    = []string{models.MetricWeight, models.MetricSleep, models.MetricMood, models.MetricHeartRate}
	WeightUnits    = []string{"kg", "lbs"}
	SleepQualities = []string{"Excellent", "Good", "Fair", "Poor"}
	Moods          = []string{"Great", "Good", "Okay", "Down", "Stressed"}
	GoalTypes      = []string{"Daily", "Weekly", "Steps", "Calories", "Workouts", "Weight", "Custom"}
	GoalStatuses   = []string{models.GoalActive, models.GoalCompleted, models.GoalPaused, models.GoalFailed}
	Units          = []string{"metric", "imperial"}
	Themes         = []string{"light", "dark", "auto"}
	TipCategories  = []string{"workout", "nutrition", "recovery", "motivation"}
)

// Activity checks a new activity entry and returns its normalized form.
func Activity(in models.ActivityInput) (models.ActivityInput, error) {
	in.Type = strings.TrimSpace(in.Type)
	in.Date = strings.TrimSpace(in.Date)
	return in, check("activity", in)
}

func Workout(in models.WorkoutInput) (models.WorkoutInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Notes = strings.TrimSpace(in.Notes)

	exercises := make([]models.Exercise, 0, len(in.Exercises))
	for _, ex := range in.Exercises {
		ex.Name = strings.TrimSpace(ex.Name)
		exercises = append(exercises, ex)
	}
	in.Exercises = exercises
	return in, check("workout", in)
}

// Meal checks a new meal. Calories must be strictly positive.
func Meal(in models.MealInput) (models.MealInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Time = strings.TrimSpace(in.Time)
	in.Image = strings.TrimSpace(in.Image)
	return in, check("meal", in)
}

// MealPatch checks the fields present in a meal update.
func MealPatch(in models.MealUpdate) (models.MealUpdate, error) {
	in.Name = trimmed(in.Name)
	in.Time = trimmed(in.Time)
	return in, check("meal", in)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func Water(in models.WaterInput) (models.WaterInput, error) {
	return in, check("water intake", in)
}

// HealthMetric checks an entry against the rules of its metric kind.
// Weight entries default to kilograms.
func HealthMetric(in models.HealthMetricInput) (models.HealthMetricInput, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Type == models.MetricWeight && in.Unit == "" {
		in.Unit = "kg"
	}
	return in, check("health metric", in)
}

// healthMetricRules applies the rules that depend on the metric kind. An
// unknown kind is already reported by the oneof rule on Type.
func healthMetricRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(models.HealthMetricInput)
	switch in.Type {
	case models.MetricWeight:
		if in.Value <= 0 {
			sl.ReportError(in.Value, "value", "Value", "gt", "0")
		}
		if !contains(WeightUnits, in.Unit) {
			sl.ReportError(in.Unit, "unit", "Unit", "oneof", strings.Join(WeightUnits, " "))
		}
	case models.MetricSleep:
		if in.Value < 0 || in.Value > 24 {
			sl.ReportError(in.Value, "value", "Value", "between", "0 24")
		}
		if in.Quality != "" && !contains(SleepQualities, in.Quality) {
			sl.ReportError(in.Quality, "quality", "Quality", "oneof", strings.Join(SleepQualities, " "))
		}
	case models.MetricMood:
		if !contains(Moods, in.Mood) {
			sl.ReportError(in.Mood, "mood", "Mood", "oneof", strings.Join(Moods, " "))
		}
	case models.MetricHeartRate:
		if in.Value < 20 || in.Value > 250 {
			sl.ReportError(in.Value, "value", "Value", "between", "20 250")
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func Challenge(in models.ChallengeInput) (models.ChallengeInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in, check("challenge", in)
}

// ChallengeProgress checks a progress percentage.
func ChallengeProgress(progress int) error {
	return check("challenge", struct {
		Progress int `json:"progress" validate:"between=0 100"`
	}{progress})
}

func Goal(in models.GoalInput) (models.GoalInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in, check("goal", in)
}

func GoalPatch(in models.GoalUpdate) (models.GoalUpdate, error) {
	in.Title = trimmed(in.Title)
	return in, check("goal", in)
}

// GoalIncrement checks the amount added to a goal's progress.
func GoalIncrement(amount float64) error {
	return check("goal progress", struct {
		Amount float64 `json:"amount" validate:"gt=0"`
	}{amount})
}

// NewUser checks the profile written at sign up.
func NewUser(email, displayName string) error {
	return check("user", struct {
		Email       string `json:"email" validate:"email"`
		DisplayName string `json:"displayName" validate:"required,max=100"`
	}{email, strings.TrimSpace(displayName)})
}

func UserPatch(in models.UserUpdate) (models.UserUpdate, error) {
	in.DisplayName = trimmed(in.DisplayName)
	return in, check("user", in)
}

// TipCategory checks a quick tip category.
func TipCategory(category string) error {
	return check("tip", struct {
		Category string `json:"category" validate:"oneof=workout nutrition recovery motivation"`
	}{category})
}

// ListOptions checks the date filters of a list query.
func ListOptions(in models.ListOptions) error {
	return check("list options", in)
}
