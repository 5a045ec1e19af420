package models

// The input types below are what callers hand to the repository. They are
// checked by the validation package, using their validate tags, before
// anything is written. Besides the stock validator rules the tags use date
// (a real YYYY-MM-DD day) and between=a b (a number in [a, b]).

type ActivityInput struct {
	Type     string  `json:"type" validate:"oneof=run walk cycle swim other"`
	Distance float64 `json:"distance" validate:"gte=0"`
	Duration int     `json:"duration" validate:"gt=0"`
	Calories float64 `json:"calories" validate:"gte=0"`
	Date     string  `json:"date" validate:"date"`
}

type WorkoutInput struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Category   string     `json:"category" validate:"required"`
	Difficulty string     `json:"difficulty" validate:"oneof=Beginner Intermediate Advanced"`
	Duration   int        `json:"duration" validate:"gt=0"`
	Calories   float64    `json:"calories" validate:"gte=0"`
	Exercises  []Exercise `json:"exercises,omitempty" validate:"dive"`
	Notes      string     `json:"notes,omitempty" validate:"max=1000"`
}

type MealInput struct {
	Type     string   `json:"type" validate:"oneof=breakfast lunch dinner snack"`
	Name     string   `json:"name" validate:"required,max=200"`
	Calories float64  `json:"calories" validate:"gt=0"`
	Protein  *float64 `json:"protein,omitempty" validate:"omitnil,gte=0"`
	Carbs    *float64 `json:"carbs,omitempty" validate:"omitnil,gte=0"`
	Fats     *float64 `json:"fats,omitempty" validate:"omitnil,gte=0"`
	Date     string   `json:"date" validate:"date"`
	Time     string   `json:"time" validate:"required"`
	Image    string   `json:"image,omitempty" validate:"omitempty,url"`
}

// MealUpdate lists the meal fields that may change after creation. An empty
// Image clears the picture.
type MealUpdate struct {
	Type     *string  `json:"type,omitempty" validate:"omitnil,oneof=breakfast lunch dinner snack"`
	Name     *string  `json:"name,omitempty" validate:"omitnil,min=1,max=200"`
	Calories *float64 `json:"calories,omitempty" validate:"omitnil,gt=0"`
	Protein  *float64 `json:"protein,omitempty" validate:"omitnil,gte=0"`
	Carbs    *float64 `json:"carbs,omitempty" validate:"omitnil,gte=0"`
	Fats     *float64 `json:"fats,omitempty" validate:"omitnil,gte=0"`
	Time     *string  `json:"time,omitempty" validate:"omitnil,min=1"`
	Image    *string  `json:"image,omitempty" validate:"omitnil,url|len=0"`
}

type WaterInput struct {
	Glasses int    `json:"glasses" validate:"between=0 20"`
	Date    string `json:"date" validate:"date"`
}

// HealthMetricInput covers every metric kind. Value is used by weight, sleep
// and heart rate entries, Mood by mood entries. The rules that depend on
// Type are checked at the struct level.
type HealthMetricInput struct {
	Type    string  `json:"type" validate:"oneof=weight sleep mood heartRate"`
	Value   float64 `json:"value,omitempty"`
	Mood    string  `json:"mood,omitempty"`
	Unit    string  `json:"unit,omitempty"`
	Quality string  `json:"quality,omitempty"`
	Date    string  `json:"date" validate:"date"`
	Notes   string  `json:"notes,omitempty" validate:"max=500"`
}

type ChallengeInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=1000"`
	DaysLeft    int    `json:"daysLeft" validate:"gt=0"`
}

type GoalInput struct {
	Type        string  `json:"type" validate:"oneof=Daily Weekly Steps Calories Workouts Weight Custom"`
	Title       string  `json:"title" validate:"required,max=100"`
	Description string  `json:"description,omitempty" validate:"max=500"`
	TargetValue float64 `json:"targetValue" validate:"gte=0"`
	StartDate   string  `json:"startDate" validate:"date"`
	EndDate     string  `json:"endDate,omitempty" validate:"omitempty,date"`
}

type GoalUpdate struct {
	Title        *string  `json:"title,omitempty" validate:"omitnil,min=1,max=100"`
	Description  *string  `json:"description,omitempty" validate:"omitnil,max=500"`
	TargetValue  *float64 `json:"targetValue,omitempty" validate:"omitnil,gte=0"`
	CurrentValue *float64 `json:"currentValue,omitempty" validate:"omitnil,gte=0"`
	Status       *string  `json:"status,omitempty" validate:"omitnil,oneof=active completed paused failed"`
	EndDate      *string  `json:"endDate,omitempty" validate:"omitnil,date|len=0"`
}

// UserUpdate lists the profile fields a user may change on their own document.
// Goals and Settings are checked by the rules on UserGoals and UserSettings.
type UserUpdate struct {
	DisplayName *string       `json:"displayName,omitempty" validate:"omitnil,min=1,max=100"`
	PhotoURL    *string       `json:"photoURL,omitempty" validate:"omitnil,url|len=0"`
	Goals       *UserGoals    `json:"goals,omitempty"`
	Settings    *UserSettings `json:"settings,omitempty"`
}

// ListOptions narrows list queries. Date selects one day; StartDate and
// EndDate select an inclusive range. A zero Limit means the default page.
type ListOptions struct {
	Date      string `json:"date,omitempty" validate:"omitempty,date"`
	StartDate string `json:"startDate,omitempty" validate:"omitempty,date"`
	EndDate   string `json:"endDate,omitempty" validate:"omitempty,date"`
	Type      string `json:"type,omitempty"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
}
