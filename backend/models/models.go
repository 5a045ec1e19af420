package models

// Collection names used by every document store backend.
const (
	UsersCollection         = "users"
	ActivitiesCollection    = "activities"
	WorkoutsCollection      = "workouts"
	MealsCollection         = "meals"
	WaterIntakeCollection   = "water_intake"
	HealthMetricsCollection = "health_metrics"
	ChallengesCollection    = "challenges"
	GoalsCollection         = "goals"
	CredentialsCollection   = "credentials"
	CoachingCacheCollection = "coaching_cache"
)

type UserGoals struct {
	DailySteps     int     `bson:"dailySteps" json:"dailySteps" firestore:"dailySteps" validate:"gt=0"`
	DailyCalories  float64 `bson:"dailyCalories" json:"dailyCalories" firestore:"dailyCalories" validate:"gt=0"`
	WeeklyWorkouts int     `bson:"weeklyWorkouts" json:"weeklyWorkouts" firestore:"weeklyWorkouts" validate:"gt=0"`
	DailyWater     int     `bson:"dailyWater" json:"dailyWater" firestore:"dailyWater" validate:"between=1 20"`
	TargetWeight   float64 `bson:"targetWeight,omitempty" json:"targetWeight,omitempty" firestore:"targetWeight,omitempty" validate:"gte=0"`
}

type NotificationSettings struct {
	Workouts     bool `bson:"workouts" json:"workouts" firestore:"workouts"`
	Meals        bool `bson:"meals" json:"meals" firestore:"meals"`
	Hydration    bool `bson:"hydration" json:"hydration" firestore:"hydration"`
	Achievements bool `bson:"achievements" json:"achievements" firestore:"achievements"`
	Social       bool `bson:"social" json:"social" firestore:"social"`
}

type UserSettings struct {
	Units         string               `bson:"units" json:"units" firestore:"units" validate:"oneof=metric imperial"`
	Theme         string               `bson:"theme" json:"theme" firestore:"theme" validate:"oneof=light dark auto"`
	Notifications NotificationSettings `bson:"notifications" json:"notifications" firestore:"notifications"`
}

// UserStats holds the denormalized counters kept on the user document.
// Every counter except CurrentStreak only ever grows.
type UserStats struct {
	TotalWorkouts int     `bson:"totalWorkouts" json:"totalWorkouts" firestore:"totalWorkouts"`
	TotalCalories float64 `bson:"totalCalories" json:"totalCalories" firestore:"totalCalories"`
	CurrentStreak int     `bson:"currentStreak" json:"currentStreak" firestore:"currentStreak"`
	LongestStreak int     `bson:"longestStreak" json:"longestStreak" firestore:"longestStreak"`
	TotalDistance float64 `bson:"totalDistance" json:"totalDistance" firestore:"totalDistance"`
}

type User struct {
	ID          string       `bson:"_id" json:"id" firestore:"id"`
	Email       string       `bson:"email" json:"email" firestore:"email"`
	DisplayName string       `bson:"displayName" json:"displayName" firestore:"displayName"`
	PhotoURL    string       `bson:"photoURL,omitempty" json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	CreatedAt   int64        `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	Goals       UserGoals    `bson:"goals" json:"goals" firestore:"goals"`
	Settings    UserSettings `bson:"settings" json:"settings" firestore:"settings"`
	Stats       UserStats    `bson:"stats" json:"stats" firestore:"stats"`
	Friends     []string     `bson:"friends" json:"friends" firestore:"friends"`
}

// Credential stores the password hash apart from the user document so that
// user reads never carry it.
type Credential struct {
	ID           string `bson:"_id" json:"id" firestore:"id"`
	Email        string `bson:"email" json:"email" firestore:"email"`
	PasswordHash string `bson:"passwordHash" json:"passwordHash" firestore:"passwordHash"`
	CreatedAt    int64  `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
}

type Activity struct {
	ID        string  `bson:"_id" json:"id" firestore:"id"`
	UserID    string  `bson:"userId" json:"userId" firestore:"userId"`
	Type      string  `bson:"type" json:"type" firestore:"type"`
	Distance  float64 `bson:"distance" json:"distance" firestore:"distance"`
	Duration  int     `bson:"duration" json:"duration" firestore:"duration"`
	Calories  float64 `bson:"calories" json:"calories" firestore:"calories"`
	Date      string  `bson:"date" json:"date" firestore:"date"`
	CreatedAt int64   `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
}

type Exercise struct {
	Name     string   `bson:"name" json:"name" firestore:"name" validate:"required,max=100"`
	Sets     int      `bson:"sets" json:"sets" firestore:"sets" validate:"gt=0"`
	Reps     *int     `bson:"reps,omitempty" json:"reps,omitempty" firestore:"reps,omitempty" validate:"omitnil,gt=0"`
	Duration *int     `bson:"duration,omitempty" json:"duration,omitempty" firestore:"duration,omitempty" validate:"omitnil,gt=0"`
	WeightKg *float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty" firestore:"weightKg,omitempty" validate:"omitnil,gte=0"`
}

type Workout struct {
	ID          string     `bson:"_id" json:"id" firestore:"id"`
	UserID      string     `bson:"userId" json:"userId" firestore:"userId"`
	Title       string     `bson:"title" json:"title" firestore:"title"`
	Category    string     `bson:"category" json:"category" firestore:"category"`
	Difficulty  string     `bson:"difficulty" json:"difficulty" firestore:"difficulty"`
	Duration    int        `bson:"duration" json:"duration" firestore:"duration"`
	Calories    float64    `bson:"calories" json:"calories" firestore:"calories"`
	Exercises   []Exercise `bson:"exercises" json:"exercises" firestore:"exercises"`
	Notes       string     `bson:"notes,omitempty" json:"notes,omitempty" firestore:"notes,omitempty"`
	CompletedAt int64      `bson:"completedAt" json:"completedAt" firestore:"completedAt"`
}

type Meal struct {
	ID        string   `bson:"_id" json:"id" firestore:"id"`
	UserID    string   `bson:"userId" json:"userId" firestore:"userId"`
	Type      string   `bson:"type" json:"type" firestore:"type"`
	Name      string   `bson:"name" json:"name" firestore:"name"`
	Calories  float64  `bson:"calories" json:"calories" firestore:"calories"`
	Protein   *float64 `bson:"protein,omitempty" json:"protein,omitempty" firestore:"protein,omitempty"`
	Carbs     *float64 `bson:"carbs,omitempty" json:"carbs,omitempty" firestore:"carbs,omitempty"`
	Fats      *float64 `bson:"fats,omitempty" json:"fats,omitempty" firestore:"fats,omitempty"`
	Date      string   `bson:"date" json:"date" firestore:"date"`
	Time      string   `bson:"time" json:"time" firestore:"time"`
	Image     string   `bson:"image,omitempty" json:"image,omitempty" firestore:"image,omitempty"`
	CreatedAt int64    `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
}

// WaterIntake is keyed by WaterIntakeID so that one record exists per user per day.
type WaterIntake struct {
	ID        string `bson:"_id" json:"id" firestore:"id"`
	UserID    string `bson:"userId" json:"userId" firestore:"userId"`
	Date      string `bson:"date" json:"date" firestore:"date"`
	Glasses   int    `bson:"glasses" json:"glasses" firestore:"glasses"`
	UpdatedAt int64  `bson:"updatedAt" json:"updatedAt" firestore:"updatedAt"`
}

// WaterIntakeID derives the document id of a user's water record for a day.
func WaterIntakeID(userID, date string) string {
	return userID + "_" + date
}

// Health metric kinds.
const (
	MetricWeight    = "weight"
	MetricSleep     = "sleep"
	MetricMood      = "mood"
	MetricHeartRate = "heartRate"
)

// HealthMetric carries a numeric Value for weight, sleep and heart rate
// entries and a Mood label for mood entries.
type HealthMetric struct {
	ID        string  `bson:"_id" json:"id" firestore:"id"`
	UserID    string  `bson:"userId" json:"userId" firestore:"userId"`
	Type      string  `bson:"type" json:"type" firestore:"type"`
	Value     float64 `bson:"value,omitempty" json:"value,omitempty" firestore:"value,omitempty"`
	Mood      string  `bson:"mood,omitempty" json:"mood,omitempty" firestore:"mood,omitempty"`
	Unit      string  `bson:"unit,omitempty" json:"unit,omitempty" firestore:"unit,omitempty"`
	Quality   string  `bson:"quality,omitempty" json:"quality,omitempty" firestore:"quality,omitempty"`
	Date      string  `bson:"date" json:"date" firestore:"date"`
	Notes     string  `bson:"notes,omitempty" json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt int64   `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
}

type Challenge struct {
	ID           string   `bson:"_id" json:"id" firestore:"id"`
	Name         string   `bson:"name" json:"name" firestore:"name"`
	Description  string   `bson:"description" json:"description" firestore:"description"`
	Participants []string `bson:"participants" json:"participants" firestore:"participants"`
	DaysLeft     int      `bson:"daysLeft" json:"daysLeft" firestore:"daysLeft"`
	Progress     int      `bson:"progress" json:"progress" firestore:"progress"`
	CreatedBy    string   `bson:"createdBy" json:"createdBy" firestore:"createdBy"`
	CreatedAt    int64    `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
}

// Goal statuses.
const (
	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalPaused    = "paused"
	GoalFailed    = "failed"
)

type Goal struct {
	ID           string  `bson:"_id" json:"id" firestore:"id"`
	UserID       string  `bson:"userId" json:"userId" firestore:"userId"`
	Type         string  `bson:"type" json:"type" firestore:"type"`
	Title        string  `bson:"title" json:"title" firestore:"title"`
	Description  string  `bson:"description,omitempty" json:"description,omitempty" firestore:"description,omitempty"`
	TargetValue  float64 `bson:"targetValue" json:"targetValue" firestore:"targetValue"`
	CurrentValue float64 `bson:"currentValue" json:"currentValue" firestore:"currentValue"`
	Status       string  `bson:"status" json:"status" firestore:"status"`
	StartDate    string  `bson:"startDate" json:"startDate" firestore:"startDate"`
	EndDate      string  `bson:"endDate,omitempty" json:"endDate,omitempty" firestore:"endDate,omitempty"`
	CreatedAt    int64   `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	UpdatedAt    int64   `bson:"updatedAt" json:"updatedAt" firestore:"updatedAt"`
}

// CoachingCacheEntry is one day's generated advice for a user.
type CoachingCacheEntry struct {
	ID        string `bson:"_id" json:"id" firestore:"id"`
	Advice    string `bson:"advice" json:"advice" firestore:"advice"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	ExpiresAt int64  `bson:"expiresAt" json:"expiresAt" firestore:"expiresAt"`
}

// CoachingJob is the message fanned out by the daily coaching run.
type CoachingJob struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Date   string `json:"date"`
}
