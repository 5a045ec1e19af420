package models

// DailySummary aggregates one user's records for a single calendar day.
type DailySummary struct {
	Date             string  `json:"date"`
	Steps            int     `json:"steps"`
	Distance         float64 `json:"distance"`
	ActiveMinutes    int     `json:"activeMinutes"`
	CaloriesBurned   float64 `json:"caloriesBurned"`
	CaloriesConsumed float64 `json:"caloriesConsumed"`
	Activities       int     `json:"activities"`
	Workouts         int     `json:"workouts"`
	WaterGlasses     int     `json:"waterGlasses"`
}

// GoalProgress pairs a goal's current value with its target.
type GoalProgress struct {
	Type     string  `json:"type"`
	Progress float64 `json:"progress"`
	Target   float64 `json:"target"`
}

// WeekData is the seven day window summary fed to the coaching prompt.
type WeekData struct {
	StartDate     string         `json:"startDate"`
	EndDate       string         `json:"endDate"`
	Workouts      int            `json:"workouts"`
	TotalCalories float64        `json:"totalCalories"`
	TotalSteps    int            `json:"totalSteps"`
	AverageSleep  float64        `json:"averageSleep"`
	ActiveDays    int            `json:"activeDays"`
	CurrentStreak int            `json:"currentStreak"`
	LongestStreak int            `json:"longestStreak"`
	Goals         []GoalProgress `json:"goals"`
}

type FriendSummary struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoURL,omitempty"`
	TotalWorkouts int    `json:"totalWorkouts"`
	CurrentStreak int    `json:"currentStreak"`
}

// FriendActivity is one entry of the friends feed.
type FriendActivity struct {
	Workout     Workout `json:"workout"`
	DisplayName string  `json:"displayName"`
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	DisplayName   string  `json:"displayName"`
	TotalWorkouts int     `json:"totalWorkouts"`
	TotalCalories float64 `json:"totalCalories"`
	CurrentStreak int     `json:"currentStreak"`
}

type UserProfile struct {
	Age           int      `json:"age,omitempty"`
	Weight        float64  `json:"weight,omitempty"`
	ActivityLevel string   `json:"activityLevel,omitempty"`
	Goals         []string `json:"goals,omitempty"`
}

type CoachingRequest struct {
	WeekData    WeekData     `json:"weekData"`
	UserProfile *UserProfile `json:"userProfile,omitempty"`
}

type CoachingAdvice struct {
	Advice   string `json:"advice"`
	Cached   bool   `json:"cached"`
	Fallback bool   `json:"fallback,omitempty"`
}

type QuickTip struct {
	Tip      string `json:"tip"`
	Category string `json:"category"`
}

// AuthResult is returned by sign up, sign in and token refresh.
type AuthResult struct {
	UserID       string `json:"userId"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}
