// Package coaching produces daily fitness advice. Advice comes from a text
// generator when it answers in time and from fixed rules otherwise, and is
// cached per user per day.
package coaching

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/validation"
	"github.com/jghoshh/getfit/lib/utils"
)

// DefaultTimeout bounds a single generator call.
const DefaultTimeout = 15 * time.Second

var tips = map[string][]string{
	"workout": {
		"Focus on compound movements like squats and deadlifts for maximum efficiency.",
		"Progressive overload is key - gradually increase weight or reps each week.",
		"Don't skip warm-ups! 5-10 minutes can prevent injuries.",
	},
	"nutrition": {
		"Aim for 1.6-2.2g of protein per kg of body weight for muscle growth.",
		"Hydration matters! Drink water before, during, and after workouts.",
		"Pre-workout carbs fuel performance; post-workout protein aids recovery.",
	},
	"recovery": {
		"Sleep is when muscles grow. Aim for 7-9 hours nightly.",
		"Active recovery (light walks, yoga) can speed up muscle repair.",
		"Don't train the same muscle groups on consecutive days.",
	},
	"motivation": {
		"Small consistent actions beat perfect plans. Show up today!",
		"Track your progress weekly - seeing improvement is motivating!",
		"Find a workout buddy or join online communities for accountability.",
	},
}

// Service answers coaching requests.
type Service struct {
	cache     AdviceCache
	generator Generator
	timeout   time.Duration
	now       func() time.Time
	pick      func(n int) int
}

// NewService creates a Service. A nil generator always yields the rule based
// advice; a non-positive timeout uses DefaultTimeout.
func NewService(cache AdviceCache, generator Generator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		cache:     cache,
		generator: generator,
		timeout:   timeout,
		now:       time.Now,
		pick:      rand.Intn,
	}
}

// WithClock replaces the time source used to date cache entries.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetCoachingAdvice returns today's advice for userID. It never fails: when
// the generator errors or times out the rule based advice is returned with
// Fallback set, and it is not cached.
func (s *Service) GetCoachingAdvice(ctx context.Context, userID string, req models.CoachingRequest) models.CoachingAdvice {
	date := utils.DateString(s.now())
	if s.cache != nil {
		if advice, ok := s.cache.GetCachedAdvice(ctx, userID, date); ok {
			return models.CoachingAdvice{Advice: advice, Cached: true}
		}
	}

	if s.generator == nil {
		return models.CoachingAdvice{Advice: FallbackAdvice(req.WeekData), Fallback: true}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	advice, err := s.generator.Generate(genCtx, BuildPrompt(req))
	if err != nil {
		log.Printf("coaching generation failed for %s: %v", userID, err)
		return models.CoachingAdvice{Advice: FallbackAdvice(req.WeekData), Fallback: true}
	}

	if s.cache != nil {
		if err := s.cache.CacheAdvice(ctx, userID, date, advice); err != nil {
			log.Printf("%v", err)
		}
	}
	return models.CoachingAdvice{Advice: advice}
}

// QuickTip returns a random tip from category.
func (s *Service) QuickTip(category string) (models.QuickTip, error) {
	if err := validation.TipCategory(category); err != nil {
		return models.QuickTip{}, err
	}
	options := tips[category]
	return models.QuickTip{Tip: options[s.pick(len(options))], Category: category}, nil
}

// BuildPrompt renders the weekly data and optional profile as the user
// message of the completion.
func BuildPrompt(req models.CoachingRequest) string {
	week := req.WeekData
	var b strings.Builder

	b.WriteString("User's Weekly Summary:\n")
	fmt.Fprintf(&b, "- Workouts completed: %d\n", week.Workouts)
	fmt.Fprintf(&b, "- Total calories burned: %s\n", formatNumber(week.TotalCalories))
	fmt.Fprintf(&b, "- Total steps: %d\n", week.TotalSteps)
	fmt.Fprintf(&b, "- Average sleep: %s hours\n", formatNumber(week.AverageSleep))

	b.WriteString("\nGoals Progress:\n")
	for _, g := range week.Goals {
		pct := 0.0
		if g.Target > 0 {
			pct = g.Progress / g.Target * 100
		}
		fmt.Fprintf(&b, "- %s: %.1f%% complete\n", g.Type, pct)
	}

	if p := req.UserProfile; p != nil {
		b.WriteString("\nUser Profile:\n")
		fmt.Fprintf(&b, "- Age: %s\n", orNA(p.Age > 0, strconv.Itoa(p.Age)))
		fmt.Fprintf(&b, "- Weight: %s kg\n", orNA(p.Weight > 0, formatNumber(p.Weight)))
		fmt.Fprintf(&b, "- Activity Level: %s\n", orNA(p.ActivityLevel != "", p.ActivityLevel))
		goals := "General fitness"
		if len(p.Goals) > 0 {
			goals = strings.Join(p.Goals, ", ")
		}
		fmt.Fprintf(&b, "- Goals: %s\n", goals)
	}

	b.WriteString("\nBased on this data, provide personalized coaching advice including:\n")
	b.WriteString("1. Recognition of achievements\n")
	b.WriteString("2. Specific recommendations for improvement\n")
	b.WriteString("3. One actionable tip for next week")
	return b.String()
}

// FallbackAdvice is the rule based advice used when no generated text is
// available.
func FallbackAdvice(week models.WeekData) string {
	switch {
	case week.Workouts == 0:
		return "Let's get started! Even a 20-minute workout can make a difference. " +
			"Choose something you enjoy and commit to 3 sessions this week."
	case week.Workouts < 3:
		plural := ""
		if week.Workouts > 1 {
			plural = "s"
		}
		return fmt.Sprintf("You completed %d workout%s this week! To see better results, aim for 3-4 sessions weekly. "+
			"You're building a great foundation!", week.Workouts, plural)
	case week.TotalSteps < 50000:
		return fmt.Sprintf("Excellent workout consistency with %d sessions! Consider adding more daily movement - "+
			"aim for 10,000 steps daily to boost overall health.", week.Workouts)
	}
	return fmt.Sprintf("Outstanding work! %d workouts, %s calories burned, and %s steps. You're on fire! "+
		"Keep this momentum while ensuring adequate rest and recovery.",
		week.Workouts, formatNumber(week.TotalCalories), formatNumber(float64(week.TotalSteps)))
}

func orNA(ok bool, v string) string {
	if !ok {
		return "N/A"
	}
	return v
}

// formatNumber prints v with thousands separators and at most three decimals.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString("." + frac)
	}
	return sign + b.String()
}
