package coaching

import (
	"context"
	"fmt"

	"github.com/jghoshh/getfit/backend/models"
)

// WeekSummarizer loads the seven day summary that feeds a coaching prompt.
type WeekSummarizer interface {
	WeeklySummary(ctx context.Context, ownerID, end string) (*models.WeekData, error)
}

// Notifier delivers advice to the user named by job.
type Notifier func(ctx context.Context, job models.CoachingJob, advice models.CoachingAdvice) error

// DailyCoach runs one coaching job of the daily fan out: it summarizes the
// user's week, produces advice (which caches it) and notifies the user.
type DailyCoach struct {
	Summaries WeekSummarizer
	Service   *Service
	Notify    Notifier
}

func (d *DailyCoach) Handle(ctx context.Context, job models.CoachingJob) error {
	week, err := d.Summaries.WeeklySummary(ctx, job.UserID, job.Date)
	if err != nil {
		return fmt.Errorf("failed to summarize week of %s: %w", job.UserID, err)
	}

	advice := d.Service.GetCoachingAdvice(ctx, job.UserID, models.CoachingRequest{WeekData: *week})
	if d.Notify == nil || job.Email == "" {
		return nil
	}
	if err := d.Notify(ctx, job, advice); err != nil {
		return fmt.Errorf("failed to notify %s: %w", job.UserID, err)
	}
	return nil
}
