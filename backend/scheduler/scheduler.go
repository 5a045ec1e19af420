// Package scheduler runs the daily coaching job.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/lib/utils"
)

// DefaultSchedule runs the job every day at 06:00 UTC.
const DefaultSchedule = "0 6 * * *"

// maxUsersPerRun caps how many users one run enumerates.
const maxUsersPerRun = 1000

// UserSource lists the users to coach and keeps their stats honest.
type UserSource interface {
	ListNotifiableUsers(ctx context.Context, limit int) ([]models.User, error)
	ReconcileStats(ctx context.Context, userID string) (*models.UserStats, error)
}

// Dispatcher hands a coaching job to whatever runs it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job models.CoachingJob) error
}

// DispatchFunc runs jobs inline.
type DispatchFunc func(ctx context.Context, job models.CoachingJob) error

func (f DispatchFunc) Dispatch(ctx context.Context, job models.CoachingJob) error {
	return f(ctx, job)
}

// Result counts the outcome of one run.
type Result struct {
	Users      int
	Dispatched int
	Failed     int
}

// Daily enumerates opted-in users once a day, reconciles their stats and
// dispatches one coaching job per user.
type Daily struct {
	users      UserSource
	dispatcher Dispatcher
	schedule   string
	now        func() time.Time
	cron       *cron.Cron
}

func NewDaily(users UserSource, dispatcher Dispatcher, schedule string) *Daily {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Daily{
		users:      users,
		dispatcher: dispatcher,
		schedule:   schedule,
		now:        time.Now,
	}
}

// WithClock replaces the time source that dates each run.
func (d *Daily) WithClock(now func() time.Time) *Daily {
	d.now = now
	return d
}

// Start registers the job with a UTC cron scheduler and starts it.
func (d *Daily) Start() error {
	d.cron = cron.New(cron.WithLocation(time.UTC))
	_, err := d.cron.AddFunc(d.schedule, func() {
		res, err := d.RunOnce(context.Background())
		if err != nil {
			log.Printf("daily coaching run failed: %v", err)
			return
		}
		log.Printf("daily coaching run: %d users, %d dispatched, %d failed", res.Users, res.Dispatched, res.Failed)
	})
	if err != nil {
		return fmt.Errorf("invalid coaching schedule %q: %w", d.schedule, err)
	}
	d.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once a running job
// has finished.
func (d *Daily) Stop() context.Context {
	if d.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return d.cron.Stop()
}

// RunOnce performs a single run. Per-user failures are logged and counted;
// only failing to list users is an error.
func (d *Daily) RunOnce(ctx context.Context) (Result, error) {
	users, err := d.users.ListNotifiableUsers(ctx, maxUsersPerRun)
	if err != nil {
		return Result{}, err
	}

	date := utils.DateString(d.now())
	res := Result{Users: len(users)}
	for _, u := range users {
		if _, err := d.users.ReconcileStats(ctx, u.ID); err != nil {
			log.Printf("failed to reconcile stats of %s: %v", u.ID, err)
		}

		job := models.CoachingJob{ID: u.ID + "_" + date, UserID: u.ID, Email: u.Email, Date: date}
		if err := d.dispatcher.Dispatch(ctx, job); err != nil {
			log.Printf("failed to dispatch coaching job for %s: %v", u.ID, err)
			res.Failed++
			continue
		}
		res.Dispatched++
	}
	return res, nil
}
