package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/storage/persistent"
)

var runDay = time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)

func seedUsers(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()
	repo := repository.New(persistent.NewMemoryStore()).WithClock(func() time.Time { return runDay })

	for _, id := range []string{"ana", "bo", "cy"} {
		_, err := repo.CreateUser(ctx, id, id+"@example.com", id)
		require.NoError(t, err)
	}
	settings := repository.NewUserProfile("cy", "cy@example.com", "cy", 0).Settings
	settings.Notifications.Workouts = false
	_, err := repo.UpdateUser(ctx, "cy", models.UserUpdate{Settings: &settings})
	require.NoError(t, err)
	return repo
}

func TestRunOnceDispatchesOptedInUsers(t *testing.T) {
	repo := seedUsers(t)
	var jobs []models.CoachingJob
	daily := NewDaily(repo, DispatchFunc(func(ctx context.Context, job models.CoachingJob) error {
		jobs = append(jobs, job)
		return nil
	}), "").WithClock(func() time.Time { return runDay })

	res, err := daily.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Dispatched: 2}, res)

	ids := map[string]models.CoachingJob{}
	for _, j := range jobs {
		ids[j.UserID] = j
	}
	require.Contains(t, ids, "ana")
	require.Contains(t, ids, "bo")
	assert.Equal(t, "ana_2024-03-10", ids["ana"].ID)
	assert.Equal(t, "ana@example.com", ids["ana"].Email)
	assert.Equal(t, "2024-03-10", ids["bo"].Date)
}

func TestRunOnceCountsFailures(t *testing.T) {
	repo := seedUsers(t)
	daily := NewDaily(repo, DispatchFunc(func(ctx context.Context, job models.CoachingJob) error {
		if job.UserID == "bo" {
			return errors.New("broker unavailable")
		}
		return nil
	}), "")

	res, err := daily.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dispatched)
	assert.Equal(t, 1, res.Failed)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	daily := NewDaily(seedUsers(t), DispatchFunc(nil), "every morning")
	assert.Error(t, daily.Start())

	ok := NewDaily(seedUsers(t), DispatchFunc(nil), DefaultSchedule)
	require.NoError(t, ok.Start())
	<-ok.Stop().Done()
}
