package hooks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/storage/persistent"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeActivities struct {
	mu        sync.Mutex
	lists     int
	items     []models.Activity
	createErr error
	started   chan struct{}
	release   chan struct{}
}

func (f *fakeActivities) ListActivities(ctx context.Context, owner string, _ models.ListOptions) ([]models.Activity, error) {
	f.mu.Lock()
	f.lists++
	items := append([]models.Activity(nil), f.items...)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return items, nil
}

func (f *fakeActivities) CreateActivity(ctx context.Context, owner string, in models.ActivityInput) (*models.Activity, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Activity{ID: "new", UserID: owner, Type: in.Type, Date: in.Date}, nil
}

func (f *fakeActivities) DeleteActivity(ctx context.Context, owner, id string) error {
	return nil
}

func (f *fakeActivities) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func newRepo() *repository.Repository {
	return repository.New(persistent.NewMemoryStore()).WithClock(func() time.Time { return fixedNow })
}

func TestFetchesOncePerOwner(t *testing.T) {
	src := &fakeActivities{items: []models.Activity{{ID: "a1"}}}
	h := NewActivities(src)
	ctx := context.Background()

	assert.True(t, h.Snapshot().Loading)

	require.NoError(t, h.SetOwner(ctx, ""))
	assert.Equal(t, 0, src.listCount())
	assert.False(t, h.Snapshot().Loading)

	require.NoError(t, h.SetOwner(ctx, "u1"))
	require.NoError(t, h.SetOwner(ctx, "u1"))
	assert.Equal(t, 1, src.listCount())
	assert.Len(t, h.Snapshot().Data, 1)

	require.NoError(t, h.Refresh(ctx))
	assert.Equal(t, 2, src.listCount())
}

func TestLoadingUntilFirstFetchSettles(t *testing.T) {
	src := &fakeActivities{started: make(chan struct{}), release: make(chan struct{})}
	h := NewActivities(src)

	done := make(chan error)
	go func() { done <- h.SetOwner(context.Background(), "u1") }()

	<-src.started
	assert.True(t, h.Snapshot().Loading)
	close(src.release)
	require.NoError(t, <-done)
	assert.False(t, h.Snapshot().Loading)

	go func() { done <- h.Refresh(context.Background()) }()
	<-src.started
	assert.False(t, h.Snapshot().Loading)
	require.NoError(t, <-done)
}

func TestCloseDropsLateResults(t *testing.T) {
	src := &fakeActivities{items: []models.Activity{{ID: "a1"}}, started: make(chan struct{}), release: make(chan struct{})}
	h := NewActivities(src)

	done := make(chan error)
	go func() { done <- h.SetOwner(context.Background(), "u1") }()
	<-src.started
	h.Close()
	close(src.release)
	require.NoError(t, <-done)

	assert.Empty(t, h.Snapshot().Data)
	assert.NoError(t, h.Refresh(context.Background()))
	assert.Equal(t, 1, src.listCount())
}

func TestMutationAppliesOnlyAfterAck(t *testing.T) {
	src := &fakeActivities{items: []models.Activity{{ID: "a1"}}}
	h := NewActivities(src)
	ctx := context.Background()
	require.NoError(t, h.SetOwner(ctx, "u1"))

	src.createErr = errors.New("connection reset")
	_, err := h.Add(ctx, models.ActivityInput{Type: "run", Date: "2024-03-10"})
	require.Error(t, err)
	state := h.Snapshot()
	assert.Equal(t, []models.Activity{{ID: "a1"}}, state.Data)
	assert.Equal(t, genericMessage, state.Error)

	src.createErr = nil
	created, err := h.Add(ctx, models.ActivityInput{Type: "run", Date: "2024-03-10"})
	require.NoError(t, err)
	state = h.Snapshot()
	require.Len(t, state.Data, 2)
	assert.Equal(t, created.ID, state.Data[0].ID)
	assert.Empty(t, state.Error)

	require.NoError(t, h.Delete(ctx, "a1"))
	assert.Len(t, h.Snapshot().Data, 1)
}

func TestAcknowledgedWriteSurvivesStaleRefetch(t *testing.T) {
	src := &fakeActivities{items: []models.Activity{{ID: "a1"}}}
	h := NewActivities(src)
	ctx := context.Background()
	require.NoError(t, h.SetOwner(ctx, "u1"))

	src.started = make(chan struct{})
	src.release = make(chan struct{})
	done := make(chan error)
	go func() { done <- h.Refresh(ctx) }()
	<-src.started

	created, err := h.Add(ctx, models.ActivityInput{Type: "run", Date: "2024-03-10"})
	require.NoError(t, err)
	require.Len(t, h.Snapshot().Data, 2)

	close(src.release)
	require.NoError(t, <-done)

	data := h.Snapshot().Data
	require.Len(t, data, 2)
	assert.Equal(t, created.ID, data[0].ID)
	assert.Equal(t, "a1", data[1].ID)
}

func TestReplayedWriteIsNotDuplicated(t *testing.T) {
	src := &fakeActivities{items: []models.Activity{{ID: "a1"}}}
	h := NewActivities(src)
	ctx := context.Background()
	require.NoError(t, h.SetOwner(ctx, "u1"))

	// The refetch already sees the created activity.
	src.items = []models.Activity{{ID: "new"}, {ID: "a1"}}
	src.started = make(chan struct{})
	src.release = make(chan struct{})
	done := make(chan error)
	go func() { done <- h.Refresh(ctx) }()
	<-src.started

	_, err := h.Add(ctx, models.ActivityInput{Type: "run", Date: "2024-03-10"})
	require.NoError(t, err)
	close(src.release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"new", "a1"}, ids(h.Snapshot().Data))
}

func ids(list []models.Activity) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestMutationWithoutOwner(t *testing.T) {
	h := NewActivities(&fakeActivities{})
	_, err := h.Add(context.Background(), models.ActivityInput{})
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestMealValidationErrorIsReadable(t *testing.T) {
	repo := newRepo()
	h := NewMeals(repo, "2024-03-10")
	ctx := context.Background()
	require.NoError(t, h.SetOwner(ctx, "u1"))

	_, err := h.Add(ctx, models.MealInput{Type: "lunch", Name: "Soup", Calories: -5, Date: "2024-03-10", Time: "12:00"})
	require.Error(t, err)
	state := h.Snapshot()
	assert.Empty(t, state.Data)
	assert.Contains(t, state.Error, "calories")

	meal, err := h.Add(ctx, models.MealInput{Type: "lunch", Name: "Soup", Calories: 250, Date: "2024-03-10", Time: "12:00"})
	require.NoError(t, err)
	state = h.Snapshot()
	assert.Empty(t, state.Error)
	require.Len(t, state.Data, 1)

	name := "Tomato soup"
	_, err = h.Update(ctx, meal.ID, models.MealUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Tomato soup", h.Snapshot().Data[0].Name)
}

func TestGoalsDropFinishedGoals(t *testing.T) {
	repo := newRepo()
	h := NewGoals(repo)
	ctx := context.Background()
	require.NoError(t, h.SetOwner(ctx, "u1"))

	goal, err := h.Create(ctx, models.GoalInput{Type: "Workouts", Title: "Train", TargetValue: 2, StartDate: "2024-03-01"})
	require.NoError(t, err)

	_, err = h.AddProgress(ctx, goal.ID, 1)
	require.NoError(t, err)
	require.Len(t, h.Snapshot().Data, 1)
	assert.Equal(t, float64(1), h.Snapshot().Data[0].CurrentValue)

	_, err = h.AddProgress(ctx, goal.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, h.Snapshot().Data)
}

func TestUserFollowsSubscription(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	_, err := repo.CreateUser(ctx, "u1", "ana@example.com", "Ana")
	require.NoError(t, err)

	h := NewUser(repo)
	defer h.Close()
	require.NoError(t, h.SetOwner(ctx, "u1"))
	state := h.Snapshot()
	assert.False(t, state.Loading)
	require.NotNil(t, state.Data)
	assert.Equal(t, "Ana", state.Data.DisplayName)

	name := "Ana B"
	_, err = repo.UpdateUser(ctx, "u1", models.UserUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", h.Snapshot().Data.DisplayName)

	require.NoError(t, h.SetOwner(ctx, ""))
	assert.Nil(t, h.Snapshot().Data)
}

func TestDeriveSubstitutesDefaultGoals(t *testing.T) {
	day := models.DailySummary{Steps: 5000, CaloriesBurned: 3000, WaterGlasses: 2}
	week := models.WeekData{Workouts: 4}

	d := Derive(day, week, models.UserGoals{})
	assert.Equal(t, 50, d.StepsProgress)
	assert.Equal(t, 100, d.CaloriesProgress)
	assert.Equal(t, 25, d.WaterProgress)
	assert.Equal(t, 80, d.WorkoutsProgress)
}

func TestDashboardFromRepository(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	_, err := repo.CreateUser(ctx, "u1", "ana@example.com", "Ana")
	require.NoError(t, err)
	_, err = repo.CreateActivity(ctx, "u1", models.ActivityInput{Type: "walk", Distance: 2, Duration: 20, Calories: 100, Date: "2024-03-10"})
	require.NoError(t, err)

	h := NewDashboard(repo, func() time.Time { return fixedNow })
	require.NoError(t, h.SetOwner(ctx, "u1"))
	state := h.Snapshot()
	assert.Empty(t, state.Error)
	assert.Equal(t, 2600, state.Data.Today.Steps)
	assert.Equal(t, 26, state.Data.StepsProgress)
	assert.Equal(t, 1, state.Data.Week.CurrentStreak)
}
