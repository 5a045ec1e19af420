package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/jghoshh/getfit/backend/coaching"
	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/server"
	"github.com/jghoshh/getfit/backend/server/auth"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/frontend/hooks"
)

var (
	_ hooks.UserSource      = (*Client)(nil)
	_ hooks.ActivitySource  = (*Client)(nil)
	_ hooks.WorkoutSource   = (*Client)(nil)
	_ hooks.MealSource      = (*Client)(nil)
	_ hooks.WaterSource     = (*Client)(nil)
	_ hooks.HealthSource    = (*Client)(nil)
	_ hooks.ChallengeSource = (*Client)(nil)
	_ hooks.GoalSource      = (*Client)(nil)
	_ hooks.SocialSource    = (*Client)(nil)
	_ hooks.DashboardSource = (*Client)(nil)
	_ hooks.CoachingSource  = (*Client)(nil)
)

type testBackend struct {
	url       string
	refreshes int32
}

func newTestBackend(t *testing.T) *testBackend {
	keyring.MockInit()

	store := persistent.NewMemoryStore()
	repo := repository.New(store)
	srv := server.New(server.Deps{
		Repo:     repo,
		Auth:     auth.New(store, repo, "client-test-key"),
		Coaching: coaching.NewService(nil, nil, 0),
	})
	router := srv.Router()

	b := &testBackend{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rpc/auth.refresh" {
			atomic.AddInt32(&b.refreshes, 1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	b.url = ts.URL
	return b
}

func TestSignUpSignOutSignIn(t *testing.T) {
	b := newTestBackend(t)
	c := New(b.url)
	ctx := context.Background()

	res, err := c.SignUp(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)

	id, err := c.CurrentUserID()
	require.NoError(t, err)
	assert.Equal(t, res.UserID, id)

	_, err = c.SignUp(ctx, "bo@example.com", "password123", "Bo")
	assert.ErrorIs(t, err, ErrAlreadySignedIn)

	require.NoError(t, c.SignOut())
	assert.ErrorIs(t, c.SignOut(), ErrNotSignedIn)

	_, err = c.ListActivities(ctx, "", models.ListOptions{})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = c.SignIn(ctx, "ana@example.com", "wrongpass1")
	var serverErr *Error
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusUnauthorized, serverErr.Status)

	_, err = c.SignIn(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
}

func TestEntityCalls(t *testing.T) {
	b := newTestBackend(t)
	c := New(b.url)
	ctx := context.Background()
	_, err := c.SignUp(ctx, "cy@example.com", "password123", "Cy")
	require.NoError(t, err)

	meal, err := c.CreateMeal(ctx, "", models.MealInput{Type: "dinner", Name: "Rice", Calories: 600, Date: "2024-03-10", Time: "19:00"})
	require.NoError(t, err)
	meals, err := c.ListMeals(ctx, "", models.ListOptions{Date: "2024-03-10"})
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, meal.ID, meals[0].ID)

	water, err := c.GetWaterIntake(ctx, "", "2024-03-10")
	require.NoError(t, err)
	assert.Nil(t, water)

	_, err = c.CreateMeal(ctx, "", models.MealInput{Type: "brunch", Name: "Eggs", Calories: 300, Date: "2024-03-10", Time: "11:00"})
	var serverErr *Error
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.Status)
	assert.Contains(t, serverErr.UserMessage(), "type")

	require.NoError(t, c.DeleteMeal(ctx, "", meal.ID))
	meals, err = c.ListMeals(ctx, "", models.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	b := newTestBackend(t)
	c := New(b.url)
	ctx := context.Background()
	_, err := c.SignUp(ctx, "di@example.com", "password123", "Di")
	require.NoError(t, err)

	c.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = c.GetUser(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.refreshes))
}

func TestRejectedRefreshClearsSession(t *testing.T) {
	b := newTestBackend(t)
	c := New(b.url)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "u1", "typ": "access", "exp": time.Now().Add(-time.Hour).Unix(),
	})
	token, err := expired.SignedString([]byte("whatever"))
	require.NoError(t, err)
	require.NoError(t, keyring.Set(KeyringService, DefaultKeyringKey, token))
	require.NoError(t, keyring.Set(KeyringService, DefaultRefreshKeyringKey, "garbage"))

	_, err = c.GetUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionExpired)

	id, err := c.CurrentUserID()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestWatchUserPolls(t *testing.T) {
	b := newTestBackend(t)
	c := New(b.url).WithPollInterval(10 * time.Millisecond)
	ctx := context.Background()
	res, err := c.SignUp(ctx, "ed@example.com", "password123", "Ed")
	require.NoError(t, err)

	var mu sync.Mutex
	var names []string
	stop, err := c.WatchUser(ctx, res.UserID, func(u *models.User) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, u.DisplayName)
	}, func(error) {})
	require.NoError(t, err)
	defer stop()

	name := "Eddie"
	_, err = c.UpdateUser(ctx, "", models.UserUpdate{DisplayName: &name})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) == 2 && names[1] == "Eddie"
	}, time.Second, 10*time.Millisecond)
}

func TestHooksOverClient(t *testing.T) {
	b := newTestBackend(t)
	c := New(b.url)
	ctx := context.Background()
	res, err := c.SignUp(ctx, "fi@example.com", "password123", "Fi")
	require.NoError(t, err)

	h := hooks.NewWorkouts(c)
	require.NoError(t, h.SetOwner(ctx, res.UserID))
	_, err = h.Add(ctx, models.WorkoutInput{Title: "Legs", Category: "strength", Difficulty: "Beginner", Duration: 40, Calories: 250})
	require.NoError(t, err)

	state := h.Snapshot()
	assert.Empty(t, state.Error)
	require.Len(t, state.Data, 1)
	assert.Equal(t, "Legs", state.Data[0].Title)
}
