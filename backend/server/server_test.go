package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/getfit/backend/coaching"
	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/server/auth"
	"github.com/jghoshh/getfit/backend/storage/persistent"
)

type testEnv struct {
	srv   *httptest.Server
	store *persistent.MemoryStore
	auth  *auth.Authenticator
}

func newTestEnv(t *testing.T) *testEnv {
	store := persistent.NewMemoryStore()
	repo := repository.New(store)
	a := auth.New(store, repo, "server-test-key")
	s := New(Deps{Repo: repo, Auth: a, Coaching: coaching.NewService(nil, nil, 0)})

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store, auth: a}
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (e *testEnv) call(t *testing.T, token, name string, body interface{}) (int, response) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/rpc/"+name, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) signUp(t *testing.T, email string) models.AuthResult {
	t.Helper()
	status, resp := e.call(t, "", "auth.signUp", map[string]string{
		"email": email, "password": "password123", "displayName": "Tester",
	})
	require.Equal(t, http.StatusOK, status)
	var res models.AuthResult
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	return res
}

func countDocs(t *testing.T, store *persistent.MemoryStore, collection string) int {
	t.Helper()
	var docs []map[string]interface{}
	require.NoError(t, store.Query(context.Background(), persistent.Query{Collection: collection}, &docs))
	return len(docs)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnauthenticatedCallWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	activity := models.ActivityInput{Type: "run", Distance: 5, Duration: 30, Calories: 300, Date: "2024-03-10"}

	status, resp := env.call(t, "", "activity.logActivity", activity)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, auth.CodeUnauthenticated, resp.Error.Code)

	status, _ = env.call(t, "not-a-token", "activity.logActivity", activity)
	assert.Equal(t, http.StatusUnauthorized, status)

	assert.Equal(t, 0, countDocs(t, env.store, models.ActivitiesCollection))
}

func TestExpiredTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.auth.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, _, err := env.auth.CreateTokens("u1", "u1@example.com")
	require.NoError(t, err)

	status, resp := env.call(t, token, "user.get", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, auth.ErrExpiredToken.Message, resp.Error.Message)
}

func TestLogActivityAndValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, "ana@example.com")

	status, resp := env.call(t, user.Token, "activity.logActivity",
		models.ActivityInput{Type: "run", Distance: 5, Duration: 30, Calories: 300, Date: "2024-03-10"})
	require.Equal(t, http.StatusOK, status)
	var created models.Activity
	require.NoError(t, json.Unmarshal(resp.Result, &created))
	assert.Equal(t, user.UserID, created.UserID)

	status, resp = env.call(t, user.Token, "activity.logActivity",
		models.ActivityInput{Type: "fly", Distance: -1, Duration: 30, Date: "2024-03-10"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_input", resp.Error.Code)
	assert.Len(t, resp.Error.Fields, 2)

	assert.Equal(t, 1, countDocs(t, env.store, models.ActivitiesCollection))

	status, resp = env.call(t, user.Token, "activity.list", models.ListOptions{})
	require.Equal(t, http.StatusOK, status)
	var activities []models.Activity
	require.NoError(t, json.Unmarshal(resp.Result, &activities))
	assert.Len(t, activities, 1)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	other := env.signUp(t, "other@example.com")

	status, resp := env.call(t, owner.Token, "meals.create", models.MealInput{
		Type: "lunch", Name: "Salad", Calories: 400, Date: "2024-03-10", Time: "12:30",
	})
	require.Equal(t, http.StatusOK, status)
	var meal models.Meal
	require.NoError(t, json.Unmarshal(resp.Result, &meal))

	status, resp = env.call(t, other.Token, "meals.delete", idInput{ID: meal.ID})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, repository.CodeForbidden, resp.Error.Code)

	status, _ = env.call(t, owner.Token, "meals.delete", idInput{ID: "missing"})
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = env.call(t, "", "auth.signUp", map[string]string{
		"email": "owner@example.com", "password": "password123", "displayName": "Again",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, auth.CodeConflict, resp.Error.Code)

	status, _ = env.call(t, owner.Token, "meals.create", "not an object")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.call(t, owner.Token, "meals.explode", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCoachingAdviceWithoutWeekData(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, "coach@example.com")

	status, resp := env.call(t, user.Token, "ai.getCoachingAdvice", map[string]interface{}{})
	require.Equal(t, http.StatusOK, status)
	var advice models.CoachingAdvice
	require.NoError(t, json.Unmarshal(resp.Result, &advice))
	assert.True(t, advice.Fallback)
	assert.NotEmpty(t, advice.Advice)

	status, resp = env.call(t, user.Token, "ai.getQuickTip", tipInput{Category: "sleeping"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", resp.Error.Code)
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", listenAddr("http://localhost:8080"))
	assert.Equal(t, ":8080", listenAddr(":8080"))
}
