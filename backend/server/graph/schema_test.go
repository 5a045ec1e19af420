package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/gqlgen/client"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/jghoshh/getfit/backend/models"
)

type call struct {
	procedure string
	args      string
}

type fakeResolver struct {
	mu      sync.Mutex
	calls   []call
	results map[string]interface{}
	errs    map[string]error
}

func (f *fakeResolver) Call(ctx context.Context, procedure string, args []byte) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{procedure: procedure, args: string(args)})
	if err := f.errs[procedure]; err != nil {
		return nil, err
	}
	return f.results[procedure], nil
}

func newClient(f *fakeResolver) *client.Client {
	presenter := func(procedure string, err error) *gqlerror.Error {
		return &gqlerror.Error{Message: err.Error(), Extensions: map[string]interface{}{"code": "failed", "procedure": procedure}}
	}
	srv := handler.NewDefaultServer(NewExecutableSchema(Config{Resolvers: f, Errors: presenter}))
	return client.New(srv)
}

func TestRootFieldsNameProcedures(t *testing.T) {
	for _, root := range []string{"Query", "Mutation"} {
		for _, f := range parsedSchema.Types[root].Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			assert.NotEmpty(t, procedureOf(f), "%s.%s", root, f.Name)
		}
	}
	assert.Contains(t, Procedures(), "activity.logActivity")
	assert.Contains(t, Procedures(), "user.get")
}

func TestArgumentsBecomeProcedureInput(t *testing.T) {
	f := &fakeResolver{results: map[string]interface{}{"activity.list": []models.Activity{}}}
	c := newClient(f)

	var resp struct {
		Activities []models.Activity `json:"activities"`
	}
	c.MustPost(`query { activities(startDate: "2024-03-01", limit: 2) { id } }`, &resp)

	require.Len(t, f.calls, 1)
	assert.Equal(t, "activity.list", f.calls[0].procedure)
	assert.JSONEq(t, `{"startDate":"2024-03-01","limit":2}`, f.calls[0].args)
	assert.Empty(t, resp.Activities)
}

func TestVariablesFillInputObjects(t *testing.T) {
	f := &fakeResolver{results: map[string]interface{}{"goals.updateGoal": &models.Goal{ID: "g1", Status: "paused"}}}
	c := newClient(f)

	var resp struct {
		UpdateGoal struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"updateGoal"`
	}
	c.MustPost(`mutation($id: ID!, $patch: GoalUpdateInput!) { updateGoal(id: $id, patch: $patch) { id status } }`, &resp,
		client.Var("id", "g1"), client.Var("patch", map[string]interface{}{"status": "paused"}))

	require.Len(t, f.calls, 1)
	assert.JSONEq(t, `{"id":"g1","patch":{"status":"paused"}}`, f.calls[0].args)
	assert.Equal(t, "g1", resp.UpdateGoal.ID)
	assert.Equal(t, "paused", resp.UpdateGoal.Status)
}

func TestResultIsProjectedOntoSelection(t *testing.T) {
	reps := 10
	f := &fakeResolver{results: map[string]interface{}{
		"workouts.list": []models.Workout{{
			ID: "w1", Title: "Legs", Calories: 320.5, CompletedAt: 1710064800000,
			Exercises: []models.Exercise{{Name: "Squat", Sets: 4, Reps: &reps}},
		}},
	}}
	c := newClient(f)

	resp, err := c.RawPost(`{ recent: workouts { __typename title burned: calories completedAt exercises { name reps } } }`)
	require.NoError(t, err)
	require.Empty(t, resp.Errors)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"recent":[{"__typename":"Workout","title":"Legs","burned":320.5,"completedAt":1710064800000,"exercises":[{"name":"Squat","reps":10}]}]}`, string(raw))
}

func TestFailedFieldIsNullWithError(t *testing.T) {
	f := &fakeResolver{
		results: map[string]interface{}{"ai.getQuickTip": models.QuickTip{Tip: "Stretch.", Category: "recovery"}},
		errs:    map[string]error{"user.get": errors.New("sign in first")},
	}
	c := newClient(f)

	resp, err := c.RawPost(`{ me { id } quickTip(category: "recovery") { tip } }`)
	require.NoError(t, err)

	var errs []struct {
		Message    string                 `json:"message"`
		Path       []string               `json:"path"`
		Extensions map[string]interface{} `json:"extensions"`
	}
	require.NoError(t, json.Unmarshal(resp.Errors, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "sign in first", errs[0].Message)
	assert.Equal(t, []string{"me"}, errs[0].Path)
	assert.Equal(t, "failed", errs[0].Extensions["code"])
	assert.Equal(t, "user.get", errs[0].Extensions["procedure"])

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"me":null,"quickTip":{"tip":"Stretch."}}`, string(raw))
}

func TestIntrospection(t *testing.T) {
	c := newClient(&fakeResolver{})

	var resp struct {
		Schema struct {
			QueryType    struct{ Name string } `json:"queryType"`
			MutationType struct{ Name string } `json:"mutationType"`
		} `json:"__schema"`
		Type struct {
			Kind   string `json:"kind"`
			Fields []struct {
				Name string `json:"name"`
				Type struct {
					Kind   string `json:"kind"`
					OfType struct {
						Name string `json:"name"`
					} `json:"ofType"`
				} `json:"type"`
			} `json:"fields"`
		} `json:"__type"`
	}
	c.MustPost(`{ __schema { queryType { name } mutationType { name } } __type(name: "Activity") { kind fields { name type { kind ofType { name } } } } }`, &resp)

	assert.Equal(t, "Query", resp.Schema.QueryType.Name)
	assert.Equal(t, "Mutation", resp.Schema.MutationType.Name)
	assert.Equal(t, "OBJECT", resp.Type.Kind)
	require.NotEmpty(t, resp.Type.Fields)
	assert.Equal(t, "id", resp.Type.Fields[0].Name)
	assert.Equal(t, "NON_NULL", resp.Type.Fields[0].Type.Kind)
	assert.Equal(t, "ID", resp.Type.Fields[0].Type.OfType.Name)
}
