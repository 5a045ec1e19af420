package persistent

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testDoc struct {
	ID     string   `json:"id"`
	Owner  string   `json:"owner"`
	Date   string   `json:"date"`
	Score  float64  `json:"score"`
	Tags   []string `json:"tags"`
	Nested struct {
		Count int `json:"count"`
	} `json:"nested"`
}

func seed(t *testing.T, s *MemoryStore, docs ...testDoc) {
	t.Helper()
	for _, d := range docs {
		require.NoError(t, s.Set(context.Background(), "docs", d.ID, d))
	}
}

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemoryStore()
	var d testDoc
	found, err := s.Get(context.Background(), "docs", "nope", &d)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryQueryFiltersOrdersAndLimits(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s,
		testDoc{ID: "a", Owner: "u1", Date: "2024-03-01", Score: 1},
		testDoc{ID: "b", Owner: "u1", Date: "2024-03-05", Score: 5},
		testDoc{ID: "c", Owner: "u1", Date: "2024-03-09", Score: 9},
		testDoc{ID: "d", Owner: "u2", Date: "2024-03-05", Score: 7},
	)

	var got []testDoc
	q := Query{Collection: "docs", OrderBy: "score", Descending: true}.
		Where("owner", OpEqual, "u1").
		Where("date", OpGreaterOrEqual, "2024-03-02").
		Where("date", OpLessOrEqual, "2024-03-09")
	require.NoError(t, s.Query(context.Background(), q, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	q.Limit = 1
	require.NoError(t, s.Query(context.Background(), q, &got))
	assert.Len(t, got, 1)
}

func TestMemoryQueryInFilter(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, testDoc{ID: "a", Owner: "u1"}, testDoc{ID: "b", Owner: "u2"}, testDoc{ID: "c", Owner: "u3"})

	var got []testDoc
	q := Query{Collection: "docs", OrderBy: FieldID}.Where("owner", OpIn, []string{"u1", "u3"})
	require.NoError(t, s.Query(context.Background(), q, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestQueryRejectsOversizedInFilter(t *testing.T) {
	s := NewMemoryStore()
	ids := make([]string, MaxInValues+1)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	var got []testDoc
	err := s.Query(context.Background(), Query{Collection: "docs"}.Where(FieldID, OpIn, ids), &got)
	assert.True(t, errors.Is(err, ErrInFilterTooLarge))
}

func TestMemoryUpdateIncrementAddToSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, testDoc{ID: "a", Tags: []string{"x"}})

	require.NoError(t, s.Update(ctx, "docs", "a", map[string]interface{}{"owner": "u9"}))
	require.NoError(t, s.Increment(ctx, "docs", "a", map[string]interface{}{"score": 2.5, "nested.count": 3}))
	require.NoError(t, s.Increment(ctx, "docs", "a", map[string]interface{}{"nested.count": 1}))
	require.NoError(t, s.AddToSet(ctx, "docs", "a", "tags", "y"))
	require.NoError(t, s.AddToSet(ctx, "docs", "a", "tags", "x"))

	var d testDoc
	found, err := s.Get(ctx, "docs", "a", &d)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "u9", d.Owner)
	assert.Equal(t, 2.5, d.Score)
	assert.Equal(t, 4, d.Nested.Count)
	assert.Equal(t, []string{"x", "y"}, d.Tags)

	assert.True(t, errors.Is(s.Update(ctx, "docs", "missing", map[string]interface{}{"owner": "x"}), ErrNotFound))
}

func TestMemoryConcurrentAddToSetKeepsSetSemantics(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, testDoc{ID: "a"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AddToSet(ctx, "docs", "a", "tags", "same"))
		}()
	}
	wg.Wait()

	var d testDoc
	_, err := s.Get(ctx, "docs", "a", &d)
	require.NoError(t, err)
	assert.Equal(t, []string{"same"}, d.Tags)
}

func TestMemoryWatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, testDoc{ID: "a", Score: 1})

	var mu sync.Mutex
	var seen []float64
	stop, err := s.Watch(ctx, "docs", "a", func(snap Snapshot) {
		var d testDoc
		if snap.Exists {
			require.NoError(t, snap.DataTo(&d))
		}
		mu.Lock()
		seen = append(seen, d.Score)
		mu.Unlock()
	}, func(error) {})
	require.NoError(t, err)

	require.NoError(t, s.Increment(ctx, "docs", "a", map[string]interface{}{"score": 1}))
	stop()
	require.NoError(t, s.Increment(ctx, "docs", "a", map[string]interface{}{"score": 1}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{1, 2}, seen)
}

func TestMemoryWatchStopReleasesGoroutine(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, testDoc{ID: "a", Score: 1})
	before := runtime.NumGoroutine()

	stops := make([]func(), 0, 50)
	for i := 0; i < 50; i++ {
		stop, err := s.Watch(context.Background(), "docs", "a", func(Snapshot) {}, func(error) {})
		require.NoError(t, err)
		stops = append(stops, stop)
	}
	for _, stop := range stops {
		stop()
		stop()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryWatchStopsWithContext(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, testDoc{ID: "a", Score: 1})

	var mu sync.Mutex
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Watch(ctx, "docs", "a", func(Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, func(error) {})
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.listeners["docs/a"]) == 0
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Increment(context.Background(), "docs", "a", map[string]interface{}{"score": 1}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestNormalizeValueConvertsTimestamps(t *testing.T) {
	at := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	doc := normalizeMap(map[string]interface{}{
		"createdAt": at,
		"mongoTime": primitive.NewDateTimeFromTime(at),
		"nested":    bson.M{"when": at},
		"list":      primitive.A{at},
	})
	assert.Equal(t, at.UnixMilli(), doc["createdAt"])
	assert.Equal(t, at.UnixMilli(), doc["mongoTime"])
	assert.Equal(t, at.UnixMilli(), doc["nested"].(map[string]interface{})["when"])
	assert.Equal(t, at.UnixMilli(), doc["list"].([]interface{})[0])
}

func TestFromMongoExposesID(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := fromMongo(bson.M{"_id": oid, "name": "x"})
	assert.Equal(t, oid.Hex(), doc[FieldID])
	_, hasRaw := doc["_id"]
	assert.False(t, hasRaw)
}
