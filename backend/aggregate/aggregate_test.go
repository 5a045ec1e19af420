package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const today = "2024-03-10"

func TestCurrentStreak(t *testing.T) {
	cases := []struct {
		name  string
		dates []string
		want  int
	}{
		{"three consecutive days ending today", []string{"2024-03-10", "2024-03-09", "2024-03-08"}, 3},
		{"nothing today", []string{"2024-03-09", "2024-03-08"}, 0},
		{"gap after today", []string{"2024-03-10", "2024-03-08"}, 1},
		{"duplicates count once", []string{"2024-03-10", "2024-03-10", "2024-03-09"}, 2},
		{"unordered input", []string{"2024-03-08", "2024-03-10", "2024-03-09"}, 3},
		{"across a month boundary", []string{"2024-03-01", "2024-02-29", "2024-02-28"}, 0},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurrentStreak(tc.dates, today))
		})
	}

	assert.Equal(t, 3, CurrentStreak([]string{"2024-03-01", "2024-02-29", "2024-02-28"}, "2024-03-01"))
}

func TestLongestStreak(t *testing.T) {
	assert.Equal(t, 0, LongestStreak(nil))
	assert.Equal(t, 1, LongestStreak([]string{"2024-03-10"}))
	assert.Equal(t, 4, LongestStreak([]string{
		"2024-01-01", "2024-01-02",
		"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01",
		"2024-03-10",
	}))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 50, Progress(5000, 10000))
	assert.Equal(t, 100, Progress(15000, 10000))
	assert.Equal(t, 0, Progress(0, 10000))
	assert.Equal(t, 33, Progress(1, 3))
	assert.Equal(t, 67, Progress(2, 3))
	assert.Equal(t, 0, Progress(500, 0))
	assert.Equal(t, 0, Progress(500, -1))
	assert.Equal(t, 0, Progress(-250, 1000))
}

func TestSumInWindow(t *testing.T) {
	type rec struct {
		date string
		cal  float64
	}
	recs := []rec{{"2024-03-03", 100}, {"2024-03-04", 200}, {"2024-03-10", 300}, {"2024-03-11", 400}}
	start, end := WeekWindow(today)
	assert.Equal(t, "2024-03-04", start)

	sum := SumInWindow(recs, func(r rec) string { return r.date }, func(r rec) float64 { return r.cal }, start, end)
	assert.Equal(t, 500.0, sum)
}

func TestEstimateSteps(t *testing.T) {
	assert.Equal(t, 6500, EstimateSteps("run", 5))
	assert.Equal(t, 1950, EstimateSteps("walk", 1.5))
	assert.Equal(t, 0, EstimateSteps("cycle", 20))
}

func TestAverageOf(t *testing.T) {
	assert.Equal(t, 0.0, AverageOf(nil))
	assert.Equal(t, 7.5, AverageOf([]float64{7, 8}))
}
