package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("runner@example.com"))
	assert.False(t, ValidateEmail("runner@"))
	assert.False(t, ValidateEmail("runner.example.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("abcdefg1"))
	assert.False(t, ValidatePassword("abcdefgh"))
	assert.False(t, ValidatePassword("abc1"))
}

func TestValidateDate(t *testing.T) {
	assert.True(t, ValidateDate("2024-02-29"))
	assert.False(t, ValidateDate("2023-02-29"))
	assert.False(t, ValidateDate("2024-2-9"))
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, "2024-03-01", AddDays("2024-02-29", 1))
	assert.Equal(t, "2023-12-31", AddDays("2024-01-01", -1))
	assert.Equal(t, "garbage", AddDays("garbage", 3))
}

func TestDayBounds(t *testing.T) {
	start, end, err := DayBounds("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli(), start)
	assert.Equal(t, int64(24*60*60*1000), end-start)
	assert.Equal(t, "2024-03-10", MillisToDate(end-1))

	_, _, err = DayBounds("nope")
	assert.Error(t, err)
}

func TestBanner(t *testing.T) {
	assert.Equal(t, "++++++++\n+ Hiya +\n++++++++\n", Banner("+", "Hiya"))
}
