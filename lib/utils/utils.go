package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for every date-keyed record.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateEmail takes an email string as input and returns a boolean indicating whether the input is a valid email address.
func ValidateEmail(email string) bool {
	const emailPattern = `^(?i)[a-z0-9._%+\-]+@(?:[a-z0-9\-]+\.)+[a-z]{2,}$`
	matched, err := regexp.MatchString(emailPattern, email)
	return err == nil && matched
}

// ValidatePassword takes a password string as input and returns a boolean indicating whether the input is a valid password.
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	containsLetter, _ := regexp.MatchString(`[a-zA-Z]`, password)
	containsNumber, _ := regexp.MatchString(`[0-9]`, password)
	return containsLetter && containsNumber
}

// ValidateDate reports whether s is a YYYY-MM-DD string naming a real calendar day.
func ValidateDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// DateString formats t as a UTC calendar date.
func DateString(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// AddDays shifts a YYYY-MM-DD date by n days. Invalid input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DayBounds returns the epoch millisecond range [start, end) covering a UTC day.
func DayBounds(date string) (int64, int64, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.UnixMilli(), t.AddDate(0, 0, 1).UnixMilli(), nil
}

// MillisToDate converts an epoch millisecond timestamp to its UTC calendar date.
func MillisToDate(ms int64) string {
	return DateString(time.UnixMilli(ms))
}

// Banner frames message with bannerChar on every side.
func Banner(bannerChar, message string) string {
	bannerLine := strings.Repeat(bannerChar, len(message)+4)
	return fmt.Sprintf("%s\n%s %s %s\n%s\n", bannerLine, bannerChar, message, bannerChar, bannerLine)
}

func PrintBanner(message string) {
	fmt.Println(Banner("+", message))
}

func PrintError(message string) {
	fmt.Println(Banner("=", "ERROR: "+message))
}
