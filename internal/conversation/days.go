package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	travelDatesRe = regexp.MustCompile(`(?i)Travel dates: from (\d{4}-\d{2}-\d{2}) to (\d{4}-\d{2}-\d{2})`)
	dayCountRe    = regexp.MustCompile(`(?i)\b(\d{1,3})\s*-?\s*day(s)?\b`)
)

const lengthHint = "\n\nIMPORTANT: This is a %d-day trip. Please generate a complete %d-day itinerary with all details for each day."

// DesiredDays infers the trip length from a user message. It returns 0 when unknown.
// A date range counts both ends; a reversed range counts as one day.
func DesiredDays(text string) int {
	if m := travelDatesRe.FindStringSubmatch(text); m != nil {
		from, err1 := time.Parse(time.DateOnly, m[1])
		to, err2 := time.Parse(time.DateOnly, m[2])
		if err1 != nil || err2 != nil {
			return 0
		}
		span := max(to.Sub(from), 0)
		return int(span/(24*time.Hour)) + 1
	}
	if m := dayCountRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// WithLengthHint appends the explicit trip-length instruction to a date-range message.
func WithLengthHint(text string, days int) string {
	if days <= 0 || !strings.Contains(strings.ToLower(text), "travel dates:") {
		return text
	}
	return text + fmt.Sprintf(lengthHint, days, days)
}

// DateRangeMessage formats the date-range widget answer.
func DateRangeMessage(from, to time.Time) string {
	return fmt.Sprintf("Travel dates: from %s to %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
}
