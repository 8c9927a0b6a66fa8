package builder

import (
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
)

// IssuedLayout is the timestamp format the authority accepts.
const IssuedLayout = "2006-01-02T15:04:05Z"

var postingLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// IssuedAt interprets the posting date and time in loc and renders it in UTC.
// Fractional seconds in the posting time are accepted and dropped.
func IssuedAt(postingDate, postingTime string, loc *time.Location) (string, error) {
	ts, err := PostedAt(postingDate, postingTime, loc)
	if err != nil {
		return "", err
	}
	return ts.Format(IssuedLayout), nil
}

// PostedAt is the posting instant in UTC, truncated to the second.
func PostedAt(postingDate, postingTime string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(postingDate)
	if t := strings.TrimSpace(postingTime); t != "" {
		value += " " + t
	}
	for _, layout := range postingLayouts {
		ts, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return ts.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidPostingTime, value)
}
