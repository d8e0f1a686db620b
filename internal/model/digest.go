package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateKeyLayout = "January 2, 2006"
	isoDateLayout = "2006-01-02"
	TodayKey      = "today"
)

type Digest struct {
	ID        string    `json:"-" bson:"-"`
	Date      string    `json:"date" bson:"date"`
	Day       time.Time `json:"day" bson:"day"`
	Stories   []Story   `json:"stories" bson:"stories"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// DateKey renders the calendar day of t in the canonical key format.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey accepts a canonical key ("February 25, 2026") or an ISO date
// and returns the canonical key together with midnight of that day in loc.
func ParseDateKey(s string, loc *time.Location) (string, time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateKeyLayout, isoDateLayout} {
		day, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return DateKey(day), day, nil
		}
	}
	return "", time.Time{}, fmt.Errorf("invalid date key %q", s)
}

// StartOfDay truncates t to local midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
