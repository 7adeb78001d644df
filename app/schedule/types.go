package schedule

import (
	"time"

	"postpilot/app/content"
)

// TimeSlot is a recurring weekly posting opportunity.
type TimeSlot struct {
	DayOfWeek  time.Weekday `json:"day_of_week"`
	Hour       int          `json:"hour"`
	Minute     int          `json:"minute"`
	Score      float64      `json:"score"`
	Confidence float64      `json:"confidence"`
}

// PostingTime is a concrete recommended posting datetime.
type PostingTime struct {
	Time       time.Time `json:"time"`
	Confidence float64   `json:"confidence"`
	IsFallback bool      `json:"is_fallback"`
	Reason     string    `json:"reason,omitempty"`
}

// Constraints bound how often and when a user posts.
type Constraints struct {
	MaxPostsPerDay       int
	MaxPostsPerWeek      int
	MinHoursBetweenPosts int
	AvoidWeekends        bool
	BusinessHoursOnly    bool
}

// DeriveConstraints maps the profile's posting preferences onto hard
// frequency caps.
func DeriveConstraints(posting content.PostingConfig) Constraints {
	c := Constraints{
		MinHoursBetweenPosts: posting.MinHoursBetweenPosts,
		AvoidWeekends:        posting.AvoidWeekends,
		BusinessHoursOnly:    posting.BusinessHoursOnly,
	}
	if c.MinHoursBetweenPosts <= 0 {
		c.MinHoursBetweenPosts = content.DefaultMinHoursBetweenPosts
	}

	switch posting.Frequency {
	case "multiple_daily":
		c.MaxPostsPerDay, c.MaxPostsPerWeek = 3, 15
	case "daily":
		c.MaxPostsPerDay, c.MaxPostsPerWeek = 1, 7
	case "few_times_week":
		c.MaxPostsPerDay, c.MaxPostsPerWeek = 1, 4
	default:
		c.MaxPostsPerDay, c.MaxPostsPerWeek = 1, 2
	}

	return c
}

// allows reports whether a datetime satisfies the day and hour
// preference constraints.
func (c Constraints) allows(t time.Time) bool {
	if c.AvoidWeekends && isWeekend(t) {
		return false
	}
	if c.BusinessHoursOnly && !isBusinessHours(t) {
		return false
	}
	return true
}

func isWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}

func isBusinessHours(t time.Time) bool {
	return t.Hour() >= 9 && t.Hour() < 17
}
