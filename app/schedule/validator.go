package schedule

import (
	"fmt"
	"sort"
	"time"

	"postpilot/app/content"
)

// Violation categories.
const (
	ViolationFrequency  = "frequency"
	ViolationSpacing    = "spacing"
	ViolationPreference = "preference"
)

// Per-violation schedule score penalties.
const (
	frequencyPenalty  = 0.2
	spacingPenalty    = 0.15
	preferencePenalty = 0.1
)

type Violation struct {
	Category string    `json:"category"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

type ValidationResult struct {
	Valid       bool        `json:"valid"`
	Violations  []Violation `json:"violations"`
	Score       float64     `json:"score"`
	Suggestions []string    `json:"suggestions"`
}

// ValidateSchedule checks a proposed list of posting times against the
// user's frequency caps, minimum spacing and day/hour preferences. The
// score starts at 1.0 and is penalized per violation, floored at 0.
func ValidateSchedule(profile *content.Profile, times []time.Time) *ValidationResult {
	constraints := DeriveConstraints(profile.Posting)

	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var violations []Violation
	violations = append(violations, frequencyViolations(sorted, constraints)...)
	violations = append(violations, spacingViolations(sorted, constraints)...)
	violations = append(violations, preferenceViolations(sorted, constraints)...)

	score := 1.0
	categories := make(map[string]bool)
	for _, v := range violations {
		categories[v.Category] = true
		switch v.Category {
		case ViolationFrequency:
			score -= frequencyPenalty
		case ViolationSpacing:
			score -= spacingPenalty
		case ViolationPreference:
			score -= preferencePenalty
		}
	}
	if score < 0 {
		score = 0
	}

	return &ValidationResult{
		Valid:       len(violations) == 0,
		Violations:  violations,
		Score:       score,
		Suggestions: buildSuggestions(categories, constraints),
	}
}

// frequencyViolations flags each post beyond the daily or weekly cap.
func frequencyViolations(times []time.Time, constraints Constraints) []Violation {
	var violations []Violation

	perDay := make(map[string]int)
	for _, t := range times {
		day := t.Format("2006-01-02")
		perDay[day]++
		if perDay[day] > constraints.MaxPostsPerDay {
			violations = append(violations, Violation{
				Category: ViolationFrequency,
				Message:  fmt.Sprintf("post %d of %s exceeds the daily cap of %d", perDay[day], day, constraints.MaxPostsPerDay),
				Time:     t,
			})
		}
	}

	perWeek := make(map[string]int)
	for _, t := range times {
		year, week := t.ISOWeek()
		key := fmt.Sprintf("%d-%02d", year, week)
		perWeek[key]++
		if perWeek[key] > constraints.MaxPostsPerWeek {
			violations = append(violations, Violation{
				Category: ViolationFrequency,
				Message:  fmt.Sprintf("post %d of week %s exceeds the weekly cap of %d", perWeek[key], key, constraints.MaxPostsPerWeek),
				Time:     t,
			})
		}
	}

	return violations
}

// spacingViolations flags each consecutive pair closer than the minimum
// gap. Times must be sorted.
func spacingViolations(times []time.Time, constraints Constraints) []Violation {
	minGap := time.Duration(constraints.MinHoursBetweenPosts) * time.Hour

	var violations []Violation
	for i := 1; i < len(times); i++ {
		if times[i].Sub(times[i-1]) < minGap {
			violations = append(violations, Violation{
				Category: ViolationSpacing,
				Message:  fmt.Sprintf("only %s after the previous post, minimum is %dh", times[i].Sub(times[i-1]), constraints.MinHoursBetweenPosts),
				Time:     times[i],
			})
		}
	}
	return violations
}

func preferenceViolations(times []time.Time, constraints Constraints) []Violation {
	var violations []Violation
	for _, t := range times {
		if constraints.AvoidWeekends && isWeekend(t) {
			violations = append(violations, Violation{
				Category: ViolationPreference,
				Message:  fmt.Sprintf("%s falls on a weekend", t.Format("Mon Jan 2 15:04")),
				Time:     t,
			})
		}
		if constraints.BusinessHoursOnly && !isBusinessHours(t) {
			violations = append(violations, Violation{
				Category: ViolationPreference,
				Message:  fmt.Sprintf("%s is outside business hours (9-17)", t.Format("Mon Jan 2 15:04")),
				Time:     t,
			})
		}
	}
	return violations
}

func buildSuggestions(categories map[string]bool, constraints Constraints) []string {
	var suggestions []string
	if categories[ViolationFrequency] {
		suggestions = append(suggestions, fmt.Sprintf("Reduce the schedule to at most %d posts per day and %d per week.", constraints.MaxPostsPerDay, constraints.MaxPostsPerWeek))
	}
	if categories[ViolationSpacing] {
		suggestions = append(suggestions, fmt.Sprintf("Leave at least %d hours between posts.", constraints.MinHoursBetweenPosts))
	}
	if categories[ViolationPreference] {
		if constraints.AvoidWeekends && constraints.BusinessHoursOnly {
			suggestions = append(suggestions, "Move posts to weekday business hours (9-17).")
		} else if constraints.AvoidWeekends {
			suggestions = append(suggestions, "Move weekend posts to weekdays.")
		} else {
			suggestions = append(suggestions, "Move posts into business hours (9-17).")
		}
	}
	return suggestions
}
