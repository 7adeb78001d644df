package predict

import (
	"strings"
	"time"

	"postpilot/app/database"
)

// FeatureCount is the fixed dimensionality of the draft feature vector.
const FeatureCount = 10

var callToActionPhrases = []string{
	"check out",
	"learn more",
	"let me know",
	"share your",
	"what do you think",
	"comment below",
	"follow me",
	"sign up",
	"join us",
	"read more",
}

// ExtractFeatures maps a draft onto the model's feature vector. The
// reference time supplies the posting hour and weekday dimensions.
func ExtractFeatures(draft *database.PostDraft, at time.Time) []float64 {
	text := draft.Content

	return []float64{
		float64(len([]rune(text))),
		float64(len(draft.Hashtags)),
		boolFeature(strings.Contains(text, "?")),
		boolFeature(hasCallToAction(text)),
		boolFeature(hasEmoji(text)),
		boolFeature(strings.Contains(text, "http://") || strings.Contains(text, "https://")),
		float64(len(strings.Fields(text))),
		float64(countSentences(text)),
		float64(at.Hour()),
		float64(at.Weekday()),
	}
}

// postingTime picks the timestamp the draft is (or was) posted at, for
// the time-of-day features.
func postingTime(draft *database.PostDraft, now time.Time) time.Time {
	if draft.PublishedAt != nil {
		return *draft.PublishedAt
	}
	if draft.ScheduledFor != nil {
		return *draft.ScheduledFor
	}
	return now
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func hasCallToAction(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range callToActionPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func hasEmoji(text string) bool {
	for _, r := range text {
		// Misc symbols/pictographs, emoticons, transport, supplemental
		if (r >= 0x1F300 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF) {
			return true
		}
	}
	return false
}

func countSentences(text string) int {
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	if count == 0 && strings.TrimSpace(text) != "" {
		return 1
	}
	return count
}
