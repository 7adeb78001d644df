package content

import (
	"strings"
	"testing"
	"time"
)

func testProfile() *Profile {
	return &Profile{
		Name:                  "test-user",
		MinWordCount:          200,
		ContentFreshnessHours: 72,
		MinRelevanceScore:     0.7,
	}
}

func longArticle(topic string) Article {
	return Article{
		Title:       "An article about " + topic,
		URL:         "https://example.com/" + topic,
		Content:     strings.Repeat(topic+" word filler content ", 60),
		PublishedAt: time.Now().UTC().Add(-1 * time.Hour),
		WordCount:   240,
	}
}

func TestFiltererRejectsShortArticles(t *testing.T) {
	filterer := NewFilterer()
	profile := testProfile()

	article := longArticle("golang")
	article.WordCount = 50

	result := filterer.Run([]Article{article}, profile)

	if len(result) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result))
	}
	if !result[0].IsFiltered {
		t.Error("Expected article with 50 words to be rejected regardless of relevance")
	}
	if !strings.Contains(result[0].FilterReason, "word count") {
		t.Errorf("Expected word count reason, got: %s", result[0].FilterReason)
	}
}

func TestFiltererRejectsStaleArticles(t *testing.T) {
	filterer := NewFilterer()
	profile := testProfile()

	article := longArticle("golang")
	article.PublishedAt = time.Now().UTC().Add(-100 * time.Hour)

	result := filterer.Run([]Article{article}, profile)

	if !result[0].IsFiltered {
		t.Error("Expected stale article to be rejected")
	}
	if !strings.Contains(result[0].FilterReason, "older than") {
		t.Errorf("Expected freshness reason, got: %s", result[0].FilterReason)
	}
}

func TestFiltererKeepsArticlesWithUnknownPublishDate(t *testing.T) {
	filterer := NewFilterer()
	profile := testProfile()

	article := longArticle("golang")
	article.PublishedAt = time.Time{}

	result := filterer.Run([]Article{article}, profile)

	if result[0].IsFiltered {
		t.Errorf("Expected article without publish date to pass, got: %s", result[0].FilterReason)
	}
}

func TestFiltererRejectsAvoidedTopics(t *testing.T) {
	filterer := NewFilterer()
	profile := testProfile()
	profile.TopicsToAvoid = []string{"Crypto"}

	article := longArticle("golang")
	article.Content += " Also some crypto trading tips."

	result := filterer.Run([]Article{article}, profile)

	if !result[0].IsFiltered {
		t.Error("Expected article matching avoided topic to be rejected")
	}
	if !strings.Contains(result[0].FilterReason, "avoided topic") {
		t.Errorf("Expected avoid reason, got: %s", result[0].FilterReason)
	}
}

func TestFiltererInterestAllowList(t *testing.T) {
	filterer := NewFilterer()
	profile := testProfile()
	profile.Interests = []string{"kubernetes", "golang"}

	matching := longArticle("golang")
	nonMatching := longArticle("gardening")

	result := filterer.Run([]Article{matching, nonMatching}, profile)

	if result[0].IsFiltered {
		t.Errorf("Expected interest-matching article to pass, got: %s", result[0].FilterReason)
	}
	if !result[1].IsFiltered {
		t.Error("Expected non-matching article to be rejected when interests are declared")
	}
}

func TestFiltererNoInterestsKeepsEverything(t *testing.T) {
	filterer := NewFilterer()
	profile := testProfile()

	result := filterer.Run([]Article{longArticle("anything")}, profile)

	if result[0].IsFiltered {
		t.Errorf("Expected article to pass with empty interest list, got: %s", result[0].FilterReason)
	}
}

func TestFiltererCheckOrder(t *testing.T) {
	filterer := NewFilterer()
	profile := testProfile()
	profile.TopicsToAvoid = []string{"golang"}

	// Fails both the length check and the avoid list; length is checked first
	article := longArticle("golang")
	article.WordCount = 10

	result := filterer.Run([]Article{article}, profile)

	if !strings.Contains(result[0].FilterReason, "word count") {
		t.Errorf("Expected length check to short-circuit first, got: %s", result[0].FilterReason)
	}
}
