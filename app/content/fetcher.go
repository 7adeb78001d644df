package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability"
	"github.com/mmcdole/gofeed"

	"postpilot/app/database"
)

const fetchTimeout = 30 * time.Second

// Fetcher pulls raw articles from a content source. Feed-backed sources
// are parsed with gofeed; website sources go through readability
// extraction.
type Fetcher struct {
	httpClient *http.Client
	feedParser *gofeed.Parser
	userAgent  string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		feedParser: gofeed.NewParser(),
		userAgent:  userAgent,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, source *database.ContentSource) ([]Article, error) {
	switch source.SourceType {
	case database.SourceTypeRSSFeed, database.SourceTypeNewsletter:
		return f.fetchFeed(ctx, source)
	case database.SourceTypeWebsite:
		return f.fetchWebsite(ctx, source)
	case database.SourceTypeManual, database.SourceTypeLinkedIn:
		// Nothing to pull; content arrives through other channels
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", source.SourceType)
	}
}

func (f *Fetcher) fetchFeed(ctx context.Context, source *database.ContentSource) ([]Article, error) {
	data, err := f.fetchURL(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := f.feedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		articles = append(articles, f.normalizeFeedItem(item, source))
	}

	return articles, nil
}

func (f *Fetcher) normalizeFeedItem(item *gofeed.Item, source *database.ContentSource) Article {
	articleContent := item.Content
	if articleContent == "" {
		articleContent = item.Description
	}

	article := Article{
		Title:      item.Title,
		URL:        item.Link,
		Content:    articleContent,
		SourceID:   source.ID,
		SourceName: source.Name,
		WordCount:  len(strings.Fields(articleContent)),
	}

	if item.PublishedParsed != nil {
		article.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		article.PublishedAt = *item.UpdatedParsed
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		article.Author = item.Authors[0].Name
	} else if item.Author != nil {
		article.Author = item.Author.Name
	}

	return article
}

func (f *Fetcher) fetchWebsite(ctx context.Context, source *database.ContentSource) ([]Article, error) {
	data, err := f.fetchURL(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	page, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	articleContent := page.TextContent
	if articleContent == "" {
		return nil, fmt.Errorf("no content extracted from %s", source.URL)
	}

	article := Article{
		Title:      page.Title,
		URL:        source.URL,
		Content:    articleContent,
		Author:     page.Byline,
		SourceID:   source.ID,
		SourceName: source.Name,
		WordCount:  len(strings.Fields(articleContent)),
	}

	return []Article{article}, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
