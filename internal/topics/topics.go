// Package topics supplies the strategy step's suggested topics: a
// built-in catalog per stream, optionally refreshed from configured RSS
// feeds so suggestions track real market news.
package topics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"lumafin/internal/models"
)

// feedTimeout bounds a single feed fetch during refresh.
const feedTimeout = 10 * time.Second

// maxPerFeed caps how many items one feed contributes per refresh.
const maxPerFeed = 5

// builtin is the fallback catalog shown when no feeds are configured or
// a refresh has not run yet.
var builtin = map[models.Stream][]models.Topic{
	models.StreamMarket: {
		{ID: "mkt-rates", Stream: models.StreamMarket, Title: "Central bank holds rates steady for a third consecutive meeting", Source: "desk briefing", Category: "Macro", Tag: "rates"},
		{ID: "mkt-fx", Stream: models.StreamMarket, Title: "Euro slips against the dollar on weak manufacturing data", Source: "desk briefing", Category: "FX", Tag: "eurusd"},
		{ID: "mkt-etf", Stream: models.StreamMarket, Title: "Inflows into short-duration bond ETFs hit a quarterly record", Source: "desk briefing", Category: "Funds", Tag: "etf"},
		{ID: "mkt-payments", Stream: models.StreamMarket, Title: "Instant payment volumes double year over year across the EU", Source: "desk briefing", Category: "Payments", Tag: "sepa"},
	},
	models.StreamNotice: {
		{ID: "sys-api", Stream: models.StreamNotice, Title: "API v2 sunset: migration deadline and breaking changes", Source: "platform team", Category: "Platform", Tag: "api"},
		{ID: "sys-maint", Stream: models.StreamNotice, Title: "Scheduled maintenance window for the settlement service", Source: "platform team", Category: "Maintenance", Tag: "settlement"},
		{ID: "sys-sec", Stream: models.StreamNotice, Title: "Mandatory security update for webhook signature validation", Source: "platform team", Category: "Security", Tag: "webhooks"},
	},
}

// Catalog serves suggested topics and merges in feed items on refresh.
// Safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	fetched map[models.Stream][]models.Topic

	feeds  map[models.Stream][]string
	client *http.Client
}

// NewCatalog builds a catalog with the configured feed URLs per stream.
// Either list may be empty; the builtin suggestions always remain.
func NewCatalog(marketFeeds, noticeFeeds []string) *Catalog {
	return &Catalog{
		fetched: make(map[models.Stream][]models.Topic),
		feeds: map[models.Stream][]string{
			models.StreamMarket: marketFeeds,
			models.StreamNotice: noticeFeeds,
		},
		client: &http.Client{Timeout: feedTimeout},
	}
}

// ForStream returns the current suggestions for a stream: fetched feed
// items first, then the builtin catalog.
func (c *Catalog) ForStream(stream models.Stream) []models.Topic {
	c.mu.RLock()
	fetched := c.fetched[stream]
	c.mu.RUnlock()

	out := make([]models.Topic, 0, len(fetched)+len(builtin[stream]))
	out = append(out, fetched...)
	out = append(out, builtin[stream]...)
	return out
}

// Find looks a topic up by ID across both streams.
func (c *Catalog) Find(id string) (models.Topic, bool) {
	for _, stream := range []models.Stream{models.StreamMarket, models.StreamNotice} {
		for _, t := range c.ForStream(stream) {
			if t.ID == id {
				return t, true
			}
		}
	}
	return models.Topic{}, false
}

// Refresh fetches every configured feed and replaces the fetched
// suggestions. Individual feed failures are logged and skipped; the
// builtin catalog is never affected.
func (c *Catalog) Refresh(ctx context.Context) {
	parser := gofeed.NewParser()
	parser.Client = c.client

	for stream, urls := range c.feeds {
		var topics []models.Topic
		for _, url := range urls {
			items, err := c.fetchFeed(ctx, parser, stream, url)
			if err != nil {
				slog.Warn("topic feed refresh failed", "stream", stream, "url", url, "error", err)
				continue
			}
			topics = append(topics, items...)
		}

		// IDs are assigned after collection so they stay unique across
		// multiple feeds of the same stream.
		for i := range topics {
			topics[i].ID = fmt.Sprintf("feed-%s-%d", stream, i)
		}

		c.mu.Lock()
		c.fetched[stream] = topics
		c.mu.Unlock()

		if len(topics) > 0 {
			slog.Info("topic catalog refreshed", "stream", stream, "count", len(topics))
		}
	}
}

func (c *Catalog) fetchFeed(ctx context.Context, parser *gofeed.Parser, stream models.Stream, url string) ([]models.Topic, error) {
	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	source := feed.Title
	if source == "" {
		source = url
	}

	var topics []models.Topic
	for _, item := range feed.Items {
		if len(topics) >= maxPerFeed {
			break
		}
		if item == nil || item.Title == "" {
			continue
		}

		category := "Feed"
		if len(item.Categories) > 0 {
			category = item.Categories[0]
		}

		topics = append(topics, models.Topic{
			Stream:   stream,
			Title:    item.Title,
			Source:   source,
			Category: category,
			Tag:      string(stream),
		})
	}
	return topics, nil
}
