// page.go provides a Valkey-backed full-page HTML cache for the public
// marketing pages. When a landing, hub, or article page is rendered, the
// resulting HTML is stored in Valkey so subsequent requests skip the DB
// query and template execution entirely. Publishing invalidates the
// affected stream's pages.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages full-page HTML caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML for a page key. Returns false on miss.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML for a page key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// InvalidateStream removes the cached hub pages for a stream plus the
// landing pages, which surface the latest items of both streams. Pages
// are keyed per language, so invalidation works on key prefixes.
func (pc *PageCache) InvalidateStream(ctx context.Context, stream string) {
	pc.invalidatePrefix(ctx, "hub:"+stream+":")
	pc.invalidatePrefix(ctx, "landing:")
}

// InvalidateAll removes all cached pages by scanning for the prefix.
// Used when brand settings change, since the shared chrome appears on
// every page.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
}

func (pc *PageCache) invalidatePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+prefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "prefix", prefix, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache invalidate error", "prefix", prefix, "error", err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	slog.Debug("page cache invalidated", "prefix", prefix)
}

// LandingKey returns the cache key for the landing page in a language.
func LandingKey(lang string) string {
	return "landing:" + lang
}

// HubKey returns the cache key for a stream hub page in a language.
func HubKey(stream, lang string) string {
	return fmt.Sprintf("hub:%s:%s", stream, lang)
}

// ArticleKey returns the cache key for an article detail page.
func ArticleKey(stream string, id int64, lang string) string {
	return fmt.Sprintf("article:%s:%d:%s", stream, id, lang)
}
