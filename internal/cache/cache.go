// Package cache provides the short-lived read-through cache for task
// listings. Entries are keyed by caller identity plus the exact request path
// and query; writers invalidate every key under a project's listing prefix
// on any mutation. Eviction is time-based only.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// listingPathPrefix is the path fragment shared by all task-listing keys of a
// project, across all caller identities.
const listingPathPrefix = "/tasks/project/"

// ListingCache caches marshaled task-listing responses.
type ListingCache struct {
	c *gocache.Cache
}

// New creates a cache with the given entry TTL.
func New(ttl time.Duration) *ListingCache {
	return &ListingCache{c: gocache.New(ttl, 2*ttl)}
}

// Key builds a cache key from the caller and the request path with query.
func Key(userID, requestURI string) string {
	return userID + "|" + requestURI
}

// Get returns the cached response body for key, if present and fresh.
func (l *ListingCache) Get(key string) ([]byte, bool) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

// Set stores a response body under key.
func (l *ListingCache) Set(key string, body []byte) {
	l.c.SetDefault(key, body)
}

// InvalidateProject removes every cached listing for the project, for all
// callers, so reads after a mutation are never stale.
func (l *ListingCache) InvalidateProject(projectID string) {
	needle := listingPathPrefix + projectID
	for key := range l.c.Items() {
		if strings.Contains(key, needle) {
			l.c.Delete(key)
		}
	}
}
