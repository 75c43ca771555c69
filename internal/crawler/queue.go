package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// URLQueue holds discovered listing URLs in discovery order. Two URLs naming
// the same listing (same host and path, any query or fragment) are queued once;
// the first spelling is kept.
type URLQueue struct {
	mu    sync.Mutex
	queue []string
	seen  map[string]bool
}

// NewURLQueue creates a new URL queue.
func NewURLQueue() *URLQueue {
	return &URLQueue{
		queue: make([]string, 0),
		seen:  make(map[string]bool),
	}
}

// Add queues rawURL unless it is invalid or names an already queued listing.
func (q *URLQueue) Add(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := listingKey(rawURL)
	if key == "" || q.seen[key] {
		return false
	}

	q.seen[key] = true
	q.queue = append(q.queue, rawURL)
	return true
}

// Pop removes and returns the next URL from the queue.
func (q *URLQueue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queue) == 0 {
		return "", false
	}

	next := q.queue[0]
	q.queue = q.queue[1:]
	return next, true
}

// Take removes and returns up to n URLs. n <= 0 takes everything.
func (q *URLQueue) Take(n int) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || n > len(q.queue) {
		n = len(q.queue)
	}
	out := make([]string, n)
	copy(out, q.queue[:n])
	q.queue = q.queue[n:]
	return out
}

// Len returns the number of items in the queue.
func (q *URLQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Seen reports whether rawURL's listing has been queued.
func (q *URLQueue) Seen(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.seen[listingKey(rawURL)]
}

// listingKey reduces a URL to lowercase host plus path without trailing slash.
func listingKey(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}

	path := parsed.Path
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return strings.ToLower(parsed.Host) + path
}
