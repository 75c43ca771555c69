package listing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/stayscout/internal/logger"
)

// Embedded page data location on the detail page.
const (
	EmbeddedStateSelector = "script#data-deferred-state-0"
)

// embeddedStatePath leads from the script JSON to the presentation subtree.
var embeddedStatePath = []any{"niobeMinimalClientData", 0, 1, "data", "presentation"}

// ErrNoEmbeddedState means the structured data script is absent from the page.
var ErrNoEmbeddedState = errors.New("embedded page data not found")

// CollectOptions names the field and resolution marker the primary path
// looks for.
type CollectOptions struct {
	Field  string // mapping key holding a photo URL
	Marker string // substring identifying full-resolution originals
}

// DefaultCollectOptions matches the rental site's photo objects.
func DefaultCollectOptions() CollectOptions {
	return CollectOptions{
		Field:  "baseUrl",
		Marker: "original",
	}
}

// ImageSource records which path produced a URL list.
type ImageSource string

const (
	SourceEmbedded ImageSource = "embedded"
	SourceTags     ImageSource = "tags"
	SourceNone     ImageSource = "none"
)

// urlSet accumulates unique URLs in first-encounter order.
type urlSet struct {
	seen map[string]struct{}
	urls []string
}

func newURLSet() *urlSet {
	return &urlSet{seen: make(map[string]struct{}), urls: []string{}}
}

func (s *urlSet) add(u string) {
	if _, ok := s.seen[u]; ok {
		return
	}
	s.seen[u] = struct{}{}
	s.urls = append(s.urls, u)
}

// CollectImageURLs walks root and returns the distinct values of opts.Field
// that contain opts.Marker and start with SecureMarker, in first-encounter
// order. Scalars and unknown shapes are skipped, never errors.
func CollectImageURLs(root Node, opts CollectOptions) []string {
	set := newURLSet()
	walkNode(root, opts, set)
	return set.urls
}

func walkNode(n Node, opts CollectOptions, set *urlSet) {
	switch n.Kind {
	case KindMapping:
		for _, e := range n.Entries {
			switch e.Value.Kind {
			case KindMapping, KindSequence:
				walkNode(e.Value, opts, set)
			case KindScalar:
				if e.Key != opts.Field {
					continue
				}
				if s, ok := e.Value.Text(); ok && strings.Contains(s, opts.Marker) && strings.HasPrefix(s, SecureMarker) {
					set.add(s)
				}
			}
		}
	case KindSequence:
		for _, item := range n.Items {
			walkNode(item, opts, set)
		}
	}
}

// CollectFromTags is the fallback path: every "src" attribute that is a
// secure URL, deduplicated, in document order.
func CollectFromTags(tags []Tag) []string {
	set := newURLSet()
	for _, t := range tags {
		src, ok := t.Attrs["src"]
		if !ok || !strings.HasPrefix(src, SecureMarker) {
			continue
		}
		set.add(src)
	}
	return set.urls
}

// EmbeddedState extracts the presentation subtree from the structured data
// script. It returns ErrNoEmbeddedState when the script is missing and an
// ErrStateShape-wrapped error when its content cannot be used.
func EmbeddedState(doc *goquery.Document) (Node, error) {
	script := doc.Find(EmbeddedStateSelector).First()
	if script.Length() == 0 {
		return Node{}, ErrNoEmbeddedState
	}

	root, err := NodeFromString(script.Text())
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrStateShape, err)
	}
	return root.Descend(embeddedStatePath...)
}

// CollectFromPage runs the primary path over the embedded data and falls back
// to the flat tag scan only when that data is absent. Malformed embedded data
// degrades to an empty list.
func CollectFromPage(doc *goquery.Document, markup string, opts CollectOptions) ([]string, ImageSource) {
	state, err := EmbeddedState(doc)
	switch {
	case err == nil:
		return CollectImageURLs(state, opts), SourceEmbedded
	case errors.Is(err, ErrNoEmbeddedState):
		logger.Debug("embedded page data missing, scanning tags")
		return CollectFromTags(ParseTags(markup)), SourceTags
	default:
		logger.Warn("embedded page data unusable", "error", err)
		return []string{}, SourceNone
	}
}
