package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for listing links on a search results page.
const (
	DefaultMetaSelector = `meta[itemprop="url"]`
	DefaultCardSelector = `div[data-testid="property-card"] a`
	DefaultURLPattern   = `/rooms/`
)

// LinkSelector extracts listing detail URLs from a search results page.
// Structured-data meta tags are read first; card anchors are used only when
// the page has no usable meta URLs.
type LinkSelector struct {
	MetaSelector string         // elements whose content attribute is a listing URL
	CardSelector string         // anchors whose href is a listing URL
	URLPattern   *regexp.Regexp // URLs must match to count as listings
}

// NewLinkSelector creates a link selector. Empty arguments select the defaults.
func NewLinkSelector(metaSelector, cardSelector, urlPattern string) (*LinkSelector, error) {
	if metaSelector == "" {
		metaSelector = DefaultMetaSelector
	}
	if cardSelector == "" {
		cardSelector = DefaultCardSelector
	}
	if urlPattern == "" {
		urlPattern = DefaultURLPattern
	}

	pattern, err := regexp.Compile(urlPattern)
	if err != nil {
		return nil, err
	}

	return &LinkSelector{
		MetaSelector: metaSelector,
		CardSelector: cardSelector,
		URLPattern:   pattern,
	}, nil
}

// ExtractLinks returns the listing URLs found in html, deduplicated, in
// document order. Scheme-less values get "https://"; relative hrefs are
// resolved against baseURL.
func (ls *LinkSelector) ExtractLinks(html string, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	queue := NewURLQueue()
	ls.collect(doc.Find(ls.MetaSelector), "content", base, queue)
	if queue.Len() == 0 {
		ls.collect(doc.Find(ls.CardSelector), "href", base, queue)
	}
	return queue.Take(0), nil
}

func (ls *LinkSelector) collect(sel *goquery.Selection, attr string, base *url.URL, queue *URLQueue) {
	sel.Each(func(_ int, s *goquery.Selection) {
		raw, exists := s.Attr(attr)
		if !exists {
			return
		}
		if u := resolveListingURL(raw, base); u != "" && ls.URLPattern.MatchString(u) {
			queue.Add(u)
		}
	})
}

// resolveListingURL turns a meta content or href value into an absolute URL.
func resolveListingURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "javascript:") {
		return ""
	}

	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case strings.HasPrefix(raw, "/"):
		ref, err := url.Parse(raw)
		if err != nil || base == nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	default:
		// Structured data often omits the scheme: "www.airbnb.co.kr/rooms/1".
		raw = "https://" + raw
	}

	if _, err := url.Parse(raw); err != nil {
		return ""
	}
	return raw
}

// urlSafe lists the bytes SanitizeURL leaves as they are.
const urlSafe = ":/?&=%-._~"

// SanitizeURL trims whitespace and percent-encodes every byte outside the
// unreserved set and ":/?&=". Existing escapes are kept, so sanitizing twice
// changes nothing.
func SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)

	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			strings.IndexByte(urlSafe, c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}
