package listing

import (
	"strings"

	"golang.org/x/net/html"
)

// Tag is one element of a flat tag scan: its name and attributes.
type Tag struct {
	Name  string
	Attrs map[string]string
}

// ParseTags tokenizes markup and returns every start tag in document order.
// Malformed markup ends the scan early; whatever was read is returned.
func ParseTags(markup string) []Tag {
	z := html.NewTokenizer(strings.NewReader(markup))
	var tags []Tag
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the scan is over.
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			t := Tag{Name: tok.Data, Attrs: make(map[string]string, len(tok.Attr))}
			for _, a := range tok.Attr {
				if _, dup := t.Attrs[a.Key]; !dup {
					t.Attrs[a.Key] = a.Val
				}
			}
			tags = append(tags, t)
		}
	}
}
