package listing

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jmylchreest/stayscout/internal/logger"
)

// Title selectors, most specific first.
var titleSelectors = []string{
	`h1[data-testid="title"]`,
	"h1.hpipapi",
	"h1",
}

// DescriptionSelector marks the listing description section.
const DescriptionSelector = `div[data-section-id="DESCRIPTION_DEFAULT"]`

// Page is a parsed detail page, ready to be assembled into a Record.
type Page struct {
	Meta        PageMeta
	Fields      Fields
	Images      []string
	ImageSource ImageSource
	Text        string // visible page text, used for LLM field extraction
}

// Record assembles the page into a Record.
func (p *Page) Record() Record {
	return Assemble(p.Meta, p.Fields, p.Images)
}

// ParseDetailPage parses a rendered detail page. Only markup goquery cannot
// read is an error; every missing field degrades to its sentinel.
func ParseDetailPage(sourceURL, markup string, opts CollectOptions) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	text := PageText(doc)
	images, source := CollectFromPage(doc, markup, opts)

	page := &Page{
		Meta: PageMeta{
			SourceURL:   sourceURL,
			Title:       pageTitle(doc),
			Description: pageDescription(doc),
		},
		Fields:      ExtractFields(text, FeatureBlocks(doc)),
		Images:      images,
		ImageSource: source,
		Text:        text,
	}

	logger.Debug("detail page parsed",
		"url", sourceURL,
		"title", page.Meta.Title,
		"images", len(images),
		"image_source", source,
		"text_runes", len([]rune(text)))

	return page, nil
}

func pageTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if t := collapseSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return NoTitle
}

func pageDescription(doc *goquery.Document) string {
	section := doc.Find(DescriptionSelector).First()
	if section.Length() == 0 {
		return ""
	}

	inner, err := section.Html()
	if err == nil {
		var out string
		if out, err = md.ConvertString(inner); err == nil {
			return strings.TrimSpace(out)
		}
	}
	logger.Debug("description markdown conversion failed, using plain text", "error", err)
	return collapseSpace(section.Text())
}

// skippedTextElements never contribute visible text.
var skippedTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
}

// PageText joins every non-blank text node of the document with single
// spaces, leaving out script-like elements.
func PageText(doc *goquery.Document) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if skippedTextElements[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
