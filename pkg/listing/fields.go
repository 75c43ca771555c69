package listing

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FeatureBlockSelector marks the content blocks holding the host's feature
// summary on a detail page.
const FeatureBlockSelector = "div.t110hta1.atm_g3_gktfv.atm_ks_15vqwwr.atm_sq_1l2sidv." +
	"atm_9s_cj1kg8.atm_6w_1e54zos.atm_fy_cs5v99." +
	"atm_ks_zryt35__1rgatj2.dir.dir-ltr"

// FallbackFeatureRunes bounds features taken from raw page text.
const FallbackFeatureRunes = 300

const ellipsis = "..."

// A count label must follow its digits, optionally separated by spaces.
var (
	bedroomRe  = regexp.MustCompile(`(\d+)[\s\p{Zs}]*침실`)
	bedRe      = regexp.MustCompile(`(\d+)[\s\p{Zs}]*침대`)
	bathroomRe = regexp.MustCompile(`(\d+)[\s\p{Zs}]*욕실`)
)

// ExtractFields pulls the three room counts and the feature summary out of a
// page. Counts use the first match in document order or NoInfo. Features are
// the non-empty blocks joined by newlines, or a bounded prefix of pageText.
func ExtractFields(pageText string, blocks []string) Fields {
	return Fields{
		Bedrooms:  firstCount(bedroomRe, pageText),
		Beds:      firstCount(bedRe, pageText),
		Bathrooms: firstCount(bathroomRe, pageText),
		Features:  features(pageText, blocks),
	}
}

func firstCount(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return NoInfo
	}
	return m[1]
}

func features(pageText string, blocks []string) string {
	var kept []string
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			kept = append(kept, b)
		}
	}
	if len(kept) > 0 {
		return strings.Join(kept, "\n")
	}
	return truncateRunes(pageText, FallbackFeatureRunes) + ellipsis
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FeatureBlocks returns the text of every marked feature block in document
// order, whitespace-collapsed.
func FeatureBlocks(doc *goquery.Document) []string {
	var blocks []string
	doc.Find(FeatureBlockSelector).Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	return blocks
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
