// Package listing turns a rendered rental detail page into a normalized Record.
//
// The package is pure apart from the validity probes: field extraction, image
// discovery and assembly never fail, they degrade to sentinel values.
package listing

// Sentinel values used in place of absent data.
const (
	NoInfo  = "정보 없음" // count fields with no match
	NoTitle = "제목 없음" // title not found on the page
)

// SecureMarker is the substring every collected image URL must carry.
const SecureMarker = "https://"

// Record is one scraped accommodation. It is built in a single pass and not
// mutated afterwards.
type Record struct {
	SourceURL        string   `json:"source_url" yaml:"source_url"`
	Title            string   `json:"title" yaml:"title"`
	Description      string   `json:"description" yaml:"description"`
	ImageURLs        []string `json:"image_urls" yaml:"image_urls"`
	ImageCount       int      `json:"image_count" yaml:"image_count"`
	BedroomCount     string   `json:"bedroom_count" yaml:"bedroom_count"`
	BedCount         string   `json:"bed_count" yaml:"bed_count"`
	BathroomCount    string   `json:"bathroom_count" yaml:"bathroom_count"`
	PropertyFeatures string   `json:"property_features" yaml:"property_features"`
}

// PageMeta is what the caller already knows about a detail page before
// extraction runs.
type PageMeta struct {
	SourceURL   string
	Title       string
	Description string
}

// Fields is the Field Extractor output.
type Fields struct {
	Bedrooms  string
	Beds      string
	Bathrooms string
	Features  string
}

// HasAllCounts reports whether none of the count fields is the sentinel.
func (f Fields) HasAllCounts() bool {
	return f.Bedrooms != NoInfo && f.Beds != NoInfo && f.Bathrooms != NoInfo
}
