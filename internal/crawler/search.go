package crawler

import (
	"net/url"
	"strings"
)

// DefaultSearchBase is the rental site the crawler searches.
const DefaultSearchBase = "https://www.airbnb.co.kr"

// searchParams are the fixed query parameters of a homes search without dates.
const searchParams = "?refinement_paths%5B%5D=%2Fhomes" +
	"&flexible_trip_lengths%5B%5D=one_week" +
	"&monthly_start_date=" +
	"&monthly_length=3" +
	"&monthly_end_date=" +
	"&price_filter_input_type=0" +
	"&channel=EXPLORE" +
	"&search_type=search_query" +
	"&price_filter_num_nights=1" +
	"&date_picker_type=calendar" +
	"&checkin=" +
	"&checkout=" +
	"&source=structured_search_input_header"

// SearchURL builds the homes search URL for location on base.
func SearchURL(base, location string) string {
	if base == "" {
		base = DefaultSearchBase
	}
	base = strings.TrimRight(base, "/")
	return base + "/s/" + url.PathEscape(strings.TrimSpace(location)) + "/homes" + searchParams
}
