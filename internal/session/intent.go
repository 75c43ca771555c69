package session

import (
	"regexp"
	"strings"
)

// DefaultLocation is searched when a prompt names nothing usable.
const DefaultLocation = "서울"

var (
	bookingKeywords = []string{"예약"}
	searchKeywords  = []string{"크롤링", "검색", "숙소"}

	// KnownCities are matched anywhere in a prompt before falling back to
	// its first word.
	KnownCities = []string{"강릉", "서울", "부산", "제주", "대전", "대구", "광주", "인천"}

	wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// IsBooking reports whether prompt asks to book a listing.
func IsBooking(prompt string) bool {
	return containsAny(prompt, bookingKeywords)
}

// IsSearch reports whether prompt asks for a listing search.
func IsSearch(prompt string) bool {
	return containsAny(prompt, searchKeywords)
}

// ExtractLocation picks the location to search for: the earliest known city
// in prompt, otherwise its first word, otherwise DefaultLocation.
func ExtractLocation(prompt string) string {
	best, at := "", -1
	for _, city := range KnownCities {
		if i := strings.Index(prompt, city); i >= 0 && (at < 0 || i < at) {
			best, at = city, i
		}
	}
	if at >= 0 {
		return best
	}
	if word := wordRe.FindString(prompt); word != "" {
		return word
	}
	return DefaultLocation
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
