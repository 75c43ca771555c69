package listing

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractFields_Counts(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		bedrooms  string
		beds      string
		bathrooms string
	}{
		{
			name:      "all labels present",
			text:      "2 침실, 3 침대, 1 욕실",
			bedrooms:  "2",
			beds:      "3",
			bathrooms: "1",
		},
		{
			name:      "no labels",
			text:      "바다 전망의 아늑한 숙소",
			bedrooms:  NoInfo,
			beds:      NoInfo,
			bathrooms: NoInfo,
		},
		{
			name:      "no space, decimal bathrooms keep trailing digits",
			text:      "최대 인원 4명 · 2침실 · 2침대 · 1.5욕실",
			bedrooms:  "2",
			beds:      "2",
			bathrooms: "5",
		},
		{
			name:      "first match wins",
			text:      "1 침실 ... 나중에 3 침실 이라고 적혀 있음",
			bedrooms:  "1",
			beds:      NoInfo,
			bathrooms: NoInfo,
		},
		{
			name:      "non-breaking space separator",
			text:      "2\u00a0침실",
			bedrooms:  "2",
			beds:      NoInfo,
			bathrooms: NoInfo,
		},
		{
			name:      "counts are independent",
			text:      "욕실 없음, 12 침대",
			bedrooms:  NoInfo,
			beds:      "12",
			bathrooms: NoInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFields(tt.text, nil)
			if got.Bedrooms != tt.bedrooms {
				t.Errorf("Bedrooms = %q, want %q", got.Bedrooms, tt.bedrooms)
			}
			if got.Beds != tt.beds {
				t.Errorf("Beds = %q, want %q", got.Beds, tt.beds)
			}
			if got.Bathrooms != tt.bathrooms {
				t.Errorf("Bathrooms = %q, want %q", got.Bathrooms, tt.bathrooms)
			}
		})
	}
}

func TestExtractFields_FeaturesFromBlocks(t *testing.T) {
	got := ExtractFields("ignored page text", []string{"오션뷰 테라스", "  ", "무료 주차"})
	if got.Features != "오션뷰 테라스\n무료 주차" {
		t.Errorf("Features = %q", got.Features)
	}
}

func TestExtractFields_FeaturesFallbackTruncates(t *testing.T) {
	text := strings.Repeat("가", 500)
	got := ExtractFields(text, nil)

	if !strings.HasSuffix(got.Features, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got.Features)
	}
	body := strings.TrimSuffix(got.Features, "...")
	if n := utf8.RuneCountInString(body); n != FallbackFeatureRunes {
		t.Errorf("fallback features has %d runes, want %d", n, FallbackFeatureRunes)
	}
}

func TestExtractFields_FeaturesFallbackShortText(t *testing.T) {
	got := ExtractFields("짧은 설명", nil)
	if got.Features != "짧은 설명..." {
		t.Errorf("Features = %q", got.Features)
	}
}

func TestExtractFields_Idempotent(t *testing.T) {
	text := "3 침실 2 침대 2 욕실 - 조용한 동네"
	blocks := []string{"주방", "세탁기"}

	first := ExtractFields(text, blocks)
	second := ExtractFields(text, blocks)
	if first != second {
		t.Errorf("ExtractFields not idempotent: %+v vs %+v", first, second)
	}
}

func TestFields_HasAllCounts(t *testing.T) {
	if (Fields{Bedrooms: "1", Beds: "1", Bathrooms: NoInfo}).HasAllCounts() {
		t.Error("expected false when a count is the sentinel")
	}
	if !(Fields{Bedrooms: "1", Beds: "2", Bathrooms: "1"}).HasAllCounts() {
		t.Error("expected true when all counts are set")
	}
}
