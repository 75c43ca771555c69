package advisor

import (
	"fmt"
	"strings"
)

const imagePrompt = "아래 이미지들을 분석한 결과, 이미지에 담긴 인테리어 디자인의 핵심 요소(예: 조명, 레이아웃, 색 구성, 분위기 등)," +
	"숙소의 방(침실), 침대, 욕실 등 주요 시설의 개수를 구분하며 숙소의 특징을 간략하게 요약해줘. " +
	"또한 같은 장소에 대해 여러 사진이 있다고 생각되면 이는 하나의 공간으로 생각해야돼 " +
	" 만약 여러 이미지가 있다면 개별 설명 없이 한 번에 종합해서 제공해줘. " +
	"숙소와 관련 없는 이미지는 무시해도 돼."

const detailsPromptHead = "다음 숙소 정보를 아래 형식의 JSON으로 추출해줘. " +
	"숫자 정보가 나타나지 않으면 '정보 없음'이라고 표기해줘.\n\n" +
	"형식:\n" +
	"{\n" +
	`  "bedrooms": "<침실 수 혹은 '정보 없음'>",` + "\n" +
	`  "beds": "<침대 수 혹은 '정보 없음'>",` + "\n" +
	`  "bathrooms": "<욕실 수 혹은 '정보 없음'>",` + "\n" +
	`  "property_features": "<최대 300자 내 숙소 설명>"` + "\n" +
	"}\n\n"

const (
	summaryHead = "다음은 Airbnb 숙소 옵션들의 정보입니다:\n\n"
	summaryTail = "위 정보를 바탕으로 각 숙소 옵션의 주요 특징, 장단점 및 종합 평가를 포함하여, " +
		"간결하게 5줄 이내로 요약 및 정리해 줘."

	recommendHead = "다음은 Airbnb 숙소 옵션들의 요약 정보입니다:\n\n"
	recommendTail = "각 숙소의 상세 이미지 분석 결과(인테리어 디자인, 조명, 레이아웃, 색 구성, 분위기 등 및 방, 침대, 욕실 등 주요시설 개수)가 포함되어 있습니다. " +
		"이 분석 내용을 바탕으로 숙소의 주요 특징, 장단점, 잠재적인 문제점까지 자세하게 평가하고 추천해 주세요. " +
		"이미지 분석 결과를 충분히 반영해 상세한 평가를 5줄 이내로 작성해 주세요."
)

// Placeholders used in the summary prompt for missing listing data.
const (
	noDescription = "설명 없음"
	noURL         = "URL 정보 없음"
	noAnalysis    = "이미지 분석 정보 없음"
)

// BuildDetailsPrompt asks for the counts and features of one listing, using
// at most limit runes of page text.
func BuildDetailsPrompt(pageText string, limit int) string {
	var prompt strings.Builder
	prompt.WriteString(detailsPromptHead)
	prompt.WriteString("페이지 텍스트:\n")
	prompt.WriteString(truncateRunes(pageText, limit))
	prompt.WriteString("\n")
	return prompt.String()
}

// BuildSummaryPrompt lists every listing with its image analysis and asks for
// a short comparative summary.
func BuildSummaryPrompt(listings []Digest) string {
	var prompt strings.Builder
	prompt.WriteString(summaryHead)
	for i, l := range listings {
		fmt.Fprintf(&prompt, "%d. 제목: %s\n", i+1, l.Title)
		fmt.Fprintf(&prompt, "   설명: %s\n", orDefault(l.Description, noDescription))
		fmt.Fprintf(&prompt, "   URL: %s\n", orDefault(l.URL, noURL))
		fmt.Fprintf(&prompt, "   이미지 분석: %s\n\n", orDefault(l.ImageAnalysis, noAnalysis))
	}
	prompt.WriteString(summaryTail)
	return prompt.String()
}

// BuildRecommendPrompt asks for an evaluation and recommendation based on a
// summary produced by BuildSummaryPrompt.
func BuildRecommendPrompt(summary string) string {
	return recommendHead + summary + "\n\n" + recommendTail
}

// StripMarkdownCodeBlock removes markdown code block wrappers from JSON responses.
// Some models wrap their JSON output in ```json ... ``` blocks.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}

	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
