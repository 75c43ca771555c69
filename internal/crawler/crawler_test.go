package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/jmylchreest/stayscout/internal/advisor"
	"github.com/jmylchreest/stayscout/pkg/fetcher"
	"github.com/jmylchreest/stayscout/pkg/listing"
	"github.com/jmylchreest/stayscout/pkg/llm"
)

const detailTemplate = `<html><head><title>%[1]s</title></head><body>
<h1>%[1]s</h1>
<div data-section-id="DESCRIPTION_DEFAULT"><p>%[1]s 설명</p></div>
<p>2 침실 · 1 침대</p>
<img src="https://img.test/%[2]s/1.jpg">
<img src="https://img.test/bad.jpg">
<img src="http://insecure.test/x.jpg">
</body></html>`

func detailPage(title, id string) string {
	return fmt.Sprintf(detailTemplate, title, id)
}

// fakeFetcher serves search markup for search URLs and per-URL detail markup.
type fakeFetcher struct {
	search  string
	searchE error
	pages   map[string]string
	errs    map[string]error
	calls   []string
	opts    []fetcher.Options
}

func (f *fakeFetcher) Fetch(_ context.Context, u string, opts fetcher.Options) (fetcher.Content, error) {
	f.calls = append(f.calls, u)
	f.opts = append(f.opts, opts)
	if strings.Contains(u, "/s/") {
		if f.searchE != nil {
			return fetcher.Content{}, f.searchE
		}
		return fetcher.Content{URL: u, HTML: f.search, StatusCode: http.StatusOK}, nil
	}
	if err, ok := f.errs[u]; ok {
		return fetcher.Content{}, err
	}
	page, ok := f.pages[u]
	if !ok {
		return fetcher.Content{}, fmt.Errorf("%w: unexpected url %s", fetcher.ErrNavigation, u)
	}
	return fetcher.Content{URL: u, HTML: page, StatusCode: http.StatusOK}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

// badImageProber rejects one image URL.
type badImageProber struct{}

func (badImageProber) Probe(_ context.Context, u string) listing.ProbeResult {
	if strings.HasSuffix(u, "/bad.jpg") {
		return listing.ProbeResult{URL: u, Status: http.StatusNotFound}
	}
	return listing.ProbeResult{URL: u, OK: true, Status: http.StatusOK}
}

type stubProvider struct {
	reply    string
	err      error
	requests []llm.Request
}

func (s *stubProvider) Execute(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.reply}, nil
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-1" }

const (
	room101 = "https://www.airbnb.co.kr/rooms/101?adults=1&check_in=2025-03-03"
	room102 = "https://www.airbnb.co.kr/rooms/102?adults=1"
	room103 = "https://www.airbnb.co.kr/rooms/103"
	room104 = "https://www.airbnb.co.kr/rooms/104"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Pace = 0
	cfg.Settle = 0
	cfg.AnalyzeImages = false
	return cfg
}

func newSearchFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{
		search: readTestdata(t, "search.html"),
		pages: map[string]string{
			room101: detailPage("Room 101", "101"),
			room102: detailPage("Room 102", "102"),
			room103: detailPage("Room 103", "103"),
			room104: detailPage("Room 104", "104"),
		},
		errs: map[string]error{},
	}
}

func TestCrawler_Run_LimitsListings(t *testing.T) {
	f := newSearchFetcher(t)
	c := New(f, listing.NewValidityFilter(badImageProber{}), nil, testConfig())

	results, err := c.Run(context.Background(), "강릉")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantCalls := []string{room101, room102, room103}
	if !reflect.DeepEqual(f.calls[1:], wantCalls) {
		t.Errorf("detail fetches = %v, want %v", f.calls[1:], wantCalls)
	}
	if !strings.Contains(f.calls[0], "/s/%EA%B0%95%EB%A6%89/homes") {
		t.Errorf("search url = %q", f.calls[0])
	}

	if f.opts[0].WaitForSelector != SearchReadySelector || f.opts[1].WaitForSelector != DetailReadySelector {
		t.Errorf("ready selectors = %q, %q", f.opts[0].WaitForSelector, f.opts[1].WaitForSelector)
	}

	r := results[0]
	if !r.OK() {
		t.Fatalf("result not ok: %+v", r.Outcome)
	}
	if r.Title != "Room 101" || r.SourceURL != room101 {
		t.Errorf("record = %+v", r.Record)
	}
	if r.BedroomCount != "2" || r.BedCount != "1" || r.BathroomCount != listing.NoInfo {
		t.Errorf("counts = %s/%s/%s", r.BedroomCount, r.BedCount, r.BathroomCount)
	}
	if r.ImageCount != 2 {
		t.Errorf("ImageCount = %d, want 2", r.ImageCount)
	}
	if !reflect.DeepEqual(r.ImageURLs, []string{"https://img.test/101/1.jpg"}) {
		t.Errorf("ImageURLs = %v", r.ImageURLs)
	}
	if r.Outcome.ImageSource != listing.SourceTags {
		t.Errorf("ImageSource = %q", r.Outcome.ImageSource)
	}
	if r.ImageAnalysis != "" {
		t.Errorf("ImageAnalysis should be empty when analysis is off, got %q", r.ImageAnalysis)
	}
}

func TestCrawler_Run_AllListings(t *testing.T) {
	f := newSearchFetcher(t)
	cfg := testConfig()
	cfg.MaxListings = 0

	results, err := New(f, listing.NewValidityFilter(badImageProber{}), nil, cfg).Run(context.Background(), "강릉")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 4 {
		t.Errorf("expected 4 results, got %d", len(results))
	}
}

func TestCrawler_Run_NavigationFailureSkips(t *testing.T) {
	f := newSearchFetcher(t)
	f.errs[room102] = fmt.Errorf("%w: timeout waiting for selector", fetcher.ErrNavigation)

	results, err := New(f, listing.NewValidityFilter(badImageProber{}), nil, testConfig()).Run(context.Background(), "강릉")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !results[0].OK() || !results[2].OK() {
		t.Errorf("neighbours of the failure should succeed: %+v / %+v", results[0].Outcome, results[2].Outcome)
	}

	failed := results[1]
	if failed.OK() || failed.Outcome.Status != StatusSkipped {
		t.Fatalf("expected skipped outcome, got %+v", failed.Outcome)
	}
	if !errors.Is(failed.Outcome.Err, fetcher.ErrNavigation) {
		t.Errorf("Outcome.Err = %v", failed.Outcome.Err)
	}
	if !strings.HasPrefix(failed.Outcome.Reason, "navigation: ") {
		t.Errorf("Reason = %q", failed.Outcome.Reason)
	}
	if failed.SourceURL != room102 {
		t.Errorf("skipped result should keep its URL, got %q", failed.SourceURL)
	}

	digests := Digests(results)
	if len(digests) != 2 || digests[0].URL != room101 || digests[1].URL != room103 {
		t.Errorf("Digests() = %+v", digests)
	}
}

func TestCrawler_Run_SearchFailure(t *testing.T) {
	f := newSearchFetcher(t)
	f.searchE = fmt.Errorf("%w: dns", fetcher.ErrNavigation)

	results, err := New(f, nil, nil, testConfig()).Run(context.Background(), "강릉")
	if err == nil {
		t.Fatal("expected error when the search page fails")
	}
	if !errors.Is(err, fetcher.ErrNavigation) {
		t.Errorf("error should wrap ErrNavigation: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestCrawler_Run_NoListings(t *testing.T) {
	f := &fakeFetcher{search: "<html><body>검색 결과 없음</body></html>"}

	results, err := New(f, nil, nil, testConfig()).Run(context.Background(), "제주")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestCrawler_Run_CancelledContext(t *testing.T) {
	f := newSearchFetcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f, nil, nil, testConfig()).Run(ctx, "강릉")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(f.calls) != 0 {
		t.Errorf("no page should be fetched, got %v", f.calls)
	}
}

func TestCrawler_Inspect_AnalyzesImages(t *testing.T) {
	f := newSearchFetcher(t)
	p := &stubProvider{reply: "밝은 원목 인테리어"}
	cfg := testConfig()
	cfg.AnalyzeImages = true

	r := New(f, listing.NewValidityFilter(badImageProber{}), advisor.New(p, advisor.Options{}), cfg).
		Inspect(context.Background(), room104)

	if !r.OK() {
		t.Fatalf("Inspect() outcome = %+v", r.Outcome)
	}
	if r.ImageAnalysis != "밝은 원목 인테리어" {
		t.Errorf("ImageAnalysis = %q", r.ImageAnalysis)
	}
	if len(p.requests) != 1 {
		t.Fatalf("provider requests = %d, want 1", len(p.requests))
	}
	if imgs := p.requests[0].Messages[0].Images; !reflect.DeepEqual(imgs, []string{"https://img.test/104/1.jpg"}) {
		t.Errorf("analysed images = %v, want only the valid one", imgs)
	}

	d := r.Digest()
	if d.Title != "Room 104" || d.URL != room104 || d.ImageAnalysis != r.ImageAnalysis {
		t.Errorf("Digest() = %+v", d)
	}
}

func TestCrawler_Inspect_LLMFields(t *testing.T) {
	f := newSearchFetcher(t)
	p := &stubProvider{reply: `{"bedrooms": "9", "beds": "9", "bathrooms": "2", "property_features": "조용함"}`}
	cfg := testConfig()
	cfg.LLMFields = true

	r := New(f, listing.NewValidityFilter(badImageProber{}), advisor.New(p, advisor.Options{}), cfg).
		Inspect(context.Background(), room101)

	if r.BedroomCount != "2" || r.BedCount != "1" {
		t.Errorf("page counts must win: %s/%s", r.BedroomCount, r.BedCount)
	}
	if r.BathroomCount != "2" {
		t.Errorf("BathroomCount = %q, want LLM value", r.BathroomCount)
	}
	if len(p.requests) != 1 || !p.requests[0].JSONMode {
		t.Errorf("expected one JSON-mode request, got %+v", p.requests)
	}
}

func TestCrawler_Inspect_PageTooLarge(t *testing.T) {
	f := newSearchFetcher(t)
	cfg := testConfig()
	cfg.MaxPageBytes = 64

	r := New(f, listing.NewValidityFilter(badImageProber{}), nil, cfg).Inspect(context.Background(), room101)

	if r.OK() {
		t.Fatal("expected oversized page to be skipped")
	}
	if !errors.Is(r.Outcome.Err, ErrPageTooLarge) {
		t.Errorf("Outcome.Err = %v", r.Outcome.Err)
	}
	if !strings.HasPrefix(r.Outcome.Reason, "size: ") {
		t.Errorf("Reason = %q", r.Outcome.Reason)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxListings != 3 {
		t.Errorf("MaxListings = %d, want 3", cfg.MaxListings)
	}
	if !cfg.AnalyzeImages || cfg.LLMFields {
		t.Errorf("AnalyzeImages/LLMFields = %v/%v", cfg.AnalyzeImages, cfg.LLMFields)
	}
	if cfg.SearchBase != DefaultSearchBase {
		t.Errorf("SearchBase = %q", cfg.SearchBase)
	}
}
