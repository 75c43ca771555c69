package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/pkg/listing"
)

func okResult(title, url string) crawler.Result {
	return crawler.Result{
		Record: listing.Record{
			SourceURL:     url,
			Title:         title,
			ImageURLs:     []string{"https://img/1.jpg", "https://img/2.jpg"},
			ImageCount:    3,
			BedroomCount:  "2",
			BedCount:      "3",
			BathroomCount: listing.NoInfo,
		},
		ImageAnalysis: "밝은 거실",
		Outcome:       crawler.Outcome{Status: crawler.StatusOK, ImageSource: listing.SourceEmbedded},
	}
}

func skippedResult(url string) crawler.Result {
	err := errors.New("navigation failed: timeout")
	return crawler.Result{
		Record:  listing.Record{SourceURL: url},
		Outcome: crawler.Outcome{Status: crawler.StatusSkipped, Reason: "navigation: " + err.Error(), Err: err},
	}
}

// --- NewWriter Factory Tests ---

func TestNewWriter_Types(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "*output.JSONWriter"},
		{FormatJSONL, "*output.JSONLWriter"},
		{FormatYAML, "*output.YAMLWriter"},
		{FormatText, "*output.TextWriter"},
	}
	for _, tt := range tests {
		w, err := NewWriter(&bytes.Buffer{}, tt.format)
		if err != nil {
			t.Fatalf("NewWriter(%s) error = %v", tt.format, err)
		}
		if got := typeName(w); got != tt.want {
			t.Errorf("NewWriter(%s) = %s, want %s", tt.format, got, tt.want)
		}
	}
}

func typeName(w Writer) string {
	switch w.(type) {
	case *JSONWriter:
		return "*output.JSONWriter"
	case *JSONLWriter:
		return "*output.JSONLWriter"
	case *YAMLWriter:
		return "*output.YAMLWriter"
	case *TextWriter:
		return "*output.TextWriter"
	case *okOnly:
		return "*output.okOnly"
	}
	return "unknown"
}

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, Format("csv"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected error containing 'unsupported', got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, " YAML ": FormatYAML, "Text": FormatText, "jsonl": FormatJSONL} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

// --- JSONWriter Tests ---

func TestJSONWriter_SingleResultIsObject(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")

	if err := w.Write(okResult("바다 숙소", "https://a/rooms/1")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v\n%s", err, buf.String())
	}

	if got["title"] != "바다 숙소" || got["source_url"] != "https://a/rooms/1" {
		t.Errorf("record fields not inlined: %v", got)
	}
	if got["image_count"] != float64(3) || got["bathroom_count"] != listing.NoInfo {
		t.Errorf("counts = %v / %v", got["image_count"], got["bathroom_count"])
	}
	if got["image_analysis"] != "밝은 거실" {
		t.Errorf("image_analysis = %v", got["image_analysis"])
	}
	outcome, _ := got["outcome"].(map[string]any)
	if outcome["status"] != "ok" || outcome["image_source"] != "embedded" {
		t.Errorf("outcome = %v", got["outcome"])
	}
}

func TestJSONWriter_MultipleResultsAreArray(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	rs := []crawler.Result{okResult("a", "https://a/rooms/1"), skippedResult("https://a/rooms/2")}
	if err := w.WriteAll(rs); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected compact single-line output, got %d lines", len(lines))
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	outcome := got[1]["outcome"].(map[string]any)
	if outcome["status"] != "skipped" || !strings.HasPrefix(outcome["reason"].(string), "navigation") {
		t.Errorf("skipped outcome = %v", outcome)
	}
	if _, ok := outcome["Err"]; ok {
		t.Error("error value must not be serialized")
	}
}

func TestJSONWriter_EmptyIsArray(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSONWriter(buf, true, "  ").Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestJSONWriter_FlushThenCloseWritesOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")
	_ = w.Write(okResult("a", "https://a/rooms/1"))

	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("expected one document, got %d lines: %q", n, buf.String())
	}
}

func TestJSONWriter_CustomIndent(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, FormatJSON, WithIndent("\t"))
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	_ = w.Write(okResult("a", "https://a/rooms/1"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n\t\"title\"") {
		t.Errorf("expected tab indentation, got %q", buf.String())
	}
}

// --- JSONLWriter Tests ---

func TestJSONLWriter_OneLinePerResult(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf)

	if err := w.WriteAll([]crawler.Result{okResult("a", "https://a/rooms/1"), okResult("b", "https://a/rooms/2")}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		var item map[string]any
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

// --- YAMLWriter Tests ---

func TestYAMLWriter_SingleResult(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)

	if err := w.Write(okResult("바다 숙소", "https://a/rooms/1")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if got["title"] != "바다 숙소" || got["bed_count"] != "3" {
		t.Errorf("record fields not inlined: %v", got)
	}
	if _, ok := got["image_urls"].([]any); !ok {
		t.Errorf("image_urls = %v", got["image_urls"])
	}
}

func TestYAMLWriter_MultipleResults(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)

	_ = w.Write(okResult("a", "https://a/rooms/1"))
	_ = w.Write(skippedResult("https://a/rooms/2"))
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v\n%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
}

// --- TextWriter Tests ---

func TestTextWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTextWriter(buf)

	ok := okResult("바다 숙소", "https://a/rooms/1")
	ok.PropertyFeatures = "셀프 체크인\n무료 주차"
	if err := w.WriteAll([]crawler.Result{ok, skippedResult("https://a/rooms/2")}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[1] 바다 숙소\n",
		"침실 2 · 침대 3 · 욕실 정보 없음",
		"2 valid photos (3 found, source embedded)",
		"대표 이미지: https://img/1.jpg",
		"      셀프 체크인\n      무료 주차\n",
		"AI 분석:\n      밝은 거실",
		"[2] 건너뜀 https://a/rooms/2",
		"navigation: navigation failed: timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// --- Options ---

func TestWithSkipFailed(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, FormatJSONL, WithSkipFailed(true))
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	rs := []crawler.Result{skippedResult("https://a/rooms/1"), okResult("b", "https://a/rooms/2")}
	if err := w.WriteAll(rs); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "rooms/2") {
		t.Errorf("expected only the parsed listing, got %q", buf.String())
	}
}

func TestWriterOptions(t *testing.T) {
	cfg := &writerConfig{pretty: true}
	WithPretty(false)(cfg)
	WithIndent("\t")(cfg)
	WithSkipFailed(true)(cfg)

	if cfg.pretty || cfg.indent != "\t" || !cfg.skipFailed {
		t.Errorf("config = %+v", cfg)
	}
}
