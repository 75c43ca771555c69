package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize/english"

	"github.com/jmylchreest/stayscout/internal/crawler"
)

// TextWriter prints a readable report, one block per listing, as results
// arrive.
type TextWriter struct {
	w *bufio.Writer
	n int
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write prints one listing.
func (w *TextWriter) Write(r crawler.Result) error {
	w.n++
	b := w.w

	fmt.Fprintf(b, "[%d] ", w.n)
	if !r.OK() {
		fmt.Fprintf(b, "건너뜀 %s\n    %s\n\n", r.SourceURL, r.Outcome.Reason)
		return b.Flush()
	}

	fmt.Fprintf(b, "%s\n    %s\n", r.Title, r.SourceURL)
	fmt.Fprintf(b, "    침실 %s · 침대 %s · 욕실 %s\n", r.BedroomCount, r.BedCount, r.BathroomCount)
	fmt.Fprintf(b, "    %s (%d found, source %s)\n",
		english.Plural(len(r.ImageURLs), "valid photo", "valid photos"), r.ImageCount, r.Outcome.ImageSource)
	if len(r.ImageURLs) > 0 {
		fmt.Fprintf(b, "    대표 이미지: %s\n", r.ImageURLs[0])
	}
	if r.Description != "" {
		writeIndented(b, "설명", r.Description)
	}
	if r.PropertyFeatures != "" {
		writeIndented(b, "특징", r.PropertyFeatures)
	}
	if r.ImageAnalysis != "" {
		writeIndented(b, "AI 분석", r.ImageAnalysis)
	}
	b.WriteString("\n")
	return b.Flush()
}

func writeIndented(b *bufio.Writer, label, text string) {
	fmt.Fprintf(b, "    %s:\n", label)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fmt.Fprintf(b, "      %s\n", line)
	}
}

// WriteAll prints every listing.
func (w *TextWriter) WriteAll(rs []crawler.Result) error {
	for _, r := range rs {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *TextWriter) Close() error {
	return w.Flush()
}
