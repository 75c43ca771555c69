// Package output writes crawl results for the crawl and inspect commands.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/stayscout/internal/crawler"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// Formats lists the accepted --output values.
var Formats = []Format{FormatText, FormatJSON, FormatJSONL, FormatYAML}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Writer serializes crawl results.
type Writer interface {
	// Write outputs a single result.
	Write(r crawler.Result) error

	// WriteAll outputs multiple results.
	WriteAll(rs []crawler.Result) error

	// Flush ensures all data is written.
	Flush() error

	// Close flushes once; later calls do nothing.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty     bool
	indent     string
	skipFailed bool
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithSkipFailed drops results whose listing was skipped.
func WithSkipFailed(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.skipFailed = enabled
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var out Writer
	switch format {
	case FormatJSON:
		out = NewJSONWriter(w, cfg.pretty, cfg.indent)
	case FormatJSONL:
		out = NewJSONLWriter(w)
	case FormatYAML:
		out = NewYAMLWriter(w)
	case FormatText:
		out = NewTextWriter(w)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if cfg.skipFailed {
		out = &okOnly{Writer: out}
	}
	return out, nil
}

// okOnly passes through successful results only.
type okOnly struct {
	Writer
}

func (o *okOnly) Write(r crawler.Result) error {
	if !r.OK() {
		return nil
	}
	return o.Writer.Write(r)
}

func (o *okOnly) WriteAll(rs []crawler.Result) error {
	for _, r := range rs {
		if err := o.Write(r); err != nil {
			return err
		}
	}
	return nil
}
