package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/stayscout/internal/crawler"
)

// YAMLWriter buffers results and writes them as one YAML document.
type YAMLWriter struct {
	w       *bufio.Writer
	items   []crawler.Result
	flushed bool
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:     bufio.NewWriter(w),
		items: make([]crawler.Result, 0),
	}
}

// Write buffers a single result.
func (w *YAMLWriter) Write(r crawler.Result) error {
	w.items = append(w.items, r)
	return nil
}

// WriteAll buffers every result.
func (w *YAMLWriter) WriteAll(rs []crawler.Result) error {
	w.items = append(w.items, rs...)
	return nil
}

// Flush writes the buffered results as YAML.
func (w *YAMLWriter) Flush() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	var err error
	if len(w.items) == 1 {
		err = encoder.Encode(w.items[0])
	} else {
		err = encoder.Encode(w.items)
	}
	if err != nil {
		return err
	}

	if err := encoder.Close(); err != nil {
		return err
	}

	w.flushed = true
	return w.w.Flush()
}

// Close flushes unless Flush already ran.
func (w *YAMLWriter) Close() error {
	if w.flushed {
		return nil
	}
	return w.Flush()
}
