package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/stayscout/internal/crawler"
)

// JSONWriter buffers results and writes them on Flush: one result as an
// object, anything else as an array.
type JSONWriter struct {
	w       *bufio.Writer
	pretty  bool
	indent  string
	items   []crawler.Result
	flushed bool
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		items:  make([]crawler.Result, 0),
	}
}

// Write buffers a single result.
func (w *JSONWriter) Write(r crawler.Result) error {
	w.items = append(w.items, r)
	return nil
}

// WriteAll buffers every result.
func (w *JSONWriter) WriteAll(rs []crawler.Result) error {
	w.items = append(w.items, rs...)
	return nil
}

// Flush writes the buffered results.
func (w *JSONWriter) Flush() error {
	var v any = w.items
	if len(w.items) == 1 {
		v = w.items[0]
	}

	var output []byte
	var err error
	if w.pretty {
		output, err = json.MarshalIndent(v, "", w.indent)
	} else {
		output, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	w.flushed = true
	return w.w.Flush()
}

// Close flushes unless Flush already ran.
func (w *JSONWriter) Close() error {
	if w.flushed {
		return nil
	}
	return w.Flush()
}

// JSONLWriter writes one JSON object per line as results arrive.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a single result as a JSON line.
func (w *JSONLWriter) Write(r crawler.Result) error {
	output, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	return w.w.Flush()
}

// WriteAll writes every result as a JSON line.
func (w *JSONLWriter) WriteAll(rs []crawler.Result) error {
	for _, r := range rs {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
