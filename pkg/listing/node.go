package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Kind tags the shape of a Node.
type Kind int

const (
	KindScalar Kind = iota
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// Entry is one key/value pair of a mapping, kept in source order.
type Entry struct {
	Key   string
	Value Node
}

// Node is a tagged variant over decoded page data. Exactly one of Entries
// (mapping), Items (sequence) or Value (scalar) is meaningful, selected by Kind.
type Node struct {
	Kind    Kind
	Entries []Entry
	Items   []Node
	Value   any
}

// Mapping builds a mapping node.
func Mapping(entries ...Entry) Node { return Node{Kind: KindMapping, Entries: entries} }

// Sequence builds a sequence node.
func Sequence(items ...Node) Node { return Node{Kind: KindSequence, Items: items} }

// Scalar builds a scalar node.
func Scalar(v any) Node { return Node{Kind: KindScalar, Value: v} }

// Get returns the first value stored under key in a mapping.
func (n Node) Get(key string) (Node, bool) {
	if n.Kind != KindMapping {
		return Node{}, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Node{}, false
}

// Index returns the i-th element of a sequence.
func (n Node) Index(i int) (Node, bool) {
	if n.Kind != KindSequence || i < 0 || i >= len(n.Items) {
		return Node{}, false
	}
	return n.Items[i], true
}

// Text returns the scalar value if it is a string.
func (n Node) Text() (string, bool) {
	if n.Kind != KindScalar {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// ErrStateShape reports page data that does not have the expected structure.
var ErrStateShape = errors.New("unexpected page data shape")

// Descend follows a path of mapping keys (string) and sequence indexes (int).
func (n Node) Descend(path ...any) (Node, error) {
	cur := n
	for depth, step := range path {
		var (
			next Node
			ok   bool
		)
		switch s := step.(type) {
		case string:
			next, ok = cur.Get(s)
		case int:
			next, ok = cur.Index(s)
		}
		if !ok {
			return Node{}, fmt.Errorf("%w: step %d (%v) not found in %s", ErrStateShape, depth, step, cur.Kind)
		}
		cur = next
	}
	return cur, nil
}

// NodeFromJSON decodes a JSON document into a Node, preserving object key order.
func NodeFromJSON(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	n, err := decodeNode(dec)
	if err != nil {
		return Node{}, fmt.Errorf("decode page data: %w", err)
	}
	return n, nil
}

// NodeFromString is NodeFromJSON over a string.
func NodeFromString(s string) (Node, error) {
	return NodeFromJSON(strings.NewReader(s))
}

func decodeNode(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return Scalar(tok), nil
	}

	switch delim {
	case '{':
		n := Node{Kind: KindMapping}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return Node{}, err
			}
			key, _ := kt.(string)
			v, err := decodeNode(dec)
			if err != nil {
				return Node{}, err
			}
			n.Entries = append(n.Entries, Entry{Key: key, Value: v})
		}
		if _, err := dec.Token(); err != nil {
			return Node{}, err
		}
		return n, nil
	case '[':
		n := Node{Kind: KindSequence}
		for dec.More() {
			v, err := decodeNode(dec)
			if err != nil {
				return Node{}, err
			}
			n.Items = append(n.Items, v)
		}
		if _, err := dec.Token(); err != nil {
			return Node{}, err
		}
		return n, nil
	default:
		return Node{}, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// NodeFromValue converts an already decoded value (map[string]any, []any and
// scalars) into a Node. Map keys are sorted since Go maps carry no order.
// Anything else becomes a scalar and is skipped by traversals.
func NodeFromValue(v any) Node {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := Node{Kind: KindMapping, Entries: make([]Entry, 0, len(keys))}
		for _, k := range keys {
			n.Entries = append(n.Entries, Entry{Key: k, Value: NodeFromValue(t[k])})
		}
		return n
	case []any:
		n := Node{Kind: KindSequence, Items: make([]Node, 0, len(t))}
		for _, item := range t {
			n.Items = append(n.Items, NodeFromValue(item))
		}
		return n
	default:
		return Scalar(v)
	}
}
