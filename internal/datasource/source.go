package datasource

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/specialistvlad/lightpath/internal/simerr"
)

// Source is the common surface of *TabularSource and *SegmentedSource.
type Source interface {
	// Meta returns the merged metadata: defaults, caller metadata and
	// whatever the origin carried (comment block or primary header).
	Meta() map[string]any
	// Headers returns one metadata map per segment; nil entries mean the
	// segment had none.
	Headers() []map[string]any
	// Data returns the default payload: the table of a tabular source, or
	// the first non-empty segment of a segmented one.
	Data() (Payload, error)
	// Close releases any handle held by the source. It is idempotent.
	Close() error
}

// fitsSuffixes are the file name suffixes that must hold FITS content.
var fitsSuffixes = []string{".fits", ".fit", ".fts"}

// sniffLen is how much of a file is inspected to classify it.
const sniffLen = 512

// Open loads the file at path, choosing the concrete source by content.
// meta is merged over the defaults before the file's own metadata.
func Open(path string, meta map[string]any) (Source, error) {
	segmented, err := classify(path)
	if err != nil {
		return nil, err
	}
	if segmented {
		return openSegmented(path, meta)
	}
	return openText(path, meta)
}

// Use opens path, hands the source to fn and closes it on every exit path.
func Use(path string, meta map[string]any, fn func(Source) error) (err error) {
	src, err := Open(path, meta)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()
	return fn(src)
}

// classify reports whether path holds FITS (segmented) content. Text that is
// not valid UTF-8, or that contains NUL bytes, is rejected.
func classify(path string) (segmented bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	head = head[:n]

	isFITS := bytes.HasPrefix(head, []byte("SIMPLE  ="))
	wantsFITS := slices.Contains(fitsSuffixes, strings.ToLower(filepath.Ext(path)))
	switch {
	case isFITS:
		return true, nil
	case wantsFITS:
		return false, simerr.Format("datasource.Open", path, "file name suggests FITS but the content has no SIMPLE card")
	case n == 0:
		return false, simerr.Format("datasource.Open", path, "file is empty")
	case bytes.IndexByte(head, 0) >= 0 || !validUTF8Prefix(head, n == sniffLen):
		return false, simerr.Format("datasource.Open", path, "content is neither FITS nor text")
	}
	return false, nil
}

// validUTF8Prefix tolerates a rune cut in half by the sniff window.
func validUTF8Prefix(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return true
		}
	}
	return false
}

// FromTable wraps a table that already lives in memory.
func FromTable(t *Table, meta map[string]any) (*TabularSource, error) {
	if t == nil {
		return nil, simerr.Format("datasource.FromTable", "", "table is nil")
	}
	m := baseMeta("", meta)
	maps.Copy(m, t.Meta)
	appendHistory(m, "Table added directly")
	return &TabularSource{table: t, meta: m, headers: []map[string]any{maps.Clone(t.Meta)}}, nil
}

// FromArrays builds a table from columns of one common length, keeping the
// given column order.
func FromArrays(cols []Column, meta map[string]any) (*TabularSource, error) {
	if len(cols) == 0 {
		return nil, simerr.Format("datasource.FromArrays", "", "no columns given")
	}
	t, err := NewTable(slices.Clone(cols)...)
	if err != nil {
		return nil, err
	}
	m := baseMeta("", meta)
	appendHistory(m, "Table generated from arrays")
	maps.Copy(t.Meta, m)
	return &TabularSource{table: t, meta: m, headers: []map[string]any{nil}}, nil
}

// FromArrayMap builds a table from a name -> values mapping, as found in
// parsed definitions. Columns follow order, then the remaining names sorted.
// Values must be numeric lists.
func FromArrayMap(arrays map[string]any, meta map[string]any, order ...string) (*TabularSource, error) {
	names := slices.Clone(order)
	for _, name := range slices.Sorted(maps.Keys(arrays)) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	cols := make([]Column, 0, len(names))
	for _, name := range names {
		raw, ok := arrays[name]
		if !ok {
			return nil, simerr.Format("datasource.FromArrayMap", name, "column named in order is missing")
		}
		values, err := toFloats(raw)
		if err != nil {
			return nil, simerr.Wrap(simerr.ErrFormat, err, "datasource.FromArrayMap", name)
		}
		cols = append(cols, FloatColumn(name, values))
	}
	return FromArrays(cols, meta)
}

func toFloats(raw any) ([]float64, error) {
	switch t := raw.(type) {
	case []float64:
		return slices.Clone(t), nil
	case []any:
		out := make([]float64, len(t))
		for i, v := range t {
			f, ok := ToFloat(v)
			if !ok {
				return nil, errors.New("array holds a non-numeric value")
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, errors.New("value is not a list")
	}
}

// baseMeta returns the default metadata every source starts from.
func baseMeta(filename string, extra map[string]any) map[string]any {
	m := map[string]any{
		"filename":    filename,
		"description": "",
		"name":        "<empty>",
		"history":     []any{},
	}
	maps.Copy(m, extra)
	// A caller-supplied history must not be shared with the caller.
	if h, ok := m["history"].([]any); ok {
		m["history"] = slices.Clone(h)
	}
	return m
}

func appendHistory(m map[string]any, entry string) {
	h, _ := m["history"].([]any)
	m["history"] = append(h, entry)
}
