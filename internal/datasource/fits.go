package datasource

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/astrogo/fitsio"
	"github.com/specialistvlad/lightpath/internal/simerr"
)

// ErrClosed is returned by a SegmentedSource used after Close.
var ErrClosed = errors.New("datasource: source is closed")

// SegmentedSource is an open FITS file. Open indexes the segments and
// decodes their headers; the data of a segment is read from disk only when
// Get asks for it.
type SegmentedSource struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	segments []segment
	meta     map[string]any
	headers  []map[string]any
	closed   bool
}

func openSegmented(path string, meta map[string]any) (*SegmentedSource, error) {
	const op = "datasource.Open"
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	segs, err := indexSegments(f, info.Size())
	if err != nil {
		f.Close()
		return nil, simerr.Wrap(simerr.ErrFormat, err, op, path)
	}
	headers, err := decodeHeaders(segs)
	if err != nil {
		f.Close()
		return nil, simerr.Wrap(simerr.ErrFormat, err, op, path)
	}

	src := &SegmentedSource{path: path, file: f, segments: segs, headers: headers}
	src.meta = baseMeta(path, meta)
	if len(src.headers) > 0 {
		maps.Copy(src.meta, src.headers[0])
	}
	appendHistory(src.meta, fmt.Sprintf("Opened handle to FITS file %s", path))
	return src, nil
}

// Meta implements Source.
func (s *SegmentedSource) Meta() map[string]any { return s.meta }

// Headers implements Source.
func (s *SegmentedSource) Headers() []map[string]any { return s.headers }

// NumSegments returns the number of HDUs in the file.
func (s *SegmentedSource) NumSegments() int { return len(s.headers) }

// GetOption tunes a Get call.
type GetOption func(*getOptions)

type getOptions struct {
	layer    int
	hasLayer bool
}

// WithLayer selects one 2-D slice along the leading axis of a cube segment.
// It has no effect on 2-D images and tables.
func WithLayer(i int) GetOption {
	return func(o *getOptions) {
		o.layer = i
		o.hasLayer = true
	}
}

// Get decodes segment ext. Table segments give a *Table, image segments an
// *Array, and an image segment without data gives a nil Payload.
func (s *SegmentedSource) Get(ext int, opts ...GetOption) (Payload, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if ext < 0 || ext >= len(s.headers) {
		return nil, simerr.Address("datasource.Get", fmt.Sprint(ext), "file %s has %d segments", s.path, len(s.headers))
	}

	ff, idx, err := s.segments[ext].open(s.file)
	if err != nil {
		return nil, simerr.Wrap(simerr.ErrFormat, err, "datasource.Get", s.path)
	}
	defer ff.Close()

	hdu := ff.HDU(idx)
	switch hdu.Type() {
	case fitsio.BINARY_TBL, fitsio.ASCII_TBL:
		tbl, ok := hdu.(*fitsio.Table)
		if !ok {
			return nil, simerr.Format("datasource.Get", s.path, "segment %d is not a table", ext)
		}
		return readTable(tbl)
	case fitsio.IMAGE_HDU:
		img, ok := hdu.(fitsio.Image)
		if !ok {
			return nil, simerr.Format("datasource.Get", s.path, "segment %d is not an image", ext)
		}
		arr, err := readImage(img)
		if err != nil || arr == nil {
			return nil, err
		}
		if o.hasLayer && arr.NDim() == 3 {
			return arr.Layer(o.layer)
		}
		return arr, nil
	default:
		return nil, simerr.Format("datasource.Get", s.path, "segment %d has unsupported type %v", ext, hdu.Type())
	}
}

// Data implements Source by scanning the segments in order.
func (s *SegmentedSource) Data() (Payload, error) {
	for ext := range s.headers {
		p, err := s.Get(ext)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, nil
}

// Close implements Source.
func (s *SegmentedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

func readImage(img fitsio.Image) (*Array, error) {
	axes := img.Header().Axes()
	if len(axes) == 0 {
		return nil, nil
	}
	n := 1
	for _, dim := range axes {
		n *= dim
	}
	if n == 0 {
		return nil, nil
	}

	data := make([]float64, n)
	if err := img.Read(&data); err != nil {
		return nil, simerr.Wrap(simerr.ErrFormat, err, "datasource.Get", img.Name())
	}

	// FITS lists the fastest axis first.
	shape := slices.Clone(axes)
	slices.Reverse(shape)
	return &Array{Shape: shape, Data: data}, nil
}

func readTable(tbl *fitsio.Table) (*Table, error) {
	fcols := tbl.Cols()
	cols := make([]Column, len(fcols))
	for i, c := range fcols {
		cols[i] = Column{Name: c.Name, Unit: c.Unit}
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, simerr.Wrap(simerr.ErrFormat, err, "datasource.Get", tbl.Name())
	}
	defer rows.Close()

	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.Scan(&row); err != nil {
			return nil, simerr.Wrap(simerr.ErrFormat, err, "datasource.Get", tbl.Name())
		}
		for i := range cols {
			cols[i].Values = append(cols[i].Values, normalizeCell(row[cols[i].Name]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, simerr.Wrap(simerr.ErrFormat, err, "datasource.Get", tbl.Name())
	}

	t, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	t.Meta = headerMap(tbl.Header())
	return t, nil
}
