package imageplane

import (
	"fmt"
	"math"
	"slices"

	"github.com/specialistvlad/lightpath/internal/datasource"
	"github.com/specialistvlad/lightpath/internal/simerr"
)

// ImagePlane is a row-major Width x Height array of per-pixel values plus its
// header. Effects receive it by pointer and may modify it in place.
type ImagePlane struct {
	Header Header
	Width  int
	Height int
	Data   []float64
}

// New returns a zero-filled plane.
func New(width, height int) (*ImagePlane, error) {
	if width <= 0 || height <= 0 {
		return nil, simerr.InvalidParameter("imageplane.New", fmt.Sprintf("%dx%d", width, height), "dimensions must be positive")
	}
	var h Header
	h.Set("NAXIS", 2, "")
	h.Set("NAXIS1", width, "")
	h.Set("NAXIS2", height, "")
	return &ImagePlane{Header: h, Width: width, Height: height, Data: make([]float64, width*height)}, nil
}

// FromHeader returns a zero-filled plane sized by the NAXIS1/NAXIS2 cards,
// keeping the header.
func FromHeader(h Header) (*ImagePlane, error) {
	w, okW := h.Int("NAXIS1")
	ht, okH := h.Int("NAXIS2")
	if !okW || !okH {
		return nil, simerr.Format("imageplane.FromHeader", "NAXIS", "header lacks integer NAXIS1/NAXIS2")
	}
	p, err := New(w, ht)
	if err != nil {
		return nil, err
	}
	p.Header = h.Clone()
	return p, nil
}

// FromArray wraps a 2-D array, copying its data.
func FromArray(a *datasource.Array) (*ImagePlane, error) {
	if a == nil || a.NDim() != 2 {
		return nil, simerr.Format("imageplane.FromArray", "", "need a 2-D array")
	}
	p, err := New(a.Shape[1], a.Shape[0])
	if err != nil {
		return nil, err
	}
	copy(p.Data, a.Data)
	return p, nil
}

// At returns the value at column x, row y.
func (p *ImagePlane) At(x, y int) float64 {
	return p.Data[y*p.Width+x]
}

// Set stores v at column x, row y.
func (p *ImagePlane) Set(x, y int, v float64) {
	p.Data[y*p.Width+x] = v
}

// Max returns the largest pixel value, or -Inf for an empty plane.
func (p *ImagePlane) Max() float64 {
	m := math.Inf(-1)
	for _, v := range p.Data {
		m = math.Max(m, v)
	}
	return m
}

// Sum returns the total of all pixels.
func (p *ImagePlane) Sum() float64 {
	var s float64
	for _, v := range p.Data {
		s += v
	}
	return s
}

// Map replaces every pixel v with fn(v).
func (p *ImagePlane) Map(fn func(v float64) float64) {
	for i, v := range p.Data {
		p.Data[i] = fn(v)
	}
}

// Scale multiplies every pixel by f.
func (p *ImagePlane) Scale(f float64) {
	p.Map(func(v float64) float64 { return v * f })
}

// Add adds c to every pixel.
func (p *ImagePlane) Add(c float64) {
	p.Map(func(v float64) float64 { return v + c })
}

// Clone returns a deep copy.
func (p *ImagePlane) Clone() *ImagePlane {
	return &ImagePlane{
		Header: p.Header.Clone(),
		Width:  p.Width,
		Height: p.Height,
		Data:   slices.Clone(p.Data),
	}
}
