package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/require"
)

// HDU describes one segment of a FITS fixture.
type HDU interface {
	hdu()
}

// ImageHDU is an image segment. Shape is row-major ({ny, nx} or {nz, ny, nx});
// an empty Shape writes a header-only segment.
type ImageHDU struct {
	Cards []fitsio.Card
	Shape []int
	Data  []float64
}

func (ImageHDU) hdu() {}

// TableHDU is a binary table segment of float64 columns.
type TableHDU struct {
	Name    string
	Columns []string
	Rows    [][]float64
}

func (TableHDU) hdu() {}

// WriteFITS writes the segments to name inside a temporary directory and
// returns the path. A header-only primary is prepended when the first
// segment is not an image.
func WriteFITS(t *testing.T, name string, hdus ...HDU) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	f, err := fitsio.Create(w)
	require.NoError(t, err)

	if len(hdus) == 0 {
		hdus = []HDU{ImageHDU{}}
	}
	if _, ok := hdus[0].(ImageHDU); !ok {
		hdus = append([]HDU{ImageHDU{}}, hdus...)
	}

	for _, h := range hdus {
		switch h := h.(type) {
		case ImageHDU:
			writeImage(t, f, h)
		case TableHDU:
			writeTable(t, f, h)
		}
	}
	require.NoError(t, f.Close())
	return path
}

func writeImage(t *testing.T, f *fitsio.File, h ImageHDU) {
	t.Helper()
	axes := slices.Clone(h.Shape)
	slices.Reverse(axes)

	bitpix := -64
	if len(axes) == 0 {
		bitpix = 8
	}
	img := fitsio.NewImage(bitpix, axes)
	defer img.Close()

	if len(h.Cards) > 0 {
		require.NoError(t, img.Header().Append(h.Cards...))
	}
	if len(axes) > 0 {
		require.NoError(t, img.Write(h.Data))
	}
	require.NoError(t, f.Write(img))
}

func writeTable(t *testing.T, f *fitsio.File, h TableHDU) {
	t.Helper()
	cols := make([]fitsio.Column, len(h.Columns))
	for i, name := range h.Columns {
		cols[i] = fitsio.Column{Name: name, Format: "D"}
	}
	tbl, err := fitsio.NewTable(h.Name, cols, fitsio.BINARY_TBL)
	require.NoError(t, err)
	defer tbl.Close()

	for _, row := range h.Rows {
		require.Len(t, row, len(cols))
		args := make([]any, len(row))
		for i := range row {
			v := row[i]
			args[i] = &v
		}
		require.NoError(t, tbl.Write(args...))
	}
	require.NoError(t, f.Write(tbl))
}
