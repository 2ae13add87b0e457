package datasource

import (
	"os"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDetectorFile(t *testing.T) string {
	t.Helper()
	return testutil.WriteFITS(t, "detector.fits",
		testutil.ImageHDU{Cards: []fitsio.Card{{Name: "INSTRUME", Value: "MICADO"}}},
		testutil.ImageHDU{
			Cards: []fitsio.Card{{Name: "EXTNAME", Value: "FLAT"}},
			Shape: []int{2, 3},
			Data:  []float64{1, 2, 3, 4, 5, 6},
		},
		testutil.ImageHDU{
			Cards: []fitsio.Card{{Name: "EXTNAME", Value: "CUBE"}},
			Shape: []int{2, 2, 2},
			Data:  []float64{1, 2, 3, 4, 10, 20, 30, 40},
		},
		testutil.TableHDU{
			Name:    "QE",
			Columns: []string{"wavelength", "transmission"},
			Rows:    [][]float64{{0.8, 0.5}, {2.5, 0.9}},
		},
	)
}

func TestOpen_Segmented(t *testing.T) {
	path := writeDetectorFile(t)

	src, err := Open(path, nil)
	require.NoError(t, err)
	defer src.Close()

	seg, ok := src.(*SegmentedSource)
	require.True(t, ok, "FITS files load as *SegmentedSource")
	assert.Equal(t, 4, seg.NumSegments())

	headers := seg.Headers()
	require.Len(t, headers, 4)
	assert.Equal(t, "MICADO", headers[0]["INSTRUME"])
	assert.Equal(t, "FLAT", headers[1]["EXTNAME"])
	assert.Equal(t, "CUBE", headers[2]["EXTNAME"])
	assert.Equal(t, "MICADO", src.Meta()["INSTRUME"], "primary header is merged into the metadata")
	assert.Equal(t, path, src.Meta()["filename"])
}

func TestSegmented_Get(t *testing.T) {
	src, err := Open(writeDetectorFile(t), nil)
	require.NoError(t, err)
	defer src.Close()
	seg := src.(*SegmentedSource)

	t.Run("empty primary", func(t *testing.T) {
		p, err := seg.Get(0)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("image", func(t *testing.T) {
		p, err := seg.Get(1)
		require.NoError(t, err)
		arr, ok := p.(*Array)
		require.True(t, ok)
		assert.Equal(t, []int{2, 3}, arr.Shape)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, arr.Data)
	})

	t.Run("image ignores layer", func(t *testing.T) {
		p, err := seg.Get(1, WithLayer(1))
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, p.(*Array).Shape)
	})

	t.Run("cube layer", func(t *testing.T) {
		p, err := seg.Get(2, WithLayer(1))
		require.NoError(t, err)
		arr := p.(*Array)
		assert.Equal(t, []int{2, 2}, arr.Shape)
		assert.Equal(t, []float64{10, 20, 30, 40}, arr.Data)
	})

	t.Run("whole cube", func(t *testing.T) {
		p, err := seg.Get(2)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 2}, p.(*Array).Shape)
	})

	t.Run("cube layer out of range", func(t *testing.T) {
		_, err := seg.Get(2, WithLayer(5))
		require.ErrorIs(t, err, simerr.ErrInvalidParameter)
	})

	t.Run("table", func(t *testing.T) {
		p, err := seg.Get(3)
		require.NoError(t, err)
		tbl, ok := p.(*Table)
		require.True(t, ok)
		assert.Equal(t, []string{"wavelength", "transmission"}, tbl.ColNames())
		trans, err := tbl.Floats("transmission")
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 0.9}, trans)
	})

	t.Run("segment out of range", func(t *testing.T) {
		_, err := seg.Get(9)
		require.ErrorIs(t, err, simerr.ErrAddress)
	})
}

func TestSegmented_ReadsDataOnGet(t *testing.T) {
	// --- Arrange ---
	path := writeDetectorFile(t)
	src, err := Open(path, nil)
	require.NoError(t, err)
	defer src.Close()
	seg := src.(*SegmentedSource)

	// Rewrite the open file in place with the same layout but new pixels.
	replacement := testutil.WriteFITS(t, "replacement.fits",
		testutil.ImageHDU{Cards: []fitsio.Card{{Name: "INSTRUME", Value: "MICADO"}}},
		testutil.ImageHDU{
			Cards: []fitsio.Card{{Name: "EXTNAME", Value: "FLAT"}},
			Shape: []int{2, 3},
			Data:  []float64{7, 7, 7, 7, 7, 7},
		},
	)
	raw, err := os.ReadFile(replacement)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	// --- Act ---
	p, err := seg.Get(1)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7, 7, 7, 7}, p.(*Array).Data)
	assert.Equal(t, 4, seg.NumSegments(), "headers stay as indexed at open")
}

func TestSegmented_HeadersKeepRealSizes(t *testing.T) {
	src, err := Open(writeDetectorFile(t), nil)
	require.NoError(t, err)
	defer src.Close()

	headers := src.Headers()
	assert.Equal(t, 3, headers[1]["NAXIS1"])
	assert.Equal(t, 2, headers[1]["NAXIS2"])
	assert.Equal(t, 2, headers[3]["NAXIS2"], "table row count")
}

func TestOpen_TruncatedSegmented(t *testing.T) {
	path := writeDetectorFile(t)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-blockSize], 0o600))

	_, err = Open(path, nil)
	require.ErrorIs(t, err, simerr.ErrFormat)
}

func TestSegmented_DataSkipsEmptySegments(t *testing.T) {
	src, err := Open(writeDetectorFile(t), nil)
	require.NoError(t, err)
	defer src.Close()

	p, err := src.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, p.(*Array).Data)
}

func TestSegmented_CloseIsIdempotent(t *testing.T) {
	src, err := Open(writeDetectorFile(t), nil)
	require.NoError(t, err)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err = src.Data()
	require.ErrorIs(t, err, ErrClosed)
}

func TestArray_Layer(t *testing.T) {
	img := &Array{Shape: []int{2, 2}, Data: []float64{1, 2, 3, 4}}
	_, err := img.Layer(0)
	require.ErrorIs(t, err, simerr.ErrInvalidParameter)
}
