package imageplane

import (
	"fmt"
	"io"

	"github.com/astrogo/fitsio"
)

// structural cards are written by fitsio itself.
var structural = map[string]bool{
	"SIMPLE": true, "BITPIX": true, "NAXIS": true, "NAXIS1": true,
	"NAXIS2": true, "EXTEND": true, "END": true,
}

// WriteFITS writes the plane as a single-HDU FITS file with BITPIX -64.
func (p *ImagePlane) WriteFITS(w io.Writer) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("imageplane.WriteFITS: %w", err)
	}

	img := fitsio.NewImage(-64, []int{p.Width, p.Height})
	defer img.Close()

	var cards []fitsio.Card
	for _, c := range p.Header.Cards() {
		if structural[c.Name] {
			continue
		}
		c.Value = fitsValue(c.Value)
		cards = append(cards, c)
	}
	if err := img.Header().Append(cards...); err != nil {
		return fmt.Errorf("imageplane.WriteFITS: header: %w", err)
	}
	if err := img.Write(p.Data); err != nil {
		return fmt.Errorf("imageplane.WriteFITS: data: %w", err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("imageplane.WriteFITS: %w", err)
	}
	return f.Close()
}

// fitsValue narrows a card value to the types FITS cards can hold.
func fitsValue(v any) any {
	switch t := v.(type) {
	case string, bool, int, float64:
		return t
	case int64:
		return int(t)
	case float32:
		return float64(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
