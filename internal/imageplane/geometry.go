package imageplane

import "math"

// Geometry is the on-sky footprint of a detector window. Offsets and pixel
// scale are in arcsec.
type Geometry struct {
	Width      int
	Height     int
	PixelScale float64
	XCenter    float64
	YCenter    float64
}

// Union returns the smallest footprint that covers every geometry, sampled
// at the finest pixel scale among them. Union of nothing is the zero Geometry.
func Union(gs ...Geometry) Geometry {
	if len(gs) == 0 {
		return Geometry{}
	}

	scale := math.Inf(1)
	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for _, g := range gs {
		scale = math.Min(scale, g.PixelScale)
		hw := float64(g.Width) * g.PixelScale / 2
		hh := float64(g.Height) * g.PixelScale / 2
		xmin, xmax = math.Min(xmin, g.XCenter-hw), math.Max(xmax, g.XCenter+hw)
		ymin, ymax = math.Min(ymin, g.YCenter-hh), math.Max(ymax, g.YCenter+hh)
	}

	return Geometry{
		Width:      pixels((xmax - xmin) / scale),
		Height:     pixels((ymax - ymin) / scale),
		PixelScale: scale,
		XCenter:    (xmin + xmax) / 2,
		YCenter:    (ymin + ymax) / 2,
	}
}

// pixels rounds an extent up to whole pixels, ignoring float noise.
func pixels(extent float64) int {
	return int(math.Ceil(extent - 1e-9))
}

// Header lays the geometry out as image-plane header cards.
func (g Geometry) Header(name string) Header {
	var h Header
	h.Set("IMGPLANE", name, "element the plane belongs to")
	h.Set("NAXIS", 2, "")
	h.Set("NAXIS1", g.Width, "")
	h.Set("NAXIS2", g.Height, "")
	h.Set("CTYPE1", "LINEAR", "")
	h.Set("CTYPE2", "LINEAR", "")
	h.Set("CUNIT1", "arcsec", "")
	h.Set("CUNIT2", "arcsec", "")
	h.Set("CDELT1", g.PixelScale, "[arcsec/pix]")
	h.Set("CDELT2", g.PixelScale, "[arcsec/pix]")
	h.Set("CRPIX1", float64(g.Width+1)/2, "")
	h.Set("CRPIX2", float64(g.Height+1)/2, "")
	h.Set("CRVAL1", g.XCenter, "")
	h.Set("CRVAL2", g.YCenter, "")
	return h
}

// GeometryOf reads the footprint back from the plane's WCS cards. Missing
// cards fall back to a plane centred on the origin with the given scale.
func (p *ImagePlane) GeometryOf(defaultScale float64) Geometry {
	g := Geometry{Width: p.Width, Height: p.Height, PixelScale: defaultScale}
	if s, ok := p.Header.Float("CDELT1"); ok && s > 0 {
		g.PixelScale = s
	}
	// CRVAL sits at CRPIX; shift it to the geometric centre.
	crpix1, ok1 := p.Header.Float("CRPIX1")
	crval1, ok2 := p.Header.Float("CRVAL1")
	if ok1 && ok2 {
		g.XCenter = crval1 + (float64(p.Width+1)/2-crpix1)*g.PixelScale
	}
	crpix2, ok1 := p.Header.Float("CRPIX2")
	crval2, ok2 := p.Header.Float("CRVAL2")
	if ok1 && ok2 {
		g.YCenter = crval2 + (float64(p.Height+1)/2-crpix2)*g.PixelScale
	}
	return g
}

// Extract samples the plane onto the footprint g by nearest neighbour.
// Window pixels falling outside the plane are zero. The result carries the
// header of g.
func (p *ImagePlane) Extract(g Geometry, name string) (*ImagePlane, error) {
	out, err := FromHeader(g.Header(name))
	if err != nil {
		return nil, err
	}
	src := p.GeometryOf(g.PixelScale)

	for j := 0; j < g.Height; j++ {
		wy := g.YCenter + (float64(j)-float64(g.Height-1)/2)*g.PixelScale
		sy := int(math.Floor((wy-src.YCenter)/src.PixelScale + float64(src.Height)/2))
		if sy < 0 || sy >= p.Height {
			continue
		}
		for i := 0; i < g.Width; i++ {
			wx := g.XCenter + (float64(i)-float64(g.Width-1)/2)*g.PixelScale
			sx := int(math.Floor((wx-src.XCenter)/src.PixelScale + float64(src.Width)/2))
			if sx < 0 || sx >= p.Width {
				continue
			}
			out.Set(i, j, p.At(sx, sy))
		}
	}
	return out, nil
}
