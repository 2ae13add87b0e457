// Package imageplane defines the image plane threaded through the effect
// pipeline: a 2-D float64 array plus an ordered FITS-style header, and the
// detector geometry from which an empty plane is laid out.
package imageplane
