// Package detector implements the effects describing the detector itself:
// its on-sky window, which sizes the image plane, and its pixel-to-pixel
// response.
package detector
