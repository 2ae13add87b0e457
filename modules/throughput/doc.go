// Package throughput implements transmission curves: the combined
// transmission/emission/reflection curve of a surface, the detector quantum
// efficiency curve and filter curves.
//
// A curve is a table with a "wavelength" and a "transmission" column, taken
// from a file (text or FITS table), from an array_dict parameter, or from a
// table handed in directly. Applied to the image plane it scales every pixel
// by the mean transmission over the simulated band
// [SIM.spectral.wave_min, SIM.spectral.wave_max]. Outside its own wavelength
// range a curve transmits nothing.
package throughput
