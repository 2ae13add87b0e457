// Package electronic implements the detector-electronics effects: the
// auto-exposure solver and the effects that turn a rate image into counts
// (summed exposure, dark current, shot noise, readout noise, quantization).
//
// auto_exposure writes its result into the system state rather than into the
// image. Every effect downstream that refers to "!OBS.dit" or "!OBS.ndit"
// picks the solved values up at apply time.
package electronic
