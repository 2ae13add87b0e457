/*
Package keypath provides the hierarchical naming used across the simulation:
dot-separated paths into the system state (`OBS.dit`), system-state
references that name such a path instead of holding a value (`!OBS.dit`), and
manager addresses that name an effect parameter (`#element.effect.param`).

This package centralises the markers, segment validation and formatting, so
the store and the optics manager agree on what a well-formed key is.
*/
package keypath
