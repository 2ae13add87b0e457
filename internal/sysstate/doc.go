// Package sysstate provides the per-run system state: a mutable, hierarchical
// key/value store that effects read and write while the pipeline runs.
//
// Paths are dot-separated (`OBS.dit`). Effect parameters may hold references
// (`!OBS.dit`) instead of literals; Resolve swaps a reference for the value it
// names at the moment of the call, which is how a value computed by one effect
// (for example the auto-exposure integration time) reaches the effects that
// run after it.
//
// # Scope
//
// A Store belongs to one run and is passed explicitly to everything that
// needs it; there is no package-level instance. The store still guards its
// tree with a sync.RWMutex so a Store shared by mistake stays consistent.
package sysstate
