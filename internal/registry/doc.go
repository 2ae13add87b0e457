// Package registry maps the kind tags used in definition files (e.g.
// "auto_exposure") to the Go constructors that build those effects.
//
// Effect packages expose a Module whose Register method adds their kinds.
// Registering the same kind twice is a programmer error and panics. The
// registry can be validated against a set of loaded definitions before any
// effect is constructed, so that every unknown kind is reported at once
// instead of failing on the first.
package registry
