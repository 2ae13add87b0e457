// Package effect defines the unit of the simulation pipeline.
//
// An Effect is a named, parameterised step applied to the image plane. It is
// built once from a Definition (an already parsed mapping; where it came from
// is the definition loader's business) and never changes shape afterwards.
// Its parameter values are kept raw: a value may be a literal or a system-state
// reference such as "!OBS.dit", and it is resolved against the run's
// sysstate.Store every time the effect reads it. An effect reading "!OBS.dit"
// therefore sees whatever an earlier effect wrote there in the same run.
//
// Concrete kinds live under modules/ and embed Base, which implements the
// naming, metadata and parameter plumbing shared by all of them.
package effect
