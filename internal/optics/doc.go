// Package optics assembles effects into the simulation pipeline.
//
// A Manager holds an ordered list of Elements (one per group definition, in
// definition order), each holding an ordered list of effects. Run threads an
// image plane through every included effect, element by element. All
// parameter resolution goes through the run's sysstate.Store, so an effect
// sees every store write made by the effects before it.
//
// Lookup accepts three kinds of key:
//
//	detector                        element name
//	auto_exposure                   effect name, first match in element order
//	#auto_exposure.fill_frac        parameter of the first effect so named
//	#detector.auto_exposure.mindit  parameter of an effect in one element
//
// The two-segment address form is rejected when its first segment names an
// element, since it could mean either.
package optics
