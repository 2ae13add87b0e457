// Package definition loads simulation definitions from disk into the
// format-agnostic Model: an ordered list of element definitions plus the
// property blocks that seed the system state.
//
// Two formats are understood, chosen by file extension. YAML files
// (.yaml, .yml) hold one element per document:
//
//	name: detector
//	alias: DET
//	properties:
//	  pixel_scale: 0.004
//	effects:
//	  - name: exposure
//	    kind: auto_exposure
//	    parameters:
//	      fill_frac: 0.75
//	---
//	alias: OBS
//	properties:
//	  dit: 60
//	  ndit: 1
//
// HCL files (.hcl) use element and properties blocks:
//
//	properties "OBS" {
//	  dit  = 60
//	  ndit = 1
//	}
//
//	element "detector" {
//	  alias      = "DET"
//	  properties = { pixel_scale = 0.004 }
//
//	  effect "auto_exposure" "exposure" {
//	    fill_frac = 0.75
//	  }
//	}
//
// Directories are walked and their files loaded in lexical order; elements
// keep the order in which they were read.
package definition
