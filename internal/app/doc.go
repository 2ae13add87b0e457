// Package app wires a simulation run together: it loads the definition
// files, builds the system state and the optics manager, runs the pipeline
// and writes the resulting image plane. It is decoupled from any specific
// entrypoint like a CLI.
package app
