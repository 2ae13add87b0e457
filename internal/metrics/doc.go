// Package metrics holds the Prometheus instrumentation of a simulation run:
// per-effect counters and durations, and per-run totals. Every Metrics value
// owns a private registry, so parallel tests and several managers in one
// process never collide on registration.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics
