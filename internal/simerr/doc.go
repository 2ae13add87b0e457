// Package simerr defines the error kinds shared by the simulation core.
//
// Every failure the core reports belongs to one of four kinds, matched with
// errors.Is against the sentinel values:
//
//   - ErrConfigKey: a system-state path that does not exist.
//   - ErrAddress: an unknown, duplicate or malformed element/effect lookup.
//   - ErrFormat: an unrecognised or internally inconsistent data source or definition.
//   - ErrInvalidParameter: a numeric input outside an effect's valid domain.
//
// Concrete errors are *Error values that carry the failing operation and key.
// None of the kinds is retried; they abort the run that produced them.
package simerr
