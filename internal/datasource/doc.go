// Package datasource loads the data behind effect parameters: transmission
// curves, flat fields, detector maps.
//
// A source comes from exactly one origin: a file path, an in-memory Table, or
// a list of equally long columns. The format is decided once, at construction,
// and fixes the concrete type:
//
//   - *TabularSource: whitespace-delimited text tables (parsed eagerly, with
//     YAML `key: value` comment lines merged into the metadata), literal
//     tables and column arrays.
//   - *SegmentedSource: FITS files. Every HDU header is harvested when the
//     file is opened; table and image payloads are decoded only when Get asks
//     for them.
//
// A SegmentedSource keeps its file handle open until Close. Use wraps the
// open/close pair for callers that only need the data inside one function.
package datasource
