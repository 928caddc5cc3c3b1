// Package domain defines the core business entities for dcgraph.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DateRange / Observation: partial-date intervals and time-series points
//   - ObservationAPIResponse: the typed shape of an upstream observation payload
//   - ObservationToolResponse: the place-keyed structure returned to tool callers
//   - TopicStore: the immutable topic/variable taxonomy snapshot
//   - SearchTask / SearchResponse: indicator-search inputs and outputs
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
