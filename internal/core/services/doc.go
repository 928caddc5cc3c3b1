// Package services implements the driving port interfaces.
// Services contain the core business logic: input validation, place
// resolution, primary-source selection, bilateral query expansion, and
// result merging. They orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no external I/O of their own.
package services
