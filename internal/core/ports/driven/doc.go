// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - StatClient: the statistics-backend capability (observation fetch,
//     place resolution, entity metadata, indicator search). Implemented by
//     the single-backend client and by the two-backend merging client.
//   - TopicNodeFetcher: batch topic-node lookup used by the live
//     topic-store builder.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
