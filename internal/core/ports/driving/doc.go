// Package driving defines the interfaces through which the outside world
// drives the core: the MCP tool adapter and the CLI call these, and the
// service layer implements them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
