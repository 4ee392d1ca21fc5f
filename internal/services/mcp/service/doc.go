// Package service wires the MCP protocol transport to domain handlers.
//
// It is the transport adapter layer: the package knows how to run MCP over
// stdio and how to hold the process-wide session, and delegates business
// meaning to the domain handlers.
package service
