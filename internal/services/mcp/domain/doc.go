// Package domain translates MCP tool calls into studio document operations.
//
// The package is intentionally explicit about that mapping:
// - validate tool arguments against the device catalog and current session,
// - route mutations to the synced document as single atomic transactions,
// - and surface structured outputs that MCP clients can render.
//
// Handlers depend on narrow interfaces (SyncedDocument, StudioGateway) so
// every path can be exercised without a real sync connection.
package domain
