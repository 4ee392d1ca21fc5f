package domain

import (
	"context"
	"sync"

	"github.com/audiograph/studio-mcp/internal/auth/token"
	"github.com/audiograph/studio-mcp/internal/studio"
)

// autoLayoutSpacing is the horizontal distance between auto-placed entities.
const autoLayoutSpacing = 120

// SyncedDocument is the slice of a live synced document the tool handlers
// depend on.
type SyncedDocument interface {
	ProjectRef() string
	Connected() bool
	OnConnectionChange(fn func(connected bool)) (cancel func())
	Modify(ctx context.Context, fn func(tx *studio.Transaction) error) error
	QueryEntities(ctx context.Context) ([]studio.Entity, error)
	Stop() error
}

// StudioGateway opens authenticated synced documents.
type StudioGateway interface {
	// OpenManagedDocument builds a refreshing token source from cred, opens
	// the project's document, and starts its sync. The document may not be
	// connected yet when this returns.
	OpenManagedDocument(ctx context.Context, cred token.Credential, projectRef string) (SyncedDocument, error)

	// OpenLegacyDocument opens and starts a document using static
	// login-status authorization. The token is never refreshed.
	OpenLegacyDocument(ctx context.Context, projectRef string) (SyncedDocument, error)
}

// Session is the handle to the currently open document. The server holds at
// most one; opening a new document replaces it and stops the previous sync.
type Session struct {
	ProjectRef string
	Document   SyncedDocument
}

// AutoLayout hands out default canvas placements for entities created
// without explicit coordinates. The counter spans the whole process so two
// auto-placed entities never share a spot, even across sessions.
type AutoLayout struct {
	mu     sync.Mutex
	placed int
}

// Next returns the coordinates for the next auto-placed entity and advances
// the counter.
func (l *AutoLayout) Next() (x, y float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	x = float64(l.placed * autoLayoutSpacing)
	l.placed++
	return x, 0
}
