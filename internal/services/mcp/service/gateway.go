package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/audiograph/studio-mcp/internal/auth/token"
	"github.com/audiograph/studio-mcp/internal/services/mcp/domain"
	"github.com/audiograph/studio-mcp/internal/studio"
)

// studioGateway is the production StudioGateway. It builds a token source per
// open, hands it to a studio client, and starts the document's sync before
// returning.
type studioGateway struct {
	cfg        studio.AuthConfig
	httpClient *http.Client
}

func newStudioGateway(cfg studio.AuthConfig) *studioGateway {
	return &studioGateway{cfg: cfg, httpClient: http.DefaultClient}
}

func (g *studioGateway) OpenManagedDocument(ctx context.Context, cred token.Credential, projectRef string) (domain.SyncedDocument, error) {
	if cred.ClientID == "" {
		cred.ClientID = g.cfg.ClientID
	}
	manager, err := token.NewManager(cred, g.cfg.TokenURL, token.WithHTTPClient(g.httpClient))
	if err != nil {
		return nil, fmt.Errorf("build token manager: %w", err)
	}
	return g.open(ctx, manager, projectRef)
}

func (g *studioGateway) OpenLegacyDocument(ctx context.Context, projectRef string) (domain.SyncedDocument, error) {
	source, err := studio.LoginStatusSource(ctx, g.cfg, g.httpClient)
	if err != nil {
		return nil, fmt.Errorf("login-status authorization: %w", err)
	}
	return g.open(ctx, source, projectRef)
}

func (g *studioGateway) open(ctx context.Context, source studio.TokenSource, projectRef string) (domain.SyncedDocument, error) {
	client, err := studio.NewClient(g.cfg, source, studio.WithHTTPClient(g.httpClient))
	if err != nil {
		return nil, fmt.Errorf("build studio client: %w", err)
	}
	doc, err := client.OpenDocument(projectRef)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	if err := doc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start document sync: %w", err)
	}
	return doc, nil
}
