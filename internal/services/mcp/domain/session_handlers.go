package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/audiograph/studio-mcp/internal/auth/token"
	"github.com/audiograph/studio-mcp/internal/studio"
)

// connectWaitTimeout bounds how long session initialization waits for the
// first sync handshake.
const connectWaitTimeout = 10 * time.Second

// InitializeSessionInput represents the MCP tool input for initializing a session.
type InitializeSessionInput struct {
	AccessToken  string  `json:"accessToken" jsonschema:"OAuth access token (required)"`
	ExpiresAt    float64 `json:"expiresAt,omitempty" jsonschema:"access token expiry as unix epoch milliseconds; inferred from the token itself when omitted"`
	RefreshToken string  `json:"refreshToken,omitempty" jsonschema:"OAuth refresh token; without it the session fails once the access token expires"`
	ClientID     string  `json:"clientId" jsonschema:"OAuth client identifier the tokens were issued to"`
	RedirectURL  string  `json:"redirectUrl,omitempty" jsonschema:"redirect URL of the OAuth client registration"`
	Scope        string  `json:"scope,omitempty" jsonschema:"scope granted to the access token"`
	ProjectURL   string  `json:"projectUrl" jsonschema:"project URL or bare project reference to open"`
}

// InitializeSessionResult represents the MCP tool output for initializing a session.
type InitializeSessionResult struct {
	ProjectRef string `json:"projectRef" jsonschema:"reference of the opened project"`
	Connected  bool   `json:"connected" jsonschema:"whether the sync connection is live"`
	Refreshing bool   `json:"refreshing" jsonschema:"whether the credential will be refreshed automatically"`
}

// InitializeSessionTool defines the MCP tool schema for initializing a session.
func InitializeSessionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "initialize-session",
		Description: "Opens a project document with a refreshing OAuth credential and waits for the sync connection to come up. Replaces any previously open document.",
	}
}

// InitializeSessionHandler executes a session initialization request.
// The handler needs access to the Server instance to replace session state,
// so it takes the gateway and a function to swap the server's session.
func InitializeSessionHandler(gateway StudioGateway, setSession func(*Session), notify ResourceUpdateNotifier, log zerolog.Logger) mcp.ToolHandlerFor[InitializeSessionInput, InitializeSessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InitializeSessionInput) (*mcp.CallToolResult, InitializeSessionResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, InitializeSessionResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		projectRef, err := studio.ParseProjectRef(input.ProjectURL)
		if err != nil {
			return nil, InitializeSessionResult{}, fmt.Errorf("session initialize failed: %w", err)
		}

		cred := token.Credential{
			AccessToken:  strings.TrimSpace(input.AccessToken),
			RefreshToken: strings.TrimSpace(input.RefreshToken),
			ClientID:     strings.TrimSpace(input.ClientID),
		}
		if cred.AccessToken == "" {
			return nil, InitializeSessionResult{}, fmt.Errorf("accessToken is required")
		}
		if input.ExpiresAt > 0 {
			cred.ExpiresAt = time.UnixMilli(int64(input.ExpiresAt))
		}

		doc, err := gateway.OpenManagedDocument(ctx, cred, projectRef)
		if err != nil {
			return nil, InitializeSessionResult{}, fmt.Errorf("session initialize failed: %w", err)
		}

		if err := studio.AwaitConnected(ctx, doc, connectWaitTimeout); err != nil {
			_ = doc.Stop()
			return nil, InitializeSessionResult{}, fmt.Errorf("session initialize failed: %w", err)
		}

		setSession(&Session{ProjectRef: projectRef, Document: doc})
		log.Info().
			Str("invocation_id", invocationID).
			Str("project_ref", projectRef).
			Bool("refreshing", cred.RefreshToken != "").
			Msg("session initialized")
		NotifyResourceUpdates(ctx, notify, SessionResource().URI)

		result := InitializeSessionResult{
			ProjectRef: projectRef,
			Connected:  doc.Connected(),
			Refreshing: cred.RefreshToken != "",
		}
		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), result, nil
	}
}

// OpenDocumentInput represents the MCP tool input for the legacy open path.
type OpenDocumentInput struct {
	ProjectURL string `json:"projectUrl,omitempty" jsonschema:"project URL or bare project reference; defaults to the configured project"`
}

// OpenDocumentResult represents the MCP tool output for the legacy open path.
type OpenDocumentResult struct {
	ProjectRef string `json:"projectRef" jsonschema:"reference of the opened project"`
	Connected  bool   `json:"connected" jsonschema:"whether the sync connection is already live; this path does not wait for it"`
}

// OpenDocumentTool defines the MCP tool schema for the legacy open path.
func OpenDocumentTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "open-document",
		Description: "Opens a project document using login-status authorization without waiting for connectivity. The token is never refreshed; prefer initialize-session for long sessions.",
	}
}

// OpenDocumentHandler executes a legacy document open request.
func OpenDocumentHandler(gateway StudioGateway, defaultProjectURL string, setSession func(*Session), notify ResourceUpdateNotifier, log zerolog.Logger) mcp.ToolHandlerFor[OpenDocumentInput, OpenDocumentResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OpenDocumentInput) (*mcp.CallToolResult, OpenDocumentResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, OpenDocumentResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		projectURL := strings.TrimSpace(input.ProjectURL)
		if projectURL == "" {
			projectURL = defaultProjectURL
		}
		projectRef, err := studio.ParseProjectRef(projectURL)
		if err != nil {
			return nil, OpenDocumentResult{}, fmt.Errorf("open document failed: %w", err)
		}

		doc, err := gateway.OpenLegacyDocument(ctx, projectRef)
		if err != nil {
			return nil, OpenDocumentResult{}, fmt.Errorf("open document failed: %w", err)
		}

		setSession(&Session{ProjectRef: projectRef, Document: doc})
		log.Info().
			Str("invocation_id", invocationID).
			Str("project_ref", projectRef).
			Msg("document opened without connectivity wait")
		NotifyResourceUpdates(ctx, notify, SessionResource().URI)

		result := OpenDocumentResult{ProjectRef: projectRef, Connected: doc.Connected()}
		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), result, nil
	}
}
