package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionResourcePayload represents the MCP resource payload for the current session.
type SessionResourcePayload struct {
	Session struct {
		ProjectRef *string `json:"projectRef"`
		Connected  bool    `json:"connected"`
	} `json:"session"`
}

// SessionResource defines the MCP resource for the current session.
func SessionResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "session_current",
		Title:       "Current Session",
		Description: "Readable current session state (projectRef, connected)",
		MIMEType:    "application/json",
		URI:         "session://current",
	}
}

// SessionResourceHandler returns a readable current session resource.
func SessionResourceHandler(getSession func() *Session) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if getSession == nil {
			return nil, fmt.Errorf("session getter function is not configured")
		}

		uri := SessionResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != SessionResource().URI {
			return nil, fmt.Errorf("invalid URI: expected %s, got %q", SessionResource().URI, uri)
		}

		payload := SessionResourcePayload{}
		if session := getSession(); session != nil {
			ref := session.ProjectRef
			payload.Session.ProjectRef = &ref
			if session.Document != nil {
				payload.Session.Connected = session.Document.Connected()
			}
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal session: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
