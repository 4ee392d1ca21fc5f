// Package mcp starts the MCP service with its studio dependencies.
package mcp

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/audiograph/studio-mcp/internal/services/mcp/service"
	"github.com/audiograph/studio-mcp/internal/studio"
)

// Run starts the MCP app over stdio with the provided studio configuration.
func Run(ctx context.Context, studioCfg studio.AuthConfig, log zerolog.Logger) error {
	return service.Run(ctx, service.Config{
		Studio: studioCfg,
		Log:    log,
	})
}
