package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/audiograph/studio-mcp/internal/catalog"
)

// RecommendEntityForStyleInput represents the MCP tool input for a style recommendation.
type RecommendEntityForStyleInput struct {
	Description string `json:"description" jsonschema:"free-text description of the desired sound or style"`
}

// RecommendEntityForStyleResult represents the MCP tool output for a style recommendation.
type RecommendEntityForStyleResult struct {
	EntityType string `json:"entityType" jsonschema:"recommended device type from the catalog"`
	Reason     string `json:"reason" jsonschema:"why this device fits the described style"`
}

// RecommendEntityForStyleTool defines the MCP tool schema for a style recommendation.
func RecommendEntityForStyleTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recommend-entity-for-style",
		Description: "Suggests a device type for a described musical style. Always returns a recommendation; no document needs to be open.",
	}
}

// RecommendEntityForStyleHandler executes a style recommendation request.
func RecommendEntityForStyleHandler() mcp.ToolHandlerFor[RecommendEntityForStyleInput, RecommendEntityForStyleResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecommendEntityForStyleInput) (*mcp.CallToolResult, RecommendEntityForStyleResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, RecommendEntityForStyleResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		rec := catalog.Recommend(input.Description)
		result := RecommendEntityForStyleResult{EntityType: rec.EntityType, Reason: rec.Reason}
		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), result, nil
	}
}
