package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/audiograph/studio-mcp/internal/services/mcp/domain"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

func registerSessionTools(
	registrar mcpRegistrationTarget,
	gateway domain.StudioGateway,
	defaultProjectURL string,
	setSession func(*domain.Session),
	notify domain.ResourceUpdateNotifier,
	log zerolog.Logger,
) error {
	if err := registerTool(registrar, domain.InitializeSessionTool(), domain.InitializeSessionHandler(gateway, setSession, notify, log)); err != nil {
		return err
	}
	return registerTool(registrar, domain.OpenDocumentTool(), domain.OpenDocumentHandler(gateway, defaultProjectURL, setSession, notify, log))
}

func registerEntityTools(
	registrar mcpRegistrationTarget,
	getSession func() *domain.Session,
	layout *domain.AutoLayout,
	log zerolog.Logger,
) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.AddEntityTool(), handler: domain.AddEntityHandler(getSession, layout, log)},
		{tool: domain.RemoveEntityTool(), handler: domain.RemoveEntityHandler(getSession)},
		{tool: domain.UpdateEntityValueTool(), handler: domain.UpdateEntityValueHandler(getSession)},
		{tool: domain.UpdateEntityPositionTool(), handler: domain.UpdateEntityPositionHandler(getSession)},
		{tool: domain.ListEntitiesTool(), handler: domain.ListEntitiesHandler(getSession)},
	}
	for _, registration := range registrations {
		if err := registerTool(registrar, registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerAdvisorTools(registrar mcpRegistrationTarget) error {
	return registerTool(registrar, domain.RecommendEntityForStyleTool(), domain.RecommendEntityForStyleHandler())
}

func registerSessionResources(registrar mcpRegistrationTarget, getSession func() *domain.Session) {
	registrar.AddResource(domain.SessionResource(), domain.SessionResourceHandler(getSession))
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}
