package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/audiograph/studio-mcp/internal/services/mcp/domain"
)

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(mcpRegistrationTarget) error
}

const (
	mcpSessionToolsModuleName    = "session-tools"
	mcpEntityToolsModuleName     = "entity-tools"
	mcpAdvisorToolsModuleName    = "advisor-tools"
	mcpSessionResourceModuleName = "session-resources"
)

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.InitializeSessionInput, domain.InitializeSessionResult](),
	newMCPToolRegistrar[domain.OpenDocumentInput, domain.OpenDocumentResult](),
	newMCPToolRegistrar[domain.AddEntityInput, domain.AddEntityResult](),
	newMCPToolRegistrar[domain.RemoveEntityInput, domain.RemoveEntityResult](),
	newMCPToolRegistrar[domain.UpdateEntityValueInput, domain.UpdateEntityValueResult](),
	newMCPToolRegistrar[domain.UpdateEntityPositionInput, domain.UpdateEntityPositionResult](),
	newMCPToolRegistrar[domain.ListEntitiesInput, domain.ListEntitiesResult](),
	newMCPToolRegistrar[domain.RecommendEntityForStyleInput, domain.RecommendEntityForStyleResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(
	server *Server,
	defaultProjectURL string,
	notify domain.ResourceUpdateNotifier,
) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpSessionToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerSessionTools(registrar, server.gateway, defaultProjectURL, server.setSession, notify, server.log)
			},
		},
		{
			name: mcpEntityToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerEntityTools(registrar, server.getSession, server.layout, server.log)
			},
		},
		{
			name: mcpAdvisorToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerAdvisorTools(registrar)
			},
		},
		{
			name: mcpSessionResourceModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerSessionResources(registrar, server.getSession)
				return nil
			},
		},
	}
}
