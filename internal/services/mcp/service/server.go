package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/audiograph/studio-mcp/internal/services/mcp/domain"
	"github.com/audiograph/studio-mcp/internal/studio"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Audiograph Studio MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Config configures the MCP server.
type Config struct {
	Studio studio.AuthConfig
	Log    zerolog.Logger
}

// Server hosts the MCP server and the process-wide session state.
type Server struct {
	mcpServer *mcp.Server
	gateway   domain.StudioGateway
	layout    *domain.AutoLayout
	log       zerolog.Logger

	sessionMu sync.RWMutex
	session   *domain.Session
}

// New creates a configured MCP server backed by the studio sync gateway.
func New(cfg Config) (*Server, error) {
	return newServer(newStudioGateway(cfg.Studio), cfg.Studio.ProjectURL, cfg.Log)
}

// newServer creates MCP tool/resource handler bindings once and keeps shared
// session state for document swaps.
func newServer(gateway domain.StudioGateway, defaultProjectURL string, log zerolog.Logger) (*Server, error) {
	if gateway == nil {
		return nil, fmt.Errorf("studio gateway is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	server := &Server{
		mcpServer: mcpServer,
		gateway:   gateway,
		layout:    &domain.AutoLayout{},
		log:       log,
	}

	resourceNotifier := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("mcp resource updated notify failed")
		}
	}

	for _, module := range newMCPRegistrationModules(server, defaultProjectURL, resourceNotifier) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}

	return server, nil
}

// completionHandler handles completion/complete requests with empty results.
// Tool arguments are free-form enough (fuzzy type names, style prose) that
// canned completions would mislead more than help.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// setSession swaps the current session. The previous document's sync is
// stopped so a replaced session never leaks a socket or read loop.
func (s *Server) setSession(session *domain.Session) {
	if s == nil {
		return
	}
	s.sessionMu.Lock()
	previous := s.session
	s.session = session
	s.sessionMu.Unlock()

	if previous == nil || previous.Document == nil {
		return
	}
	if session != nil && previous.Document == session.Document {
		return
	}
	if err := previous.Document.Stop(); err != nil {
		s.log.Warn().Err(err).Str("project_ref", previous.ProjectRef).Msg("stop previous document sync")
	}
}

// getSession returns the server's current session state.
func (s *Server) getSession() *domain.Session {
	if s == nil {
		return nil
	}
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	return s.session
}

// Close stops the current document sync, if any.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	s.setSession(nil)
	return nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport. The
// server and the open document share a single exit path so a stopped server
// never leaves a sync connection behind.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close document sync: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close document sync: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Run is the service entrypoint for MCP and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
