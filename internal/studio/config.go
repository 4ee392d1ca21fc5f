package studio

import (
	"errors"
	"strings"

	"github.com/audiograph/studio-mcp/internal/platform/config"
)

// AuthConfig carries the OAuth client registration and service endpoints.
// The client id, redirect URL, and scope are only consulted by the legacy
// login-status path; session initialization receives its credential from the
// caller.
type AuthConfig struct {
	ClientID    string `env:"STUDIO_MCP_CLIENT_ID"`
	RedirectURL string `env:"STUDIO_MCP_REDIRECT_URL"`
	Scope       string `env:"STUDIO_MCP_SCOPE"       envDefault:"document:write"`
	TokenURL    string `env:"STUDIO_MCP_TOKEN_URL"   envDefault:"https://api.audiograph.dev/oauth/token"`
	APIURL      string `env:"STUDIO_MCP_API_URL"     envDefault:"https://api.audiograph.dev"`
	SyncURL     string `env:"STUDIO_MCP_SYNC_URL"    envDefault:"wss://sync.audiograph.dev"`
	ProjectURL  string `env:"STUDIO_MCP_PROJECT_URL"`
}

// LoadAuthConfig loads AuthConfig from environment variables.
func LoadAuthConfig() (AuthConfig, error) {
	var cfg AuthConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return AuthConfig{}, err
	}
	return cfg, nil
}

// ParseProjectRef extracts the project reference from a project URL. A bare
// reference passes through unchanged.
func ParseProjectRef(projectURL string) (string, error) {
	trimmed := strings.TrimSpace(projectURL)
	trimmed = strings.TrimRight(trimmed, "/")
	if trimmed == "" {
		return "", errors.New("project url is required")
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if trimmed == "" {
		return "", errors.New("project url has no project reference")
	}
	return trimmed, nil
}
