// Package mcp parses MCP command flags and starts the stdio server.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	mcpapp "github.com/audiograph/studio-mcp/internal/app/mcp"
	"github.com/audiograph/studio-mcp/internal/platform/config"
	"github.com/audiograph/studio-mcp/internal/studio"
)

// Config holds MCP command configuration.
type Config struct {
	LogLevel   string `env:"STUDIO_MCP_LOG_LEVEL" envDefault:"info"`
	ProjectURL string `env:"STUDIO_MCP_PROJECT_URL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.ProjectURL, "project-url", cfg.ProjectURL, "default project URL for open-document")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter. Diagnostics go to stderr; stdout
// belongs to the MCP transport.
func Run(ctx context.Context, cfg Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "mcp").Logger()

	studioCfg, err := studio.LoadAuthConfig()
	if err != nil {
		return fmt.Errorf("load studio config: %w", err)
	}
	if cfg.ProjectURL != "" {
		studioCfg.ProjectURL = cfg.ProjectURL
	}

	return mcpapp.Run(ctx, studioCfg, log)
}
