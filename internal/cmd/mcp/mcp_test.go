package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("STUDIO_MCP_LOG_LEVEL", "debug")
	t.Setenv("STUDIO_MCP_PROJECT_URL", "https://studio.audiograph.dev/projects/env-proj")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.LogLevel)
	}
	if cfg.ProjectURL != "https://studio.audiograph.dev/projects/env-proj" {
		t.Fatalf("expected env project url, got %q", cfg.ProjectURL)
	}
}

func TestParseConfigFlagsWinOverEnv(t *testing.T) {
	t.Setenv("STUDIO_MCP_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{"-log-level", "warn", "-project-url", "flag-proj"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected flag log level, got %q", cfg.LogLevel)
	}
	if cfg.ProjectURL != "flag-proj" {
		t.Fatalf("expected flag project url, got %q", cfg.ProjectURL)
	}
}
