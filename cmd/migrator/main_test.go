package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestGetConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Setenv("CONFIG_PATH", "/etc/logomigrator/config.yaml")
	if got := getConfigPath(); got != "/etc/logomigrator/config.yaml" {
		t.Errorf("getConfigPath() = %q, want CONFIG_PATH value", got)
	}

	t.Setenv("CONFIG_PATH", "")
	if got := getConfigPath(); got != "" {
		t.Errorf("getConfigPath() = %q, want empty without config.yaml", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("logos: []"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	got := getConfigPath()
	if filepath.Base(got) != "config.yaml" {
		t.Errorf("getConfigPath() = %q, want local config.yaml", got)
	}
}

func TestLoadConfig_EmbeddedDefault(t *testing.T) {
	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if len(config.Logos) == 0 {
		t.Error("expected logos in the embedded default")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for input, want := range tests {
		if got := parseLogLevel(input); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
