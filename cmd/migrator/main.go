package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jo-hoe/logomigrator/internal/alerting"
	"github.com/jo-hoe/logomigrator/internal/core"
)

var version = "dev"

// getConfigPath returns an empty path when the embedded default should be used.
func getConfigPath() string {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	configPath := filepath.Join(cwd, "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		return ""
	}
	return configPath
}

func loadConfig(configPath string) (*core.ServiceConfig, error) {
	if configPath == "" {
		return core.DefaultConfig()
	}
	return core.LoadConfig(configPath)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	configPath := getConfigPath()
	config, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		panic(err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(config.LogLevel),
	})))
	if configPath == "" {
		slog.Info("using embedded default configuration")
	} else {
		slog.Info("configuration loaded", "path", configPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reporter core.FailureReporter
	if config.Sentry.DSN != "" {
		sentryReporter, err := alerting.NewSentryReporter(config.Sentry, version)
		if err != nil {
			slog.Error("failed to initialize sentry", "error", err)
			panic(err)
		}
		// Flush buffered events before the program terminates.
		defer sentryReporter.Flush(2 * time.Second)
		reporter = sentryReporter
	}

	coreService, err := core.NewCoreService(ctx, config, reporter)
	if err != nil {
		slog.Error("failed to initialize core service", "error", err)
		panic(err)
	}
	defer func() {
		if err := coreService.Close(); err != nil {
			slog.Warn("core service close error", "error", err)
		}
	}()

	coreService.Run(ctx)
}
