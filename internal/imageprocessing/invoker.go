package imageprocessing

import (
	"fmt"
	"log/slog"
	"time"
)

// CommandInvoker executes a sequence of commands on image data
type CommandInvoker struct {
	name     string
	commands []Command
}

// NewCommandInvoker creates a new command invoker
func NewCommandInvoker(name string, commands []Command) *CommandInvoker {
	return &CommandInvoker{
		name:     name,
		commands: commands,
	}
}

// NewCommandInvokerFromConfig creates every configured command up front so that
// parameter errors surface before any image is processed.
func NewCommandInvokerFromConfig(name string, registry *CommandRegistry, configs []CommandConfig) (*CommandInvoker, error) {
	commands := make([]Command, 0, len(configs))
	for i, config := range configs {
		command, err := registry.Create(config.Name, config.Params)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: failed to create command at index %d (%s): %w", name, i, config.Name, err)
		}
		commands = append(commands, command)
	}
	return NewCommandInvoker(name, commands), nil
}

// Name returns the pipeline name
func (i *CommandInvoker) Name() string {
	return i.name
}

// Execute applies all commands in sequence to the image data
func (i *CommandInvoker) Execute(imageData []byte) ([]byte, error) {
	start := time.Now()

	slog.Debug("starting image processing pipeline",
		"pipeline", i.name,
		"command_count", len(i.commands),
		"input_size_bytes", len(imageData))

	if len(i.commands) == 0 {
		return imageData, nil
	}

	currentData := imageData
	for idx, command := range i.commands {
		commandStart := time.Now()

		processedData, err := command.Execute(currentData)
		if err != nil {
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}

		slog.Debug("command completed",
			"pipeline", i.name,
			"index", idx,
			"command_name", command.Name(),
			"duration_ms", time.Since(commandStart).Milliseconds(),
			"input_size_bytes", len(currentData),
			"output_size_bytes", len(processedData))

		currentData = processedData
	}

	slog.Debug("image processing pipeline completed",
		"pipeline", i.name,
		"total_duration_ms", time.Since(start).Milliseconds(),
		"final_size_bytes", len(currentData))

	return currentData, nil
}
