package core

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/jo-hoe/logomigrator/internal/alerting"
	"github.com/jo-hoe/logomigrator/internal/cache"
	"github.com/jo-hoe/logomigrator/internal/common"
	"github.com/jo-hoe/logomigrator/internal/database"
	"github.com/jo-hoe/logomigrator/internal/fetcher"
	"github.com/jo-hoe/logomigrator/internal/imageprocessing"
	"github.com/jo-hoe/logomigrator/internal/storage"
	"gopkg.in/yaml.v3"
)

//go:embed defaultconfig.yaml
var defaultConfig []byte

// LogoEntry is a row whose image columns are migrated.
type LogoEntry struct {
	ID   string `yaml:"id" validate:"required,uuid"`
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required,url"`
}

// Variants holds the command pipelines producing the stored images.
type Variants struct {
	Original  []imageprocessing.CommandConfig `yaml:"original"`
	Thumbnail []imageprocessing.CommandConfig `yaml:"thumbnail"`
}

type ServiceConfig struct {
	LogLevel string          `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	Fetcher  fetcher.Config  `yaml:"fetcher"`
	Cache    cache.Config    `yaml:"cache"`
	Storage  storage.Config  `yaml:"storage"`
	Database database.Config `yaml:"database"`
	Sentry   alerting.Config `yaml:"sentry"`
	Variants Variants        `yaml:"variants"`
	Logos    []LogoEntry     `yaml:"logos" validate:"required,min=1,dive"`
}

func defaultVariants() Variants {
	return Variants{
		Original: []imageprocessing.CommandConfig{
			{Name: "PngConverterCommand", Params: map[string]any{}},
			{Name: "SizeGuardCommand", Params: map[string]any{}},
		},
		Thumbnail: []imageprocessing.CommandConfig{
			{Name: "ThumbnailCommand", Params: map[string]any{}},
		},
	}
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return parseConfig(data, configPath)
}

// DefaultConfig returns the embedded configuration
func DefaultConfig() (*ServiceConfig, error) {
	return parseConfig(defaultConfig, "embedded default")
}

func parseConfig(data []byte, source string) (*ServiceConfig, error) {
	var config ServiceConfig
	if err := yaml.Unmarshal(expandEnv(data), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", source, err)
	}

	defaults := defaultVariants()
	if len(config.Variants.Original) == 0 {
		config.Variants.Original = defaults.Original
	}
	if len(config.Variants.Thumbnail) == 0 {
		config.Variants.Thumbnail = defaults.Thumbnail
	}
	if config.Storage.Type == "" {
		config.Storage.Type = "supabase"
	}

	validator := &common.GenericValidator{}
	if err := validator.Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", source, err)
	}

	for name, commands := range map[string][]imageprocessing.CommandConfig{
		"original":  config.Variants.Original,
		"thumbnail": config.Variants.Thumbnail,
	} {
		if err := validateCommands(commands); err != nil {
			return nil, fmt.Errorf("invalid command configuration for variant %s: %w", name, err)
		}
	}

	if err := validateLogos(config.Logos); err != nil {
		return nil, fmt.Errorf("invalid logo table: %w", err)
	}

	return &config, nil
}

var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} references with the environment value of NAME.
// Any other "$" is kept literally.
func expandEnv(data []byte) []byte {
	return envReference.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envReference.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []imageprocessing.CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if !imageprocessing.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("unknown command %s, available: %v", cmd.Name, imageprocessing.DefaultRegistry.GetRegisteredNames())
		}

		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}

var errDuplicateLogo = errors.New("duplicate logo id")

func validateLogos(logos []LogoEntry) error {
	seen := make(map[string]bool, len(logos))
	for _, logo := range logos {
		if seen[logo.ID] {
			return fmt.Errorf("%w: %s", errDuplicateLogo, logo.ID)
		}
		seen[logo.ID] = true
	}
	return nil
}
