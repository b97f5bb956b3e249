package core

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jo-hoe/peanutclassifier/internal/backend/commandstructure"
	"github.com/jo-hoe/peanutclassifier/internal/backend/database"
	"gopkg.in/yaml.v3"
)

const (
	ClassifierRandom = "random"
	ClassifierRemote = "remote"

	defaultPort           = 8080
	defaultThumbnailWidth = 320
	defaultMaxUploadBytes = 10 << 20
	defaultHistoryLimit   = 20
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// Database selects the evaluation history backend. An empty type disables history.
type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Upload struct {
	MaxBytes          int64    `yaml:"maxBytes"`
	AllowedExtensions []string `yaml:"allowedExtensions"`
}

type Classifier struct {
	Type         string        `yaml:"type"`
	InferenceURL string        `yaml:"inferenceUrl"`
	HealthURL    string        `yaml:"healthUrl"`
	Timeout      time.Duration `yaml:"timeout"`
	// Seed makes the random classifier and chart reproducible; 0 means unseeded
	Seed uint64 `yaml:"seed"`
}

type ServiceConfig struct {
	Port           int             `yaml:"port"`
	LogLevel       string          `yaml:"logLevel"`
	ThumbnailWidth int             `yaml:"thumbnailWidth"`
	HistoryLimit   int             `yaml:"historyLimit"`
	Database       Database        `yaml:"database"`
	Upload         Upload          `yaml:"upload"`
	Classifier     Classifier      `yaml:"classifier"`
	Commands       []CommandConfig `yaml:"commands"`
}

// DefaultConfig is used when no config file exists. History is disabled.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:           defaultPort,
		LogLevel:       "info",
		ThumbnailWidth: defaultThumbnailWidth,
		HistoryLimit:   defaultHistoryLimit,
		Upload: Upload{
			MaxBytes:          defaultMaxUploadBytes,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
		},
		Classifier: Classifier{
			Type: ClassifierRandom,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file on top of DefaultConfig
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return config, nil
}

// ApplyEnvironment overrides selected settings from environment variables
func (c *ServiceConfig) ApplyEnvironment(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("DATABASE_TYPE"); ok {
		c.Database.Type = v
	}
	if v, ok := lookup("DATABASE_CONNECTION_STRING"); ok && v != "" {
		c.Database.ConnectionString = v
	}
	if v, ok := lookup("CLASSIFIER_TYPE"); ok && v != "" {
		c.Classifier.Type = v
	}
	if v, ok := lookup("INFERENCE_URL"); ok && v != "" {
		c.Classifier.InferenceURL = v
	}
	return c.Validate()
}

func (c *ServiceConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ThumbnailWidth <= 0 {
		return fmt.Errorf("thumbnailWidth must be positive, got %d", c.ThumbnailWidth)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("historyLimit must be positive, got %d", c.HistoryLimit)
	}

	switch c.Database.Type {
	case "":
	case database.TypeSQLite, database.TypeRedis:
		if c.Database.ConnectionString == "" {
			return fmt.Errorf("database type %s requires a connectionString", c.Database.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.maxBytes must be positive, got %d", c.Upload.MaxBytes)
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("upload.allowedExtensions must not be empty")
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("upload extension %q must start with a dot", ext)
		}
	}

	switch c.Classifier.Type {
	case ClassifierRandom:
	case ClassifierRemote:
		if c.Classifier.InferenceURL == "" {
			return fmt.Errorf("remote classifier requires inferenceUrl")
		}
	default:
		return fmt.Errorf("unsupported classifier type: %s", c.Classifier.Type)
	}

	return validateCommands(c.Commands)
}

// SlogLevel returns the configured log level, defaulting to info
func (c *ServiceConfig) SlogLevel() slog.Level {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// PipelineCommands returns the configured upload commands, or the default
// filter, convert and thumbnail sequence when none are configured
func (c *ServiceConfig) PipelineCommands() []commandstructure.CommandConfig {
	if len(c.Commands) == 0 {
		return []commandstructure.CommandConfig{
			{Name: "FormatFilterCommand", Params: map[string]any{"formats": []any{"jpeg", "png"}}},
			{Name: "PngConverterCommand", Params: map[string]any{}},
			{Name: "PixelScaleCommand", Params: map[string]any{"width": c.ThumbnailWidth, "downscaleOnly": true}},
		}
	}
	configs := make([]commandstructure.CommandConfig, len(c.Commands))
	for i, cmd := range c.Commands {
		configs[i] = commandstructure.CommandConfig{Name: cmd.Name, Params: cmd.Params}
	}
	return configs
}

func parseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if value == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logLevel %q: %w", value, err)
	}
	return level, nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		if !commandstructure.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("command at index %d is not a known command: %s", i, cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}
