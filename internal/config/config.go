package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Supported visualizer styles.
const (
	StyleBars = "bars"
	StyleBlob = "blob"
)

// Credential environment variables, one per provider.
const (
	GeminiAPIKeyEnv = "GEMINI_API_KEY"
	OpenAIAPIKeyEnv = "OPENAI_API_KEY"
)

const (
	defaultLogLevel         = "info"
	defaultLogFile          = "voicechat.log"
	defaultCaptureFrameSize = 4096
	defaultVisualizerFPS    = 30
)

// ErrMissingCredential is returned when the selected provider has no API key
// in the environment.
var ErrMissingCredential = errors.New("missing API key")

// AudioConfig stores capture settings.
type AudioConfig struct {
	CaptureFrameSize int `yaml:"capture_frame_size"`
}

// VisualizerConfig stores visualizer settings.
type VisualizerConfig struct {
	Style string `yaml:"style"`
	FPS   int    `yaml:"fps"`
}

// Config stores the application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	LogFile    string           `yaml:"log_file"`
	Provider   string           `yaml:"provider"`
	Audio      AudioConfig      `yaml:"audio"`
	Visualizer VisualizerConfig `yaml:"visualizer"`

	// APIKey is read from the environment, never from the file.
	APIKey string `yaml:"-"`
}

// LoadConfig loads the configuration from the given file path. A missing file
// yields the defaults. The credential for the selected provider is taken from
// the environment after loading .env, if present.
func LoadConfig(filePath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	env := cfg.CredentialEnv()
	cfg.APIKey = os.Getenv(env)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingCredential, env)
	}

	return &cfg, nil
}

// CredentialEnv names the environment variable holding the provider's key.
func (c *Config) CredentialEnv() string {
	if c.Provider == ProviderOpenAI {
		return OpenAIAPIKeyEnv
	}
	return GeminiAPIKeyEnv
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFile == "" {
		c.LogFile = defaultLogFile
	}
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	if c.Audio.CaptureFrameSize <= 0 {
		c.Audio.CaptureFrameSize = defaultCaptureFrameSize
	}
	if c.Visualizer.Style == "" {
		c.Visualizer.Style = StyleBars
	}
	if c.Visualizer.FPS <= 0 {
		c.Visualizer.FPS = defaultVisualizerFPS
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.Visualizer.Style {
	case StyleBars, StyleBlob:
	default:
		return fmt.Errorf("unknown visualizer style %q", c.Visualizer.Style)
	}
	return nil
}
