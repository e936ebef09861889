// Package config handles configuration loading and management for hark.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for hark.
type Config struct {
	Workers      int             `mapstructure:"workers"`
	TaskTimeout  time.Duration   `mapstructure:"task_timeout"`
	PollInterval time.Duration   `mapstructure:"poll_interval"`
	GUI          GUIConfig       `mapstructure:"gui"`
	LLM          LLMConfig       `mapstructure:"llm"`
	Vision       VisionConfig    `mapstructure:"vision"`
	Anthropic    AnthropicConfig `mapstructure:"anthropic"`
	AWS          AWSConfig       `mapstructure:"aws"`
	Library      LibraryConfig   `mapstructure:"library"`
	Safety       SafetyConfig    `mapstructure:"safety"`
	Screenshots  ScreenshotsConfig `mapstructure:"screenshots"`
	Monitor      MonitorConfig   `mapstructure:"monitor"`
	Audio        AudioConfig     `mapstructure:"audio"`
	ASR          ASRConfig       `mapstructure:"asr"`
	Events       EventsConfig    `mapstructure:"events"`
	History      HistoryConfig   `mapstructure:"history"`
	DebugLogDir  string          `mapstructure:"debug_log_dir"`
}

// GUIConfig holds verify-then-act retry engine settings.
type GUIConfig struct {
	Attempts        int     `mapstructure:"attempts"`
	VerifyRadius    int     `mapstructure:"verify_radius"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	TemperatureBase float64 `mapstructure:"temperature_base"`
	TemperatureStep float64 `mapstructure:"temperature_step"`
	TemperatureMax  float64 `mapstructure:"temperature_max"`
	ContextFrames   int     `mapstructure:"context_frames"`
}

// LLMConfig holds text-model settings.
type LLMConfig struct {
	// Provider selects the command generator: "ollama" or "anthropic".
	Provider string `mapstructure:"provider"`
	// Model is the Ollama model used for command generation.
	Model string `mapstructure:"model"`
	// CorrectModel is the Ollama model used for grammar correction.
	CorrectModel string `mapstructure:"correct_model"`
}

// VisionConfig holds vision-targeting model settings.
type VisionConfig struct {
	Model string `mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings for the remote generator.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
}

// AWSConfig holds AWS settings for the Bedrock transport.
type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// LibraryConfig holds command-library settings.
type LibraryConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// SafetyConfig holds safety-gate settings.
type SafetyConfig struct {
	// RulesPath points to an optional YAML file with extra deny rules.
	RulesPath string `mapstructure:"rules_path"`
}

// ScreenshotsConfig holds screenshot storage settings.
type ScreenshotsConfig struct {
	Dir string `mapstructure:"dir"`
}

// MonitorConfig holds continuous screen monitor settings.
type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Keep     int           `mapstructure:"keep"`
}

// AudioConfig holds microphone capture settings.
type AudioConfig struct {
	Device string `mapstructure:"device"`
}

// ASRConfig holds transcription settings.
type ASRConfig struct {
	Binary    string `mapstructure:"binary"`
	ModelPath string `mapstructure:"model_path"`
}

// EventsConfig holds the action event store settings.
type EventsConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// HistoryConfig holds the transcript history store settings.
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (HARK_*, ANTHROPIC_API_KEY)
// 2. Project config (.hark.yaml in current directory or parent)
// 3. User config (~/.config/hark/hark.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("hark")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("HARK")
	v.AutomaticEnv()

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.profile", "AWS_PROFILE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "hark.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", 3)
	v.SetDefault("task_timeout", "300s")
	v.SetDefault("poll_interval", "100ms")

	v.SetDefault("gui.attempts", 3)
	v.SetDefault("gui.verify_radius", 32)
	v.SetDefault("gui.min_confidence", 0.5)
	v.SetDefault("gui.temperature_base", 0.3)
	v.SetDefault("gui.temperature_step", 0.1)
	v.SetDefault("gui.temperature_max", 0.7)
	v.SetDefault("gui.context_frames", 3)

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3.2")
	v.SetDefault("llm.correct_model", "llama3.2")
	v.SetDefault("vision.model", "llama3.2-vision")

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")

	v.SetDefault("library.path", filepath.Join(getUserConfigDir(), "library.yaml"))
	v.SetDefault("library.watch", true)
	v.SetDefault("safety.rules_path", "")

	v.SetDefault("screenshots.dir", filepath.Join(getUserDataDir(), "screenshots"))
	v.SetDefault("monitor.interval", "2s")
	v.SetDefault("monitor.keep", 10)

	v.SetDefault("audio.device", "")
	v.SetDefault("asr.binary", "whisper-cli")
	v.SetDefault("asr.model_path", "")

	v.SetDefault("events.db_path", filepath.Join(getUserDataDir(), "events.db"))
	v.SetDefault("history.db_path", filepath.Join(getUserDataDir(), "history.db"))
	v.SetDefault("debug_log_dir", "")
}

// getUserConfigDir returns the XDG config directory for hark.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hark")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "hark")
	}
	return filepath.Join(home, ".config", "hark")
}

// getUserDataDir returns the XDG data directory for hark.
func getUserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "hark")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "hark")
	}
	return filepath.Join(home, ".local", "share", "hark")
}

// findProjectConfig searches for .hark.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".hark.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Workers:      3,
		TaskTimeout:  300 * time.Second,
		PollInterval: 100 * time.Millisecond,
		GUI: GUIConfig{
			Attempts:        3,
			VerifyRadius:    32,
			MinConfidence:   0.5,
			TemperatureBase: 0.3,
			TemperatureStep: 0.1,
			TemperatureMax:  0.7,
			ContextFrames:   3,
		},
		LLM: LLMConfig{
			Provider:     "ollama",
			Model:        "llama3.2",
			CorrectModel: "llama3.2",
		},
		Vision: VisionConfig{
			Model: "llama3.2-vision",
		},
		Library: LibraryConfig{
			Path:  filepath.Join(getUserConfigDir(), "library.yaml"),
			Watch: true,
		},
		Screenshots: ScreenshotsConfig{
			Dir: filepath.Join(getUserDataDir(), "screenshots"),
		},
		Monitor: MonitorConfig{
			Interval: 2 * time.Second,
			Keep:     10,
		},
		ASR: ASRConfig{
			Binary: "whisper-cli",
		},
		Events: EventsConfig{
			DBPath: filepath.Join(getUserDataDir(), "events.db"),
		},
		History: HistoryConfig{
			DBPath: filepath.Join(getUserDataDir(), "history.db"),
		},
	}
}
