package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the runtime configuration from .vouch/config.yaml.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Engine    EngineConfig    `yaml:"engine"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	History   HistoryConfig   `yaml:"history"`
	GitHub    GitHubConfig    `yaml:"github"`
	Inspector InspectorConfig `yaml:"inspector"`
}

// EngineConfig defines execution defaults applied to intents that do
// not set their own options.
type EngineConfig struct {
	StopOnFailure bool   `yaml:"stop_on_failure"`
	Verbose       bool   `yaml:"verbose"`
	StepTimeout   string `yaml:"step_timeout"` // e.g. "30s", empty means none
}

// SandboxConfig defines filesystem restrictions for verification.
type SandboxConfig struct {
	AllowedPaths []string `yaml:"allowed_paths"`
	DeniedPaths  []string `yaml:"denied_paths"`
	MaxFileSize  string   `yaml:"max_file_size"`
}

// HistoryConfig defines execution history settings.
type HistoryConfig struct {
	Persist    bool   `yaml:"persist"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// GitHubConfig holds GitHub check backend credentials. The token value
// supports ${VAR} environment interpolation.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// InspectorConfig defines the HTTP inspector settings.
type InspectorConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			StopOnFailure: true,
		},
		Sandbox: SandboxConfig{
			DeniedPaths: []string{"/etc", "/usr"},
			MaxFileSize: "10MB",
		},
		History: HistoryConfig{
			Persist:    true,
			Path:       ".vouch/history.db",
			MaxEntries: 1000,
		},
		Inspector: InspectorConfig{
			Port: 7317,
		},
	}
}

// Load reads and parses a runtime config YAML file. Returns the
// default config if the file doesn't exist. Unknown keys are an
// error: a misspelled option should fail loudly, not be ignored.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	interpolated := interpolateEnvVars(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(interpolated)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Engine.StepTimeout != "" {
		if _, err := time.ParseDuration(c.Engine.StepTimeout); err != nil {
			return fmt.Errorf("invalid engine.step_timeout %q: %w", c.Engine.StepTimeout, err)
		}
	}
	if c.Inspector.Enabled && (c.Inspector.Port < 1 || c.Inspector.Port > 65535) {
		return fmt.Errorf("invalid inspector.port %d", c.Inspector.Port)
	}
	return nil
}

// Timeout returns the parsed default step timeout, zero when unset.
func (c EngineConfig) Timeout() time.Duration {
	if c.StepTimeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.StepTimeout)
	return d
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // Leave unresolved if not set.
	})
}
