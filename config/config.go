package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"novel-downloader/fetch"
)

const envPrefix = "NOVELDL"

// Config is the explicit knob record handed to the components at
// construction time. Nothing reads it through globals.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Download DownloadConfig `mapstructure:"download"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type HTTPConfig struct {
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	RetryWaitSeconds int    `mapstructure:"retry_wait_seconds"`
	UserAgent        string `mapstructure:"user_agent"`
}

type DownloadConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`
	PolitenessMs int    `mapstructure:"politeness_ms"`
	OutputDir    string `mapstructure:"output_dir"`
	RulesFile    string `mapstructure:"rules_file"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c HTTPConfig) RetryWait() time.Duration {
	return time.Duration(c.RetryWaitSeconds) * time.Second
}

func (c DownloadConfig) Politeness() time.Duration {
	return time.Duration(c.PolitenessMs) * time.Millisecond
}

// Load builds the configuration from defaults, an optional YAML file and
// NOVELDL_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.retry_wait_seconds", 1)
	v.SetDefault("http.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("download.concurrency", 5)
	v.SetDefault("download.politeness_ms", 500)
	v.SetDefault("download.output_dir", "downloads")
	v.SetDefault("download.rules_file", "sites.yaml")
	v.SetDefault("logging.development", true)
}

func (c *Config) Validate() error {
	var problems []string
	if c.HTTP.TimeoutSeconds < 1 {
		problems = append(problems, "http.timeout_seconds must be at least 1")
	}
	if c.HTTP.MaxAttempts < 1 {
		problems = append(problems, "http.max_attempts must be at least 1")
	}
	if c.HTTP.RetryWaitSeconds < 0 {
		problems = append(problems, "http.retry_wait_seconds must not be negative")
	}
	if c.HTTP.UserAgent == "" {
		problems = append(problems, "http.user_agent must not be empty")
	}
	if c.Download.Concurrency < 1 {
		problems = append(problems, "download.concurrency must be at least 1")
	}
	if c.Download.PolitenessMs < 0 {
		problems = append(problems, "download.politeness_ms must not be negative")
	}
	if c.Download.OutputDir == "" {
		problems = append(problems, "download.output_dir must not be empty")
	}
	if c.Download.RulesFile == "" {
		problems = append(problems, "download.rules_file must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
