// Package config loads client settings from defaults, config.yaml, .env and
// TADA_* environment variables, and configures logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/Makepad-fr/tada-remote/internal/store/jsonstore"
)

const (
	EnvPrefix      = "TADA"
	DefaultAPIURL  = "http://localhost:5000"
	DefaultTheme   = "classic"
	configName     = "config"
	configDirName  = ".tada"
	defaultLogName = "tada.log"
)

type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	UI          UIConfig          `mapstructure:"ui"`
}

type APIConfig struct {
	URL string `mapstructure:"url"`
}

type CredentialsConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" | "json"
	File   string `mapstructure:"file"`   // empty = stderr
}

type UIConfig struct {
	Theme   string `mapstructure:"theme"`
	NoColor bool   `mapstructure:"no_color"`
}

// Dir is ~/.tada, where credentials, config and logs live by default.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// Load reads configuration. configFile overrides the search path when set.
func Load(configFile string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvironmentVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logrus.Debugln("No config file found, using defaults and environment")
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Debugln("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads .env if present.
func loadEnvFile() {
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warnln("Error loading .env file")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("credentials.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("ui.theme", DefaultTheme)
	v.SetDefault("ui.no_color", false)
}

func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("api.url", "TADA_API_URL")
	v.BindEnv("credentials.path", "TADA_CREDENTIALS_PATH")
	v.BindEnv("logging.level", "TADA_LOGGING_LEVEL")
	v.BindEnv("logging.format", "TADA_LOGGING_FORMAT")
	v.BindEnv("logging.file", "TADA_LOGGING_FILE")
	v.BindEnv("ui.theme", "TADA_UI_THEME")
	v.BindEnv("ui.no_color", "TADA_UI_NO_COLOR")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return fmt.Errorf("api.url must not be empty")
	}
	if !strings.HasPrefix(c.API.URL, "http://") && !strings.HasPrefix(c.API.URL, "https://") {
		return fmt.Errorf("api.url must be an http(s) URL, got %q", c.API.URL)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// CredentialsPath resolves the credential file, defaulting to ~/.tada/credentials.json.
func (c *Config) CredentialsPath() (string, error) {
	if c.Credentials.Path != "" {
		return c.Credentials.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, jsonstore.DefaultFileName), nil
}

// SetupLogging applies the logging section to the global logrus logger.
// When interactive is true and no file is configured, logs go to
// ~/.tada/tada.log so they do not draw over the terminal UI. The returned
// closer releases the log file, if one was opened.
func (c *Config) SetupLogging(interactive bool) (io.Closer, error) {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.Logging.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	path := c.Logging.File
	if path == "" && interactive {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, defaultLogName)
	}
	if path == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
