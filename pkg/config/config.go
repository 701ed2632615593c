// Package config loads and validates the quark server configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (QUARK_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Environment variables override only keys that the configuration file
// sets. When no configuration file is found, Load returns the defaults and
// environment variables are not consulted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/quark/internal/bytesize"
	"github.com/marmos91/quark/pkg/adapter/httpd"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the quark server configuration. It is a read-only
// record once loaded; nothing mutates it after startup.
type Config struct {
	// Logging controls the diagnostic log (not the access log)
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// AccessLog configures the per-request log sink
	AccessLog AccessLogConfig `mapstructure:"access_log" yaml:"access_log"`

	// Listen configures the client-facing socket
	Listen ListenConfig `mapstructure:"listen" yaml:"listen"`

	// Metrics configures the optional Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ServeDir is the directory tree exposed to clients. The server
	// changes into it at startup and resolves every target beneath it.
	ServeDir string `mapstructure:"serve_dir" validate:"required" yaml:"serve_dir"`

	// DocIndex is the index file served in lieu of a directory listing
	DocIndex string `mapstructure:"doc_index" validate:"required" yaml:"doc_index"`

	// ListDirs enables auto-generated directory listings
	ListDirs bool `mapstructure:"list_dirs" yaml:"list_dirs"`

	// Mimes is the ordered extension→type table; the first match wins
	Mimes []httpd.MimeMapping `mapstructure:"mimes" validate:"dive" yaml:"mimes"`

	// Limits bounds per-request buffers
	Limits LimitsConfig `mapstructure:"limits" yaml:"limits"`
}

// LoggingConfig controls the diagnostic log.
type LoggingConfig struct {
	// Level is the minimum level: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is "text" or "json"
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// AccessLogConfig controls the per-request log sink.
type AccessLogConfig struct {
	// Output is "stdout", "stderr", or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ListenConfig configures the client-facing socket.
type ListenConfig struct {
	// BindAddress is the IP to bind; empty binds all interfaces
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address"`

	// Port is the TCP port. Ignored when UnixSocket is set.
	Port int `mapstructure:"port" validate:"min=1,max=65535" yaml:"port"`

	// UnixSocket switches listening to a Unix stream socket at this path
	UnixSocket string `mapstructure:"unix_socket" yaml:"unix_socket"`

	// MaxConnections caps concurrent connections; 0 is replaced by the default (512)
	MaxConnections int `mapstructure:"max_connections" validate:"min=0" yaml:"max_connections"`

	// IOTimeout bounds each socket read and write
	IOTimeout time.Duration `mapstructure:"io_timeout" validate:"required,gt=0" yaml:"io_timeout"`

	// ShutdownTimeout bounds the graceful-shutdown drain
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address"`
	Port        int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// LimitsConfig bounds per-request buffers. Oversized input is rejected
// with 431 rather than grown into.
type LimitsConfig struct {
	// HeaderMax caps the raw request header stream
	HeaderMax bytesize.ByteSize `mapstructure:"header_max" validate:"required,gt=0" yaml:"header_max"`

	// FieldMax caps a single recognized field value
	FieldMax bytesize.ByteSize `mapstructure:"field_max" validate:"required,gt=0" yaml:"field_max"`

	// PathMax caps the request target
	PathMax bytesize.ByteSize `mapstructure:"path_max" validate:"required,gt=0" yaml:"path_max"`

	// CopyBuffer is the per-connection file copy buffer size
	CopyBuffer bytesize.ByteSize `mapstructure:"copy_buffer" validate:"required,gt=0" yaml:"copy_buffer"`
}

// Load reads the configuration from the given path (or the default
// location when empty), applies environment overrides and defaults, and
// validates the result. When the file does not exist it returns
// GetDefaultConfig() as is, without environment overrides or validation.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads the configuration with friendlier errors: a missing file
// produces instructions instead of a bare ENOENT.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  quark init\n\n"+
				"Or specify a custom config file:\n"+
				"  quark <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  quark init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML to path, creating parent
// directories as needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment overrides (QUARK_ prefix, dots become
// underscores, e.g. QUARK_LOGGING_LEVEL) and the config file location.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("QUARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the config file if present. A missing file is not
// an error; defaults apply.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the decode hooks for custom config types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize so
// config files can say "4Ki" or a plain byte count.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/quark, falling back to
// ~/.config/quark, then the current directory.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quark")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "quark")
	}
	return "."
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
