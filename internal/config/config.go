// Package config provides Viper-based configuration loading for the VNO client.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transport kinds.
const (
	TransportTCP       = "tcp"
	TransportGRPC      = "grpc"
	TransportWebSocket = "ws"
)

// ClientConfig holds client identity and credential settings.
type ClientConfig struct {
	// Version is announced to servers in the hello frame.
	Version string `mapstructure:"version"`
	// HashAlgorithm names the credential hash sent to the master server.
	HashAlgorithm string `mapstructure:"hash_algorithm"`
	// FavoritesPath is an optional YAML file of extra servers.
	FavoritesPath string `mapstructure:"favorites_path"`
}

// MasterConfig locates the directory (master) server.
type MasterConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" master address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (m MasterConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// TransportConfig selects and tunes the connection transport.
type TransportConfig struct {
	// Kind is one of "tcp", "grpc", "ws".
	Kind string `mapstructure:"kind"`
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// WriteTimeout bounds each frame write; zero means unbounded.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxFrameSize bounds a single inbound frame in bytes.
	MaxFrameSize int `mapstructure:"max_frame_size"`
	// SOCKS5Proxy is an optional "host:port" proxy for the tcp transport.
	SOCKS5Proxy string `mapstructure:"socks5_proxy"`
	// GRPCMethod is the full method name of the bidirectional session stream.
	GRPCMethod string `mapstructure:"grpc_method"`
	// WSPath is the request path for the websocket transport.
	WSPath string `mapstructure:"ws_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, sends logs to a rotated file instead of stderr.
	File string `mapstructure:"file"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// ConsoleConfig holds terminal frontend settings.
type ConsoleConfig struct {
	// TextSpeed is the delay between revealed runes of a message.
	TextSpeed time.Duration `mapstructure:"text_speed"`
	// Color enables ANSI colour output.
	Color bool `mapstructure:"color"`
}

// Config is the top-level application configuration.
type Config struct {
	Client    ClientConfig    `mapstructure:"client"`
	Master    MasterConfig    `mapstructure:"master"`
	Transport TransportConfig `mapstructure:"transport"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Console   ConsoleConfig   `mapstructure:"console"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateClient(c.Client); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMaster(c.Master); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTransport(c.Transport); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Console.TextSpeed < 0 {
		errs = append(errs, "console.text_speed must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateClient(c ClientConfig) error {
	if c.HashAlgorithm == "" {
		return errors.New("client.hash_algorithm must not be empty")
	}
	return nil
}

func validateMaster(m MasterConfig) error {
	var errs []string
	if m.Host == "" {
		errs = append(errs, "master.host must not be empty")
	}
	if m.Port < 1 || m.Port > 65535 {
		errs = append(errs, fmt.Sprintf("master.port must be 1-65535, got %d", m.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTransport(t TransportConfig) error {
	var errs []string
	validKinds := map[string]bool{TransportTCP: true, TransportGRPC: true, TransportWebSocket: true}
	if !validKinds[t.Kind] {
		errs = append(errs, fmt.Sprintf("transport.kind must be one of [tcp, grpc, ws], got %q", t.Kind))
	}
	if t.DialTimeout < 0 {
		errs = append(errs, "transport.dial_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "transport.write_timeout must not be negative")
	}
	if t.MaxFrameSize < 1 {
		errs = append(errs, fmt.Sprintf("transport.max_frame_size must be >= 1, got %d", t.MaxFrameSize))
	}
	if t.Kind == TransportGRPC && !strings.HasPrefix(t.GRPCMethod, "/") {
		errs = append(errs, fmt.Sprintf("transport.grpc_method must start with '/', got %q", t.GRPCMethod))
	}
	if t.Kind == TransportWebSocket && !strings.HasPrefix(t.WSPath, "/") {
		errs = append(errs, fmt.Sprintf("transport.ws_path must start with '/', got %q", t.WSPath))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File != "" && l.MaxSizeMB < 1 {
		return fmt.Errorf("logging.max_size_mb must be >= 1 when logging.file is set, got %d", l.MaxSizeMB)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with VNO_ prefix
	v.SetEnvPrefix("VNO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.version", "1.0.0")
	v.SetDefault("client.hash_algorithm", "md5")
	v.SetDefault("client.favorites_path", "")

	v.SetDefault("master.host", "52.73.41.179")
	v.SetDefault("master.port", 6543)

	v.SetDefault("transport.kind", TransportTCP)
	v.SetDefault("transport.dial_timeout", "10s")
	v.SetDefault("transport.write_timeout", "0s")
	v.SetDefault("transport.max_frame_size", 1<<20)
	v.SetDefault("transport.socks5_proxy", "")
	v.SetDefault("transport.grpc_method", "/vno.v1.Session/Stream")
	v.SetDefault("transport.ws_path", "/vno")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("console.text_speed", "20ms")
	v.SetDefault("console.color", true)
}
