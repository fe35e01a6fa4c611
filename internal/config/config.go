package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is used for the config file name and the default data directory.
	AppName = "phenogen"

	// EnvPrefix is the prefix for environment variables, e.g. PHENOGEN_SERVER_ADDR.
	EnvPrefix = "PHENOGEN"
)

// Config is the full configuration shared by the server and the CLI.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Compiler CompilerConfig `mapstructure:"compiler"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig holds configuration for the phenogen server.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`           // Listen address (default ":8080")
	LogLevel     string `mapstructure:"log_level"`      // Log level: debug, info, warn, error
	LogFormat    string `mapstructure:"log_format"`     // Log format: text, json
	DBPath       string `mapstructure:"db_path"`        // SQLite database path (default ~/.phenogen/phenogen.db, ":memory:" for testing)
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"` // Request body limit for step trees
}

// CompilerConfig controls how step trees are composed.
type CompilerConfig struct {
	MaxDepth              int  `mapstructure:"max_depth"`
	AllowUnknownLanguages bool `mapstructure:"allow_unknown_languages"`
}

// ClientConfig holds CLI settings for talking to a server.
type ClientConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		LogLevel:     "info",
		LogFormat:    "text",
		MaxBodyBytes: 4 << 20,
	}
}

// DefaultCompilerConfig returns the composer defaults.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{MaxDepth: 32}
}

// DefaultClientConfig returns the CLI defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{ServerURL: "http://localhost:8080"}
}

// Default returns the complete default configuration.
func Default() Config {
	return Config{
		Server:   DefaultServerConfig(),
		Compiler: DefaultCompilerConfig(),
		Client:   DefaultClientConfig(),
	}
}

// DefaultDBPath returns ~/.phenogen/phenogen.db, or a relative fallback when
// the home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName + ".db"
	}
	return filepath.Join(home, "."+AppName, AppName+".db")
}

// Load layers defaults, an optional YAML config file and PHENOGEN_*
// environment variables. An explicit path must exist; without one, a
// phenogen.yaml in the working directory or ~/.phenogen is used if present.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+AppName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.log_level", d.Server.LogLevel)
	v.SetDefault("server.log_format", d.Server.LogFormat)
	v.SetDefault("server.db_path", "")
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("compiler.max_depth", d.Compiler.MaxDepth)
	v.SetDefault("compiler.allow_unknown_languages", d.Compiler.AllowUnknownLanguages)
	v.SetDefault("client.server_url", d.Client.ServerURL)
}
