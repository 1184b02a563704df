package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig contains all configuration for the gopool server.
type ServerConfig struct {
	Pool     PoolConfig     `mapstructure:"pool"`
	Listener ListenerConfig `mapstructure:"listener"`
	Static   StaticConfig   `mapstructure:"static"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	Workers int    `mapstructure:"workers"`
	Name    string `mapstructure:"name"`
}

// ListenerConfig contains TCP listener configuration.
type ListenerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BufferSize   int           `mapstructure:"buffer_size"`
}

// StaticConfig describes the pages served by the listener.
type StaticConfig struct {
	Dir      string `mapstructure:"dir"`
	Pattern  string `mapstructure:"pattern"`
	Index    string `mapstructure:"index"`
	NotFound string `mapstructure:"not_found"`
}

// AdminConfig contains the admin REST and gRPC server configuration.
type AdminConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// RESTConfig contains admin HTTP server configuration.
type RESTConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GRPCConfig contains admin gRPC server configuration.
type GRPCConfig struct {
	Addr             string        `mapstructure:"addr"`
	EnableReflection bool          `mapstructure:"enable_reflection"`
	KeepaliveMinTime time.Duration `mapstructure:"keepalive_min_time"`
}

// LoadServer loads the server configuration from the given path.
// If configPath is empty, it looks for server.yaml in the config/ directory.
// Environment variables with GOPOOL_SERVER_ prefix override config file values.
func LoadServer(configPath string) (*ServerConfig, error) {
	v := viper.New()

	v.SetDefault("pool.workers", runtime.NumCPU())
	v.SetDefault("pool.name", "connections")
	v.SetDefault("listener.addr", "127.0.0.1:8080")
	v.SetDefault("listener.read_timeout", 5*time.Second)
	v.SetDefault("listener.write_timeout", 5*time.Second)
	v.SetDefault("listener.buffer_size", 1024)
	v.SetDefault("static.dir", "static")
	v.SetDefault("static.pattern", "**/*.html")
	v.SetDefault("static.index", "index.html")
	v.SetDefault("static.not_found", "404.html")
	v.SetDefault("admin.rest.addr", "127.0.0.1:9100")
	v.SetDefault("admin.rest.read_timeout", 15*time.Second)
	v.SetDefault("admin.rest.write_timeout", 15*time.Second)
	v.SetDefault("admin.rest.idle_timeout", 60*time.Second)
	v.SetDefault("admin.grpc.addr", "127.0.0.1:9101")
	v.SetDefault("admin.grpc.enable_reflection", true)
	v.SetDefault("admin.grpc.keepalive_min_time", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", LogFormatJSON)

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("server")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("GOPOOL_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *ServerConfig) Validate() error {
	if c.Pool.Workers <= 0 {
		return fmt.Errorf("pool.workers must be greater than 0, got %d", c.Pool.Workers)
	}
	if c.Listener.BufferSize <= 0 {
		return fmt.Errorf("listener.buffer_size must be greater than 0, got %d", c.Listener.BufferSize)
	}
	if c.Static.Index == "" || c.Static.NotFound == "" {
		return fmt.Errorf("static.index and static.not_found are required")
	}
	switch c.Logging.Format {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", LogFormatJSON, LogFormatText, c.Logging.Format)
	}
	return nil
}
