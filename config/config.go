package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ruteri/simple-artefact-registry/interfaces"
	"github.com/ruteri/simple-artefact-registry/routes"
	"gopkg.in/yaml.v3"
)

// Default server settings.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8080
)

// ErrInvalidConfig is returned for configuration files that cannot be served.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the registry configuration file.
type Config struct {
	// Server configures the listener.
	Server ServerConfig `yaml:"server"`

	// Artefacts is the artefact tree. It is kept as a node so key order and
	// explicit nulls survive until the routes are compiled.
	Artefacts yaml.Node `yaml:"artefacts"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the interface to listen on.
	// Default: 0.0.0.0
	Host string `yaml:"host"`

	// Port is the TCP port to listen on.
	// Default: 8080
	Port int `yaml:"port"`

	// MetricsAddr is the listen address of the Prometheus endpoint. Empty
	// disables it unless set on the command line.
	MetricsAddr string `yaml:"metrics_addr"`

	// ReadTimeout bounds reading a whole request including the body.
	// Zero, the default, means no timeout.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. Zero, the default, means no
	// timeout, so large artefacts are never cut off.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Load reads and parses the configuration file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses a YAML configuration document and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in default values for empty server fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
}

// WithOverrides applies command line overrides on top of the file's server
// section. Empty host and zero port leave the file's values in place.
func (c *Config) WithOverrides(host string, port int) *Config {
	if host != "" {
		c.Server.Host = host
	}
	if port != 0 {
		c.Server.Port = port
	}
	return c
}

// Validate checks the server section and that an artefacts section is present.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.Artefacts.Kind == 0 {
		return fmt.Errorf("%w: missing artefacts section", ErrInvalidConfig)
	}
	return nil
}

// ListenAddr returns the host:port the registry listens on.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Routes compiles the artefact tree.
func (c *Config) Routes() ([]interfaces.Route, error) {
	res, err := routes.Compile(&c.Artefacts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return res, nil
}
