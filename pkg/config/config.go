// Package config loads the YAML configuration consumed by the CLI and by
// embedders running the reference server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
}

type ClientConfig struct {
	// Transport selects how to reach the server: stdio (launch a
	// subprocess), tcp, or ws.
	Transport string `yaml:"transport"`
	// Launch is the shell-style command for the stdio transport.
	Launch string `yaml:"launch"`
	// Address is the TCP address or websocket URL for the other two.
	Address string `yaml:"address"`

	Directory string `yaml:"directory"`
	Module    string `yaml:"module"`

	CallTimeout Duration `yaml:"call_timeout"`
	DialTimeout Duration `yaml:"dial_timeout"`
	QueueSize   int      `yaml:"queue_size"`
}

type ServerConfig struct {
	Transport      string   `yaml:"transport"`
	Address        string   `yaml:"address"`
	ReadTimeout    Duration `yaml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
	MaxConnections int      `yaml:"max_connections"`
}

const (
	TransportStdio = "stdio"
	TransportTCP   = "tcp"
	TransportWS    = "ws"
)

type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Client.Transport {
	case "", TransportStdio:
		if c.Client.Transport == TransportStdio && c.Client.Launch == "" {
			return fmt.Errorf("client.launch is required for the stdio transport")
		}
	case TransportTCP, TransportWS:
		if c.Client.Address == "" {
			return fmt.Errorf("client.address is required for the %s transport", c.Client.Transport)
		}
	default:
		return fmt.Errorf("unknown client.transport %q", c.Client.Transport)
	}
	return nil
}
