package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML form of a Config.
type FileConfig struct {
	Host     string `yaml:"host"`
	Port     uint16 `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  string `yaml:"timeout"`
	TLS      string `yaml:"tls"`

	// ServerName overrides certificate verification for strict TLS.
	ServerName string `yaml:"serverName"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes.
func Parse(data []byte) (Config, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return fc.Config()
}

// Config converts the file form into a resolved Config.
func (fc FileConfig) Config() (Config, error) {
	cfg := Config{
		Host:       fc.Host,
		Port:       fc.Port,
		ServerName: fc.ServerName,
	}

	if fc.Username != "" || fc.Password != "" {
		cfg.Auth = &Auth{Username: fc.Username, Password: fc.Password}
	}

	if fc.Timeout != "" {
		timeout, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = timeout
	}

	switch fc.TLS {
	case "", "off":
		cfg.TLS = TLSOff
	case "strict":
		cfg.TLS = TLSStrict
	case "insecure":
		cfg.TLS = TLSInsecure
	default:
		return Config{}, fmt.Errorf("unknown tls mode %q", fc.TLS)
	}

	return cfg.WithDefaults(), nil
}
