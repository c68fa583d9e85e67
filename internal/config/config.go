// Package config loads sand settings from defaults, sand.yaml, SAND_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	fileName  = "sand"
	envPrefix = "sand"
)

// Config holds every setting a sand command can take. Keys double as flag names.
type Config struct {
	LogLevel  string `mapstructure:"log-level" yaml:"log-level"`
	LogFormat string `mapstructure:"log-format" yaml:"log-format"`

	Keying               string `mapstructure:"keying" yaml:"keying"`
	Segment              string `mapstructure:"segment" yaml:"segment"`
	RequireSegmentation  bool   `mapstructure:"require-segmentation" yaml:"require-segmentation"`
	Compression          string `mapstructure:"compression" yaml:"compression"`
	CompressionThreshold int    `mapstructure:"compression-threshold" yaml:"compression-threshold"`

	Listen  string        `mapstructure:"listen" yaml:"listen"`
	Connect string        `mapstructure:"connect" yaml:"connect"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// TrustedPeers are hex fingerprints; when set, only they pass the handshake.
	// Keys are regenerated on every run, so a server cannot pin its clients.
	TrustedPeers []string `mapstructure:"trusted-peers" yaml:"trusted-peers,omitempty"`

	IntegrationCommand string `mapstructure:"integration-command" yaml:"integration-command,omitempty"`
	Hardware           bool   `mapstructure:"hardware" yaml:"hardware"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"log-level":             "info",
		"log-format":            "text",
		"keying":                "x25519",
		"segment":               "",
		"require-segmentation":  false,
		"compression":           "default",
		"compression-threshold": 512,
		"listen":                "127.0.0.1:4433",
		"connect":               "127.0.0.1:4433",
		"timeout":               10 * time.Second,
		"trusted-peers":         []string{},
		"integration-command":   "",
		"hardware":              false,
	}
}

// DefaultPath is where Write puts the user's sand.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, "sand", fileName+".yaml"), nil
}

// Load resolves the configuration for cmd. configFile, when non-empty, is
// read instead of searching the standard locations and must exist.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if path, err := DefaultPath(); err == nil {
			v.AddConfigPath(filepath.Dir(path))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return c, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Encode writes c to w as yaml.
func Encode(w io.Writer, c *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Write stores c as yaml at path, creating the directory if needed.
func Write(c *Config, path string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return err
	}
	data := buf.Bytes()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	return os.WriteFile(path, data, 0o600)
}
