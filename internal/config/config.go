// Package config handles clawdash configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (CLAWDASH_*)
//  2. Config file (~/.config/clawdash/config.yaml)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/musher-dev/clawdash/internal/paths"
)

// Keys.
const (
	KeyGatewayBin           = "gateway.bin"
	KeyGatewayConfigDir     = "gateway.config_dir"
	KeyGatewayProcessName   = "gateway.process_name"
	KeyGatewayTimeout       = "gateway.timeout"
	KeyGatewayStatusTimeout = "gateway.status_timeout"
	KeyGatewayDefaultModel  = "gateway.default_model"
	KeyServerPort           = "server.port"
	KeyServerAllowedOrigins = "server.allowed_origins"
	KeyServerAPIURL         = "server.api_url"
	KeyPollSessions         = "poll.sessions"
	KeyPollJobs             = "poll.jobs"
	KeyPollAgents           = "poll.agents"
	KeyPollStatus           = "poll.status"
)

var knownKeys = []string{
	KeyGatewayBin,
	KeyGatewayConfigDir,
	KeyGatewayProcessName,
	KeyGatewayTimeout,
	KeyGatewayStatusTimeout,
	KeyGatewayDefaultModel,
	KeyServerPort,
	KeyServerAllowedOrigins,
	KeyServerAPIURL,
	KeyPollSessions,
	KeyPollJobs,
	KeyPollAgents,
	KeyPollStatus,
}

// Defaults.
const (
	DefaultGatewayBin           = "clawdbot"
	DefaultGatewayConfigDir     = "~/" + paths.GatewayDirName
	DefaultGatewayProcessName   = "clawdbot-gateway"
	DefaultGatewayTimeout       = 15 * time.Second
	DefaultGatewayStatusTimeout = 5 * time.Second
	DefaultServerPort           = 3001
	DefaultAllowedOrigins       = "*"
	DefaultAPIURL               = "http://localhost:3001"
	DefaultPollSessions         = 5 * time.Second
	DefaultPollJobs             = 10 * time.Second
	DefaultPollAgents           = 30 * time.Second
	DefaultPollStatus           = 5 * time.Second
)

// Config holds the clawdash configuration.
type Config struct {
	v    *viper.Viper
	file string
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	v.SetDefault(KeyGatewayBin, DefaultGatewayBin)
	v.SetDefault(KeyGatewayConfigDir, DefaultGatewayConfigDir)
	v.SetDefault(KeyGatewayProcessName, DefaultGatewayProcessName)
	v.SetDefault(KeyGatewayTimeout, DefaultGatewayTimeout.String())
	v.SetDefault(KeyGatewayStatusTimeout, DefaultGatewayStatusTimeout.String())
	v.SetDefault(KeyGatewayDefaultModel, "")
	v.SetDefault(KeyServerPort, DefaultServerPort)
	v.SetDefault(KeyServerAllowedOrigins, DefaultAllowedOrigins)
	v.SetDefault(KeyServerAPIURL, DefaultAPIURL)
	v.SetDefault(KeyPollSessions, DefaultPollSessions.String())
	v.SetDefault(KeyPollJobs, DefaultPollJobs.String())
	v.SetDefault(KeyPollAgents, DefaultPollAgents.String())
	v.SetDefault(KeyPollStatus, DefaultPollStatus.String())

	file, err := paths.ConfigFile()
	if err == nil {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CLAWDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v, file: file}
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError

	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Get returns a configuration value.
func (c *Config) Get(key string) any {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// Keys lists every supported key in display order.
func Keys() []string {
	return slices.Clone(knownKeys)
}

// IsKnown reports whether key is one clawdash understands.
func IsKnown(key string) bool {
	return slices.Contains(knownKeys, key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value any) error {
	if c.file == "" {
		return fmt.Errorf("no config file location available")
	}

	c.v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(c.file), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := c.v.WriteConfigAs(c.file); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// File returns the config file path, empty when none could be resolved.
func (c *Config) File() string {
	return c.file
}

// All returns all configuration as a map.
func (c *Config) All() map[string]any {
	return c.v.AllSettings()
}

// GatewayBin returns the gateway CLI name or path.
func (c *Config) GatewayBin() string {
	return c.GetString(KeyGatewayBin)
}

// GatewayConfigDir returns the gateway configuration directory with "~"
// expanded.
func (c *Config) GatewayConfigDir() string {
	return paths.ExpandHome(c.GetString(KeyGatewayConfigDir))
}

// GatewayProcessName returns the process-table name of the gateway daemon.
func (c *Config) GatewayProcessName() string {
	return c.GetString(KeyGatewayProcessName)
}

// GatewayTimeout bounds each gateway CLI call.
func (c *Config) GatewayTimeout() time.Duration {
	return c.duration(KeyGatewayTimeout, DefaultGatewayTimeout)
}

// GatewayStatusTimeout bounds the gateway status probe.
func (c *Config) GatewayStatusTimeout() time.Duration {
	return c.duration(KeyGatewayStatusTimeout, DefaultGatewayStatusTimeout)
}

// DefaultModel is the model reported for agents that configure none.
func (c *Config) DefaultModel() string {
	return c.GetString(KeyGatewayDefaultModel)
}

// ServerPort returns the API server port.
func (c *Config) ServerPort() int {
	return c.GetInt(KeyServerPort)
}

// AllowedOrigins returns the raw comma-separated CORS origin list.
func (c *Config) AllowedOrigins() string {
	return c.GetString(KeyServerAllowedOrigins)
}

// APIURL returns the API server URL used by remote dashboards.
func (c *Config) APIURL() string {
	return c.GetString(KeyServerAPIURL)
}

// PollSessions is the sessions refresh interval.
func (c *Config) PollSessions() time.Duration {
	return c.duration(KeyPollSessions, DefaultPollSessions)
}

// PollJobs is the jobs refresh interval.
func (c *Config) PollJobs() time.Duration {
	return c.duration(KeyPollJobs, DefaultPollJobs)
}

// PollAgents is the agents refresh interval. Zero means on-demand only.
func (c *Config) PollAgents() time.Duration {
	return c.duration(KeyPollAgents, DefaultPollAgents)
}

// PollStatus is the gateway status refresh interval.
func (c *Config) PollStatus() time.Duration {
	return c.duration(KeyPollStatus, DefaultPollStatus)
}

// duration parses key as a Go duration. Bare integers are read as seconds.
// Unparseable or negative values fall back to def.
func (c *Config) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(c.GetString(key))
	if raw == "" {
		return def
	}

	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}

	if secs := c.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second
	}

	return def
}
