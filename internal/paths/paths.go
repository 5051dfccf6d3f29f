// Package paths resolves the directories clawdash reads and writes, and the
// location of the gateway's own configuration directory.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appName = "clawdash"

// GatewayDirName is the gateway's configuration directory under $HOME.
const GatewayDirName = ".clawdbot"

func configRoot() (string, error) {
	return rootWithFallback("XDG_CONFIG_HOME", os.UserConfigDir, ".config")
}

func stateRoot() (string, error) {
	noOSDefault := func() (string, error) {
		return "", fmt.Errorf("no OS state directory function")
	}

	return rootWithFallback("XDG_STATE_HOME", noOSDefault, filepath.Join(".local", "state"))
}

func rootWithFallback(xdgEnv string, osFn func() (string, error), fallbackDir string) (string, error) {
	// XDG wins when set to an absolute path.
	if xdg := os.Getenv(xdgEnv); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, appName), nil
	}

	root, err := osFn()
	if err == nil && root != "" {
		return filepath.Join(root, appName), nil
	}

	home, homeErr := os.UserHomeDir()
	if homeErr == nil && home != "" {
		return filepath.Join(home, fallbackDir, appName), nil
	}

	if err != nil {
		return "", err
	}

	return "", fmt.Errorf("resolve user home directory")
}

// ConfigRoot returns the user config root directory for clawdash.
func ConfigRoot() (string, error) {
	return configRoot()
}

// StateRoot returns the user state root directory for clawdash.
func StateRoot() (string, error) {
	return stateRoot()
}

// ConfigFile returns the clawdash config file path.
func ConfigFile() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}

	return filepath.Join(root, "config.yaml"), nil
}

// DefaultLogFile returns the default log file path.
func DefaultLogFile() (string, error) {
	root, err := stateRoot()
	if err != nil {
		return "", err
	}

	return filepath.Join(root, "logs", "clawdash.log"), nil
}

// DefaultGatewayConfigDir returns ~/.clawdbot.
func DefaultGatewayConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}

	return filepath.Join(home, GatewayDirName), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
