// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// GitHub repository
	GitHubRepo = "Work-Fort/Strongbox"

	// Configuration
	EnvPrefix        = "STRONGBOX"    // Environment variable prefix for Viper
	ConfigFileName   = "config"       // Config file name for XDG config dir (without extension)
	LocalConfigFile  = "strongbox"    // Config file name for current directory (without extension)
	ConfigType       = "yaml"         // Config file type
	DefaultConfigExt = ".yaml"        // Default config file extension
	DefaultStoreDir  = "~/.strongbox" // Credential store used when store.path is unset
	DefaultGPGHome   = "~/.gnupg"     // Persistent keyring used when gpg.homedir is unset

	// PassphraseEnv supplies the store passphrase non-interactively
	PassphraseEnv = EnvPrefix + "_PASSPHRASE"
)

// Paths holds all XDG-compliant directory paths
type Paths struct {
	DataDir   string
	ConfigDir string

	// Subdirectories
	BackupsDir string // Default destination of `keys backup`
	LogFile    string // JSON debug log
}

var (
	// GlobalPaths is the global paths instance
	GlobalPaths *Paths
)

func init() {
	GlobalPaths = GetPaths()
}

// xdgDir returns $env, or home/fallback when the variable is unset
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get home directory: %v\n", err)
		os.Exit(1)
	}
	return filepath.Join(home, fallback)
}

// GetPaths returns XDG-compliant directory paths
func GetPaths() *Paths {
	dataDir := filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "strongbox")
	configDir := filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "strongbox")

	return &Paths{
		DataDir:    dataDir,
		ConfigDir:  configDir,
		BackupsDir: filepath.Join(dataDir, "backups"),
		LogFile:    filepath.Join(dataDir, "debug.log"),
	}
}

// IsStoreConfig returns true when a strongbox.yaml exists in the current
// working directory
func IsStoreConfig() bool {
	_, err := os.Stat(filepath.Join(".", LocalConfigFile+DefaultConfigExt))
	return err == nil
}

// InitDirs creates the directories Strongbox writes to, all private to the user
func InitDirs() error {
	dirs := []string{
		GlobalPaths.DataDir,
		GlobalPaths.ConfigDir,
		GlobalPaths.BackupsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
