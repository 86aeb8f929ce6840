// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Work-Fort/Strongbox/pkg/util"
)

// InitViper initializes Viper configuration with defaults and search paths
// Precedence order: ENV > store-conf > user-conf > defaults
func InitViper() {
	viper.SetConfigType(ConfigType)

	// Defaults (lowest precedence)
	for key, def := range ConfigRegistry {
		viper.SetDefault(key, def.Default)
	}
	viper.SetDefault("backup.location", GlobalPaths.BackupsDir)

	// Environment variables (highest precedence)
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// LoadConfig reads config files in precedence order
// Precedence: ENV > ./strongbox.yaml > ~/.config/strongbox/config.yaml > defaults
func LoadConfig() error {
	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(GlobalPaths.ConfigDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read user config file: %w", err)
		}
	} else {
		if err := validateConfigFile(ScopeUser); err != nil {
			return err
		}
		warnMisplacedKeys(ScopeUser)
	}

	// Store config overrides user config
	viper.SetConfigName(LocalConfigFile)
	viper.AddConfigPath(".")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read store config file: %w", err)
		}
	} else {
		if err := validateConfigFile(ScopeStore); err != nil {
			return err
		}
		warnMisplacedKeys(ScopeStore)
	}

	return nil
}

// GetUseTUI returns the use-tui configuration value
func GetUseTUI() bool {
	return viper.GetBool("use-tui")
}

// GetLogLevel returns the log-level configuration value
func GetLogLevel() string {
	return viper.GetString("log-level")
}

// GetStorePath returns the credential store directory
func GetStorePath() string {
	return util.ExpandHome(viper.GetString("store.path"))
}

// GetKeysPath returns the store's key file
func GetKeysPath() string {
	return filepath.Join(GetStorePath(), ".keys")
}

// GetGPGBinary returns the configured gpg executable, empty to search
func GetGPGBinary() string {
	return util.ExpandHome(viper.GetString("gpg.binary"))
}

// GetGPGHomedir returns the persistent keyring directory
func GetGPGHomedir() string {
	return util.ExpandHome(viper.GetString("gpg.homedir"))
}

// GetGPGRecipient returns the explicit recipient, empty when unset
func GetGPGRecipient() string {
	return viper.GetString("gpg.recipient")
}

// GetKeyLength returns the RSA key length for generated keys
func GetKeyLength() int {
	return viper.GetInt("gpg.key-length")
}

// GetTimeout returns the per-invocation gpg deadline; 0 means none
func GetTimeout() (time.Duration, error) {
	d, err := parseDuration(viper.GetString("gpg.timeout"))
	if err != nil {
		return 0, fmt.Errorf("gpg.timeout: %w", err)
	}
	return d, nil
}

// GetPassphraseFile returns whether decrypt passes the passphrase via a file
func GetPassphraseFile() bool {
	return viper.GetBool("gpg.passphrase-file")
}

// GetBackupLocation returns the directory for key file backups
func GetBackupLocation() string {
	return util.ExpandHome(viper.GetString("backup.location"))
}

// validateConfigFile validates that a config file holds only known keys,
// allowed in its scope, with valid values
func validateConfigFile(scope ConfigScope) error {
	configPath := getConfigPath(scope)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType(ConfigType)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file for validation: %w", err)
	}

	for _, key := range flattenKeys(v.AllSettings(), "") {
		if err := ValidateKeyScope(key, scope); err != nil {
			return fmt.Errorf("invalid key in config file %s: %w", configPath, err)
		}
		if err := ValidateValue(key, v.Get(key), scope); err != nil {
			return fmt.Errorf("invalid value in config file %s: %w", configPath, err)
		}
	}

	return nil
}

// warnMisplacedKeys logs, at debug level, keys that are conventionally set
// in the other scope
func warnMisplacedKeys(scope ConfigScope) {
	configPath := getConfigPath(scope)

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType(ConfigType)
	if err := v.ReadInConfig(); err != nil {
		return
	}

	for _, key := range flattenKeys(v.AllSettings(), "") {
		def := GetKeyDefinition(key)
		if def == nil {
			continue
		}

		// A key forbidden in one scope belongs in the other
		var recommended ConfigScope
		switch {
		case def.StoreConstraints != nil && def.StoreConstraints.Forbidden:
			recommended = ScopeUser
		case def.UserConstraints != nil && def.UserConstraints.Forbidden:
			recommended = ScopeStore
		default:
			continue
		}

		if recommended != scope {
			log.Debugf("Key '%s' in %s config (typically in %s config: %s)",
				key, getScopeName(scope), getScopeName(recommended), getConfigPath(recommended))
		}
	}
}

// BindFlags binds all relevant cobra flags to Viper
func BindFlags(flags *pflag.FlagSet) error {
	flagsToBind := map[string]string{
		"use-tui":   "use-tui",
		"log-level": "log-level",
		"store":     "store.path",
		"gpg":       "gpg.binary",
		"homedir":   "gpg.homedir",
		"recipient": "gpg.recipient",
		"timeout":   "gpg.timeout",
	}

	for flagName, key := range flagsToBind {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
		}
	}

	return nil
}
