// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/Work-Fort/Strongbox/pkg/util"
)

// ScopeConstraints defines per-scope validation rules for a configuration key
type ScopeConstraints struct {
	Forbidden  bool     // If true, this key cannot be set in this scope
	EnumValues []string // Valid enum values for this scope (overrides global EnumValues if set)
	Pattern    string   // Regex pattern for this scope (overrides global Pattern if set)
}

// ConfigKeyDefinition defines metadata for a configuration key
type ConfigKeyDefinition struct {
	Key         string      // Configuration key (dot notation)
	Type        string      // "string", "bool", "enum", "int", "duration"
	Default     interface{} // Default value
	Description string      // Help text

	// Global constraints (apply unless overridden by scope-specific constraints)
	EnumValues []string // Valid values for enum type (if Type="enum")
	Pattern    string   // Regex pattern for validation (if Type="string")
	Min, Max   int      // Inclusive range for Type="int" (ignored when both are zero)

	// Per-scope constraints (optional - if nil, key is allowed in scope with global constraints)
	UserConstraints  *ScopeConstraints // Constraints when setting in user config
	StoreConstraints *ScopeConstraints // Constraints when setting in store config
}

// Key length bounds accepted by gpg's batch key generation
const (
	MinKeyLength = 1024
	MaxKeyLength = 4096
)

// ConfigRegistry holds all known configuration keys with per-scope constraints.
//
// Constraint System:
//   - No constraints: Key can be set in any scope with same validation rules
//   - Forbidden constraint: Key cannot be set in the specified scope
//   - Scope-specific EnumValues: Different allowed values per scope
//   - Scope-specific Pattern: Different regex validation per scope
var ConfigRegistry = map[string]ConfigKeyDefinition{
	"use-tui": {
		Key:         "use-tui",
		Type:        "bool",
		Default:     true,
		Description: "Use TUI for interactive prompts",
	},

	"log-level": {
		Key:         "log-level",
		Type:        "enum",
		Default:     "info",
		Description: "Log verbosity level",
		EnumValues:  []string{"disabled", "debug", "info", "warn", "error"},
	},

	"store.path": {
		Key:         "store.path",
		Type:        "string",
		Default:     DefaultStoreDir,
		Description: "Credential store directory (holds the store's .keys file)",
	},

	"gpg.binary": {
		Key:         "gpg.binary",
		Type:        "string",
		Default:     "",
		Description: "gpg executable to use instead of searching for gpg2, then gpg",
	},

	"gpg.homedir": {
		Key:         "gpg.homedir",
		Type:        "string",
		Default:     DefaultGPGHome,
		Description: "Persistent keyring used for encryption and decryption",
	},

	"gpg.recipient": {
		Key:         "gpg.recipient",
		Type:        "string",
		Default:     "",
		Description: "Fingerprint to encrypt to, bypassing recipient lookup",
		Pattern:     "^([0-9A-Fa-f]{8}|[0-9A-Fa-f]{16}|[0-9A-Fa-f]{40})?$",
		StoreConstraints: &ScopeConstraints{
			Forbidden: true,
		},
	},

	"gpg.key-length": {
		Key:         "gpg.key-length",
		Type:        "int",
		Default:     4096,
		Description: "RSA key length for generated store keys",
		Min:         MinKeyLength,
		Max:         MaxKeyLength,
	},

	"gpg.timeout": {
		Key:         "gpg.timeout",
		Type:        "duration",
		Default:     "0",
		Description: "Deadline for each gpg invocation (Go duration, 0 disables)",
	},

	"gpg.passphrase-file": {
		Key:         "gpg.passphrase-file",
		Type:        "bool",
		Default:     false,
		Description: "Pass the decryption passphrase through a private temporary file instead of the command line",
		StoreConstraints: &ScopeConstraints{
			Forbidden: true,
		},
	},

	"backup.location": {
		Key:         "backup.location",
		Type:        "string",
		Default:     "", // Set in InitViper() using GlobalPaths.BackupsDir
		Description: "Directory for key file backups",
	},
}

// GetKeyDefinition returns the definition for a key, or nil if not found
func GetKeyDefinition(key string) *ConfigKeyDefinition {
	if def, ok := ConfigRegistry[key]; ok {
		return &def
	}
	return nil
}

func (def *ConfigKeyDefinition) constraints(scope ConfigScope) *ScopeConstraints {
	switch scope {
	case ScopeUser:
		return def.UserConstraints
	case ScopeStore:
		return def.StoreConstraints
	}
	return nil
}

// ValidateKeyScope checks if a key can be set in the given scope
// Returns an error if the key is forbidden in the specified scope
func ValidateKeyScope(key string, scope ConfigScope) error {
	def := GetKeyDefinition(key)
	if def == nil {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	constraints := def.constraints(scope)
	if constraints == nil || !constraints.Forbidden {
		return nil
	}

	switch scope {
	case ScopeUser:
		return fmt.Errorf(
			"key '%s' cannot be set in user config\n\n"+
				"Hint: Remove --global flag:\n"+
				"  strongbox config set %s <value>",
			key,
			key,
		)
	default:
		return fmt.Errorf(
			"key '%s' cannot be set in store config (personal setting)\n\n"+
				"Hint: Use --global flag:\n"+
				"  strongbox config set --global %s <value>\n\n"+
				"User config: ~/.config/strongbox/config.yaml",
			key,
			key,
		)
	}
}

// ValidateValue checks if a value is valid for the given key in the specified scope
// Applies per-scope constraints if defined, otherwise uses global constraints
func ValidateValue(key string, value interface{}, scope ConfigScope) error {
	def := GetKeyDefinition(key)
	if def == nil {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	constraints := def.constraints(scope)

	switch def.Type {
	case "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("key '%s' must be a boolean", key)
		}

	case "int":
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("key '%s' must be an integer", key)
		}
		if (def.Min != 0 || def.Max != 0) && (n < def.Min || n > def.Max) {
			return fmt.Errorf("key '%s' must be between %d and %d (got %d)", key, def.Min, def.Max, n)
		}

	case "duration":
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("key '%s': %w", key, err)
		}

	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("key '%s' must be a string", key)
		}

		pattern := def.Pattern
		if constraints != nil && constraints.Pattern != "" {
			pattern = constraints.Pattern
		}
		if pattern != "" {
			matched, err := regexp.MatchString(pattern, str)
			if err != nil {
				return fmt.Errorf("pattern validation error: %w", err)
			}
			if !matched {
				return fmt.Errorf(
					"key '%s' value '%s' does not match required format for %s scope",
					key,
					str,
					getScopeName(scope),
				)
			}
		}

	case "enum":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("key '%s' must be a string", key)
		}

		enumValues := def.EnumValues
		if constraints != nil && constraints.EnumValues != nil {
			enumValues = constraints.EnumValues
		}

		valid := false
		for _, enumVal := range enumValues {
			if str == enumVal {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf(
				"key '%s' must be one of %v in %s scope (got '%s')",
				key,
				enumValues,
				getScopeName(scope),
				str,
			)
		}
	}

	// Directory keys must not name an existing file
	switch key {
	case "store.path", "gpg.homedir", "backup.location":
		if err := validateDirPath(value.(string)); err != nil {
			return fmt.Errorf("key '%s': %w", key, err)
		}
	}

	return nil
}

// parseDuration accepts a Go duration string or the integer 0
func parseDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case int:
		if v != 0 {
			return 0, fmt.Errorf("duration %d needs a unit (e.g. %ds)", v, v)
		}
		return 0, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		if d < 0 {
			return 0, fmt.Errorf("duration must not be negative")
		}
		return d, nil
	}
	return 0, fmt.Errorf("must be a duration such as 30s or 2m")
}

// validateDirPath validates a directory setting
// - Can be absolute, relative or start with ~
// - Must be existing directory OR non-existent (will be created)
// - Must NOT point to an existing file
func validateDirPath(path string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(util.ExpandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot access path: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path points to an existing file; must be a directory or non-existent path")
	}

	return nil
}
