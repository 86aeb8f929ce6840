// SPDX-License-Identifier: Apache-2.0
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// setupConfig isolates GlobalPaths, the working directory and viper
func setupConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	oldPaths := GlobalPaths
	GlobalPaths = &Paths{
		DataDir:    filepath.Join(tmpDir, "data"),
		ConfigDir:  filepath.Join(tmpDir, "config"),
		BackupsDir: filepath.Join(tmpDir, "data", "backups"),
	}

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	work := filepath.Join(tmpDir, "work")
	os.MkdirAll(work, 0755)
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}

	viper.Reset()
	t.Cleanup(func() {
		os.Chdir(oldWd)
		GlobalPaths = oldPaths
		viper.Reset()
	})
	return tmpDir
}

func TestSetConfigValue(t *testing.T) {
	setupConfig(t)

	if err := SetConfigValue("gpg.key-length", "2048", ScopeUser); err != nil {
		t.Fatalf("SetConfigValue() error = %v", err)
	}
	if err := SetConfigValue("store.path", "team-store", ScopeStore); err != nil {
		t.Fatalf("SetConfigValue() error = %v", err)
	}

	user, err := os.ReadFile(filepath.Join(GlobalPaths.ConfigDir, "config.yaml"))
	if err != nil {
		t.Fatalf("user config not written: %v", err)
	}
	if !strings.Contains(string(user), "key-length: 2048") {
		t.Errorf("user config = %q", user)
	}

	store, err := os.ReadFile("strongbox.yaml")
	if err != nil {
		t.Fatalf("store config not written: %v", err)
	}
	if !strings.Contains(string(store), "path: team-store") {
		t.Errorf("store config = %q", store)
	}
}

func TestSetConfigValue_Rejects(t *testing.T) {
	setupConfig(t)

	if err := SetConfigValue("gpg.recipient", "0123456789ABCDEF", ScopeStore); err == nil {
		t.Error("gpg.recipient should be rejected in store scope")
	}
	if err := SetConfigValue("log-level", "loud", ScopeUser); err == nil {
		t.Error("invalid enum should be rejected")
	}
	if err := SetConfigValue("gpg.timeout", "30", ScopeUser); err == nil {
		t.Error("timeout without a unit should be rejected")
	}
	if _, err := os.Stat("strongbox.yaml"); !os.IsNotExist(err) {
		t.Error("rejected values must not create a config file")
	}
}

func TestUnsetConfigValue(t *testing.T) {
	setupConfig(t)

	if err := UnsetConfigValue("gpg.homedir", ScopeUser); err == nil {
		t.Error("UnsetConfigValue should fail without a config file")
	}

	SetConfigValue("gpg.homedir", "/tmp/keyring", ScopeUser)
	SetConfigValue("use-tui", "false", ScopeUser)

	if err := UnsetConfigValue("gpg.homedir", ScopeUser); err != nil {
		t.Fatalf("UnsetConfigValue() error = %v", err)
	}
	if err := UnsetConfigValue("gpg.homedir", ScopeUser); err == nil {
		t.Error("second unset should report the key as missing")
	}

	data, _ := os.ReadFile(filepath.Join(GlobalPaths.ConfigDir, "config.yaml"))
	if strings.Contains(string(data), "homedir") || !strings.Contains(string(data), "use-tui") {
		t.Errorf("config after unset = %q", data)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	setupConfig(t)
	SetConfigValue("gpg.key-length", "2048", ScopeUser)
	SetConfigValue("gpg.homedir", "/user/keyring", ScopeUser)
	SetConfigValue("gpg.homedir", "/store/keyring", ScopeStore)

	InitViper()
	if err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if got := GetKeyLength(); got != 2048 {
		t.Errorf("GetKeyLength() = %d, want user value 2048", got)
	}
	if got := GetGPGHomedir(); got != "/store/keyring" {
		t.Errorf("GetGPGHomedir() = %q, store config should win", got)
	}
	if got := GetLogLevel(); got != "info" {
		t.Errorf("GetLogLevel() = %q, want default info", got)
	}
	if got := GetBackupLocation(); got != GlobalPaths.BackupsDir {
		t.Errorf("GetBackupLocation() = %q, want %q", got, GlobalPaths.BackupsDir)
	}

	t.Setenv("STRONGBOX_GPG_HOMEDIR", "/env/keyring")
	if got := GetGPGHomedir(); got != "/env/keyring" {
		t.Errorf("GetGPGHomedir() = %q, environment should win", got)
	}

	value, err := GetConfigValue("gpg.homedir")
	if err != nil {
		t.Fatal(err)
	}
	if value.Source != "from ENV: STRONGBOX_GPG_HOMEDIR" {
		t.Errorf("source = %q", value.Source)
	}
	value, _ = GetConfigValue("gpg.key-length")
	if !strings.Contains(value.Source, "config.yaml") {
		t.Errorf("source = %q, want the user config", value.Source)
	}
	value, _ = GetConfigValue("use-tui")
	if value.Source != "default" {
		t.Errorf("source = %q, want default", value.Source)
	}
}

func TestLoadConfig_RejectsForbiddenStoreKey(t *testing.T) {
	setupConfig(t)
	os.WriteFile("strongbox.yaml", []byte("gpg:\n  recipient: 0123456789ABCDEF\n"), 0600)

	InitViper()
	if err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject gpg.recipient in the store config")
	}
}

func TestGetTimeout(t *testing.T) {
	setupConfig(t)
	InitViper()

	d, err := GetTimeout()
	if err != nil || d != 0 {
		t.Errorf("default GetTimeout() = %s, %v", d, err)
	}

	t.Setenv("STRONGBOX_GPG_TIMEOUT", "45s")
	d, err = GetTimeout()
	if err != nil || d != 45*time.Second {
		t.Errorf("GetTimeout() = %s, %v, want 45s", d, err)
	}

	t.Setenv("STRONGBOX_GPG_TIMEOUT", "later")
	if _, err := GetTimeout(); err == nil {
		t.Error("GetTimeout() should reject an invalid duration")
	}
}

func TestListConfigValues(t *testing.T) {
	setupConfig(t)
	InitViper()

	values, err := ListConfigValues()
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(values); i++ {
		if values[i-1].Key > values[i].Key {
			t.Errorf("values not sorted: %s before %s", values[i-1].Key, values[i].Key)
		}
	}

	found := false
	for _, v := range values {
		if v.Key == "gpg.key-length" {
			found = true
		}
	}
	if !found {
		t.Error("ListConfigValues() should include registry defaults")
	}
}

func TestDeleteNestedKey(t *testing.T) {
	m := map[string]interface{}{
		"gpg": map[string]interface{}{"homedir": "/x", "binary": "gpg2"},
	}

	if err := deleteNestedKey(m, "gpg.homedir"); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["gpg"].(map[string]interface{})["homedir"]; ok {
		t.Error("key should be removed")
	}
	if err := deleteNestedKey(m, "gpg.missing"); err == nil {
		t.Error("missing key should be an error")
	}
	if err := deleteNestedKey(m, "gpg.binary.deep"); err == nil {
		t.Error("traversing a scalar should be an error")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"true", true},
		{"off", false},
		{"4096", 4096},
		{"30s", "30s"},
		{"1.5", "1.5"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
		}
	}
}
