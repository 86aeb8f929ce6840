// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"reflect"
	"testing"
)

func TestArgumentVectors(t *testing.T) {
	legacy := testTool("1.4.23")

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{
			name: "gen-key",
			got:  genKeyArgs(legacy, "/h"),
			want: []string{"/usr/bin/gpg", "--batch", "--no-tty", "--homedir", "/h", "--gen-key"},
		},
		{
			name: "export public",
			got:  exportArgs(legacy, "/h", false, false),
			want: []string{"/usr/bin/gpg", "--no-version", "--batch", "--homedir", "/h", "--export", "--armor", "-o", "-"},
		},
		{
			name: "export secret",
			got:  exportArgs(legacy, "/h", true, false),
			want: []string{"/usr/bin/gpg", "--no-version", "--batch", "--homedir", "/h", "--export-secret-keys", "--armor", "-o", "-"},
		},
		{
			name: "import",
			got:  importArgs(legacy, "/h", "/store/.keys"),
			want: []string{"/usr/bin/gpg", "--no-tty", "--homedir", "/h", "--import", "/store/.keys"},
		},
		{
			name: "list public",
			got:  listArgs(legacy, "/h", false),
			want: []string{"/usr/bin/gpg", "--no-tty", "--list-public-keys", "--fingerprint", "--homedir", "/h"},
		},
		{
			name: "list secret",
			got:  listArgs(legacy, "/h", true),
			want: []string{"/usr/bin/gpg", "--no-tty", "--list-secret-keys", "--fingerprint", "--homedir", "/h"},
		},
		{
			name: "encrypt",
			got:  encryptArgs(legacy, testFingerprint, "/h"),
			want: []string{"/usr/bin/gpg", "--batch", "--no-tty", "--always-trust", "--armor", "--recipient", testFingerprint, "--homedir", "/h", "--encrypt"},
		},
		{
			name: "decrypt",
			got:  decryptArgs(legacy, testFingerprint, "/h", passphraseArg{"--passphrase", "pw"}),
			want: []string{"/usr/bin/gpg", "--batch", "--no-tty", "--always-trust", "--recipient", testFingerprint, "--homedir", "/h", "--passphrase", "pw", "--emit-version", "-o", "-", "-d", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("args = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestArgumentVectors_Loopback(t *testing.T) {
	modern := testTool("2.2.40")

	decrypt := decryptArgs(modern, testFingerprint, "/h", passphraseArg{"--passphrase", "pw"})
	want := []string{"/usr/bin/gpg", "--batch", "--no-tty", "--always-trust", "--recipient", testFingerprint, "--homedir", "/h",
		"--pinentry-mode", "loopback", "--passphrase", "pw", "--emit-version", "-o", "-", "-d", "-"}
	if !reflect.DeepEqual(decrypt, want) {
		t.Errorf("decrypt args = %q, want %q", decrypt, want)
	}

	export := exportArgs(modern, "/h", true, true)
	want = []string{"/usr/bin/gpg", "--no-version", "--batch", "--pinentry-mode", "loopback", "--passphrase-fd", "0",
		"--homedir", "/h", "--export-secret-keys", "--armor", "-o", "-"}
	if !reflect.DeepEqual(export, want) {
		t.Errorf("export args = %q, want %q", export, want)
	}

	imp := importArgs(modern, "/h", "/k")
	if !hasArg(imp, "--batch") {
		t.Errorf("import args for %s should include --batch: %q", modern, imp)
	}
}

func TestRedactArgs(t *testing.T) {
	args := []string{"gpg", "--passphrase", "hunter2", "-d", "-"}
	got := redactArgs(args)

	if containsSecret(got, "hunter2") {
		t.Errorf("redactArgs() = %q, still contains the passphrase", got)
	}
	if args[2] != "hunter2" {
		t.Error("redactArgs() must not modify its input")
	}
	if got[1] != "--passphrase" || got[3] != "-d" {
		t.Errorf("redactArgs() = %q, other arguments should be preserved", got)
	}
}
