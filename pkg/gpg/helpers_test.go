// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-version"
)

// invocation is one recorded Runner call
type invocation struct {
	Args  []string
	Stdin []byte
}

// fakeRunner records calls and answers them through respond
type fakeRunner struct {
	calls   []invocation
	respond func(args []string, input []byte) Result
}

func (f *fakeRunner) Call(ctx context.Context, args []string, input []byte) (Result, error) {
	var stdin []byte
	if input != nil {
		stdin = append([]byte{}, input...)
	}
	f.calls = append(f.calls, invocation{Args: append([]string{}, args...), Stdin: stdin})
	if f.respond == nil {
		return Result{}, nil
	}
	return f.respond(args, input), nil
}

// callsWith returns the recorded calls whose arguments include flag
func (f *fakeRunner) callsWith(flag string) []invocation {
	var out []invocation
	for _, c := range f.calls {
		if hasArg(c.Args, flag) {
			out = append(out, c)
		}
	}
	return out
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func containsSecret(args []string, secret string) bool {
	for _, a := range args {
		if strings.Contains(a, secret) {
			return true
		}
	}
	return false
}

const (
	testFingerprint       = "0123456789ABCDEF0123456789ABCDEF01234567"
	testSpacedFingerprint = "0123 4567 89AB CDEF 0123  4567 89AB CDEF 0123 4567"
)

func testTool(v string) Tool {
	tool := Tool{Path: "/usr/bin/gpg"}
	if v != "" {
		tool.Version = version.Must(version.NewVersion(v))
	}
	return tool
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func bufferLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf), &buf
}

func listing(fingerprint string) []byte {
	return []byte("/tmp/home/pubring.kbx\n---------------------\n" +
		"pub   rsa2048 2024-01-01 [SCEA]\n" +
		"      " + fingerprint + "\n" +
		"uid           [ultimate] Strongbox (Auto-generated by Strongbox) <strongbox@local>\n")
}

func writeKeysFile(t *testing.T, store string) string {
	t.Helper()
	path := filepath.Join(store, KeysFileName)
	data := "-----BEGIN PGP PUBLIC KEY BLOCK-----\n\nAAAA\n-----END PGP PUBLIC KEY BLOCK-----\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
