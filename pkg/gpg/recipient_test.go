// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    string
	}{
		{
			name:    "spaced groups",
			listing: "pub   2048R/01234567 2024-01-01\n      Key fingerprint = " + testSpacedFingerprint + "\nuid Strongbox\n",
			want:    testFingerprint,
		},
		{
			name:    "contiguous",
			listing: string(listing(testFingerprint)),
			want:    testFingerprint,
		},
		{
			name:    "first of several",
			listing: string(listing(testFingerprint)) + string(listing("FEDCBA9876543210FEDCBA9876543210FEDCBA98")),
			want:    testFingerprint,
		},
		{
			name:    "short key id only",
			listing: "sec   rsa4096/89ABCDEF01234567 2024-01-01\n",
			want:    "",
		},
		{
			name:    "after a long line",
			listing: "uid " + strings.Repeat("x", 128*1024) + "\n" + string(listing(testFingerprint)),
			want:    testFingerprint,
		},
		{
			name:    "empty",
			listing: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFingerprint([]byte(tt.listing)); got != tt.want {
				t.Errorf("ParseFingerprint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_ExplicitRecipientWins(t *testing.T) {
	store := t.TempDir()
	writeKeysFile(t, store)
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{Stdout: listing(testFingerprint)}
	}}

	r := NewResolver(Options{
		Tool:      testTool("2.2.40"),
		Runner:    runner,
		Logger:    discardLogger(),
		Homedir:   t.TempDir(),
		StorePath: store,
		Recipient: "EXPLICIT",
	})

	for _, secret := range []bool{false, true} {
		got, err := r.Resolve(context.Background(), secret)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got != "EXPLICIT" {
			t.Errorf("Resolve(%v) = %q, want EXPLICIT", secret, got)
		}
	}
	if len(runner.calls) != 0 {
		t.Errorf("explicit recipient should not run gpg, got %d calls", len(runner.calls))
	}
}

func TestResolve_StoreKeysTier(t *testing.T) {
	store := t.TempDir()
	keysPath := writeKeysFile(t, store)
	systemHome := t.TempDir()

	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		if hasArg(args, "--list-secret-keys") && argAfter(args, "--homedir") != systemHome {
			return Result{Stdout: listing(testFingerprint)}
		}
		return Result{Stdout: listing("FEDCBA9876543210FEDCBA9876543210FEDCBA98")}
	}}

	r := NewResolver(Options{
		Tool:      testTool("1.4.23"),
		Runner:    runner,
		Logger:    discardLogger(),
		Homedir:   systemHome,
		StorePath: store,
	})

	got, err := r.Resolve(context.Background(), true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != testFingerprint {
		t.Errorf("Resolve() = %q, want the store key %q", got, testFingerprint)
	}

	imports := runner.callsWith("--import")
	if len(imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(imports))
	}
	tempHome := argAfter(imports[0].Args, "--homedir")
	if tempHome == systemHome || !strings.Contains(tempHome, TempHomedirPrefix) {
		t.Errorf("import should target a temporary homedir, got %q", tempHome)
	}
	if argAfter(imports[0].Args, "--import") != keysPath {
		t.Errorf("import path = %q, want %q", argAfter(imports[0].Args, "--import"), keysPath)
	}

	lists := runner.callsWith("--list-secret-keys")
	if len(lists) != 1 || argAfter(lists[0].Args, "--homedir") != tempHome {
		t.Errorf("listing should run in the import homedir %q: %+v", tempHome, lists)
	}
	if _, err := os.Stat(tempHome); !os.IsNotExist(err) {
		t.Errorf("temporary homedir %s should be removed, stat err = %v", tempHome, err)
	}
}

func TestResolve_SystemKeyringTier(t *testing.T) {
	systemHome := t.TempDir()
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{Stdout: listing(testFingerprint)}
	}}

	r := NewResolver(Options{
		Tool:      testTool("1.4.23"),
		Runner:    runner,
		Logger:    discardLogger(),
		Homedir:   systemHome,
		StorePath: t.TempDir(), // no .keys file
	})

	got, err := r.Resolve(context.Background(), false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != testFingerprint {
		t.Errorf("Resolve() = %q, want %q", got, testFingerprint)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected a single listing, got %d calls", len(runner.calls))
	}
	if !hasArg(runner.calls[0].Args, "--list-public-keys") || argAfter(runner.calls[0].Args, "--homedir") != systemHome {
		t.Errorf("unexpected listing args %q", runner.calls[0].Args)
	}
}

func TestDefaultRecipient_WarningOnSuccess(t *testing.T) {
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{
			Stdout: listing(testFingerprint),
			Stderr: []byte("gpg: WARNING: unsafe permissions on homedir '/tmp/home'\n"),
		}
	}}
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	r := NewResolver(Options{Tool: testTool("2.2.40"), Runner: runner, Logger: logger})
	got, err := r.DefaultRecipient(context.Background(), t.TempDir(), false)
	if err != nil {
		t.Fatalf("DefaultRecipient() error = %v", err)
	}
	if got != testFingerprint {
		t.Errorf("DefaultRecipient() = %q, want %q from a successful listing", got, testFingerprint)
	}

	out := buf.String()
	if !strings.Contains(out, "unsafe permissions") {
		t.Errorf("warning should be logged, got %q", out)
	}
	if strings.Contains(out, "ERRO") {
		t.Errorf("warning from a successful run should not be logged as an error: %q", out)
	}
}

func TestDefaultRecipient_FailedListing(t *testing.T) {
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{Stdout: listing(testFingerprint), Stderr: []byte("gpg: keydb_search failed"), ExitCode: 2}
	}}

	r := NewResolver(Options{Tool: testTool("2.2.40"), Runner: runner, Logger: discardLogger()})
	got, err := r.DefaultRecipient(context.Background(), t.TempDir(), true)
	if err != nil {
		t.Fatalf("DefaultRecipient() error = %v", err)
	}
	if got != "" {
		t.Errorf("DefaultRecipient() = %q, want empty after a failed listing", got)
	}
}

func TestResolve_NoRecipient(t *testing.T) {
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{Stderr: []byte("gpg: keyring not found"), ExitCode: 2}
	}}

	r := NewResolver(Options{
		Tool:    testTool("1.4.23"),
		Runner:  runner,
		Logger:  discardLogger(),
		Homedir: t.TempDir(),
	})

	got, err := r.Resolve(context.Background(), false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "" {
		t.Errorf("Resolve() = %q, want empty recipient", got)
	}
}

func TestResolve_ToolNotFound(t *testing.T) {
	r := NewResolver(Options{Logger: discardLogger(), Homedir: t.TempDir()})

	_, err := r.Resolve(context.Background(), false)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Resolve() error = %v, want ErrToolNotFound", err)
	}
}
