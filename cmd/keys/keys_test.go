// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
	"github.com/charmbracelet/log"
	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/gpg"
	"github.com/Work-Fort/Strongbox/pkg/keyfile"
)

type recordingRunner struct {
	calls [][]string
}

func (r *recordingRunner) Call(ctx context.Context, args []string, input []byte) (gpg.Result, error) {
	r.calls = append(r.calls, append([]string{}, args...))
	return gpg.Result{}, nil
}

// writeKeyFile writes a public+secret key file for a fresh key into dir
func writeKeyFile(t *testing.T, dir string) string {
	t.Helper()
	pgp := crypto.PGP()
	key, err := pgp.KeyGeneration().AddUserId("Strongbox", "strongbox@local").New().GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	locked, err := pgp.LockKey(key, []byte("correct horse"))
	if err != nil {
		t.Fatal(err)
	}
	secret, err := locked.Armor()
	if err != nil {
		t.Fatal(err)
	}
	pub, err := key.ToPublic()
	if err != nil {
		t.Fatal(err)
	}
	public, err := pub.Armor()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, gpg.KeysFileName)
	if err := os.WriteFile(path, []byte(public+"\n"+secret+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportKeyFile(t *testing.T) {
	runner := &recordingRunner{}
	sess := cmdutil.NewSessionWithOptions(gpg.Options{
		Tool:   gpg.Tool{Path: "/usr/bin/gpg"},
		Runner: runner,
		Logger: log.New(io.Discard),
	}, 0)

	path := writeKeyFile(t, t.TempDir())
	homedir := filepath.Join(t.TempDir(), "gnupg")

	summary, err := importKeyFile(context.Background(), sess, path, homedir)
	if err != nil {
		t.Fatalf("importKeyFile() error = %v", err)
	}
	if summary == nil || summary.Fingerprint() == "" {
		t.Error("expected a summary with a fingerprint")
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 gpg call, got %d", len(runner.calls))
	}
	args := runner.calls[0]
	if args[len(args)-1] != path || args[len(args)-2] != "--import" {
		t.Errorf("unexpected import args %v", args)
	}
	if info, err := os.Stat(homedir); err != nil || info.Mode().Perm() != 0700 {
		t.Errorf("keyring directory should be created 0700: %v", err)
	}
}

func TestImportKeyFile_Missing(t *testing.T) {
	runner := &recordingRunner{}
	sess := cmdutil.NewSessionWithOptions(gpg.Options{Tool: gpg.Tool{Path: "/usr/bin/gpg"}, Runner: runner}, 0)

	if _, err := importKeyFile(context.Background(), sess, filepath.Join(t.TempDir(), "nope"), t.TempDir()); err == nil {
		t.Error("importKeyFile() should fail for a missing file")
	}
	if len(runner.calls) != 0 {
		t.Error("gpg should not run for a missing file")
	}
}

func TestPrintSummary(t *testing.T) {
	summary, err := keyfile.Load(writeKeyFile(t, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printSummary(&buf, "/store/.keys", summary)

	out := buf.String()
	for _, want := range []string{summary.Fingerprint(), "Strongbox", "strongbox@local", "passphrase protected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "NOT") {
		t.Error("locked secret reported as unprotected")
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	store := t.TempDir()
	keysPath := writeKeyFile(t, store)
	original, err := os.ReadFile(keysPath)
	if err != nil {
		t.Fatal(err)
	}

	dir, err := keyfile.Backup(keysPath, t.TempDir(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	target := filepath.Join(t.TempDir(), gpg.KeysFileName)
	if _, err := keyfile.Restore(filepath.Join(dir, keyfile.ArchiveName), target, false); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	restored, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(original, restored) {
		t.Error("restored key file differs from the original")
	}
}
