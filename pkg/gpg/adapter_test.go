// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestAdapter_Encrypt(t *testing.T) {
	home := t.TempDir()
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{Stdout: []byte("-----BEGIN PGP MESSAGE-----")}
	}}
	a := NewAdapter(Options{
		Tool:      testTool("2.2.40"),
		Runner:    runner,
		Logger:    discardLogger(),
		Homedir:   home,
		Recipient: testFingerprint,
	})

	out, err := a.Encrypt(context.Background(), []byte("hello world"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if string(out) != "-----BEGIN PGP MESSAGE-----" {
		t.Errorf("Encrypt() = %q", out)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(runner.calls))
	}
	call := runner.calls[0]
	want := encryptArgs(testTool("2.2.40"), testFingerprint, home)
	if strings.Join(call.Args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %q, want %q", call.Args, want)
	}
	if string(call.Stdin) != "hello world" {
		t.Errorf("stdin = %q, want the plaintext", call.Stdin)
	}
}

func TestAdapter_Decrypt(t *testing.T) {
	home := t.TempDir()
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{Stdout: []byte("hello world")}
	}}
	a := NewAdapter(Options{
		Tool:      testTool("1.4.23"),
		Runner:    runner,
		Logger:    discardLogger(),
		Homedir:   home,
		Recipient: testFingerprint,
	})

	out, err := a.Decrypt(context.Background(), []byte("ciphertext"), "correct horse")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(out) != "hello world" {
		t.Errorf("Decrypt() = %q", out)
	}

	call := runner.calls[0]
	if argAfter(call.Args, "--passphrase") != "correct horse" {
		t.Errorf("decrypt should pass the passphrase as an argument: %q", call.Args)
	}
	if string(call.Stdin) != "ciphertext" {
		t.Errorf("stdin = %q, want the ciphertext", call.Stdin)
	}
}

func TestAdapter_DecryptPassphraseFile(t *testing.T) {
	var passFile, contents string
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		passFile = argAfter(args, "--passphrase-file")
		data, _ := os.ReadFile(passFile)
		contents = string(data)
		return Result{Stdout: []byte("hello world")}
	}}
	a := NewAdapter(Options{
		Tool:           testTool("2.2.40"),
		Runner:         runner,
		Logger:         discardLogger(),
		Homedir:        t.TempDir(),
		Recipient:      testFingerprint,
		PassphraseFile: true,
	})

	if _, err := a.Decrypt(context.Background(), []byte("ciphertext"), "correct horse"); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}

	call := runner.calls[0]
	if containsSecret(call.Args, "correct horse") {
		t.Errorf("passphrase leaked into argv %q", call.Args)
	}
	if passFile == "" || contents != "correct horse" {
		t.Errorf("passphrase file %q held %q", passFile, contents)
	}
	if _, err := os.Stat(passFile); !os.IsNotExist(err) {
		t.Errorf("passphrase file %s should be removed", passFile)
	}
}

func TestAdapter_DecryptFailureIsLogged(t *testing.T) {
	runner := &fakeRunner{respond: func(args []string, input []byte) Result {
		return Result{Stderr: []byte("gpg: decryption failed: Bad passphrase"), ExitCode: 2}
	}}
	logger, buf := bufferLogger()
	a := NewAdapter(Options{
		Tool:      testTool("1.4.23"),
		Runner:    runner,
		Logger:    logger,
		Homedir:   t.TempDir(),
		Recipient: testFingerprint,
	})

	out, err := a.Decrypt(context.Background(), []byte("ciphertext"), "wrong")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Decrypt() = %q, want empty output", out)
	}
	if !strings.Contains(buf.String(), "Bad passphrase") {
		t.Errorf("tool error should be logged, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "wrong") && !strings.Contains(buf.String(), "[redacted]") {
		t.Errorf("passphrase should not be logged: %q", buf.String())
	}
}

func TestAdapter_ToolNotFound(t *testing.T) {
	a := NewAdapter(Options{Logger: discardLogger(), Recipient: testFingerprint})

	if _, err := a.Encrypt(context.Background(), []byte("x")); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Encrypt() error = %v, want ErrToolNotFound", err)
	}
	if _, err := a.Decrypt(context.Background(), []byte("x"), "pw"); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Decrypt() error = %v, want ErrToolNotFound", err)
	}
}

func TestAdapter_String(t *testing.T) {
	a := NewAdapter(Options{StorePath: "/store", Homedir: "/home/u/.gnupg"})
	if got, want := a.String(), "GPG(path=/store, homedir=/home/u/.gnupg)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
