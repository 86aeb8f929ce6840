// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_PipesInput(t *testing.T) {
	requireShell(t)

	res, err := ExecRunner{}.Call(context.Background(), []string{"sh", "-c", "cat"}, []byte("hello world"))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(res.Stdout) != "hello world" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.Failed() {
		t.Errorf("exit code = %d", res.ExitCode)
	}
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	requireShell(t)

	res, err := ExecRunner{}.Call(context.Background(), []string{"sh", "-c", "echo out; echo oops >&2; exit 3"}, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if res.ExitCode != 3 || !res.Failed() {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if string(res.Stdout) != "out\n" || string(res.Stderr) != "oops\n" {
		t.Errorf("stdout = %q, stderr = %q", res.Stdout, res.Stderr)
	}
}

func TestExecRunner_StartFailure(t *testing.T) {
	if _, err := (ExecRunner{}).Call(context.Background(), []string{"/nonexistent/strongbox-gpg"}, nil); err == nil {
		t.Error("Call() should fail for a missing executable")
	}
	if _, err := (ExecRunner{}).Call(context.Background(), nil, nil); err == nil {
		t.Error("Call() should fail for an empty command")
	}
}

func TestExecRunner_Cancellation(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := ExecRunner{}.Call(ctx, []string{"sh", "-c", "sleep 30"}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Call() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("cancellation took %s", elapsed)
	}
}
