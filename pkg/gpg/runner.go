// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
)

// Result is the captured outcome of one subprocess call
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Failed reports whether the process exited with a non-zero status
func (r Result) Failed() bool {
	return r.ExitCode != 0
}

// Runner runs one external command per call.
//
// A non-zero exit status is not an error: it is reported in Result and left
// for the caller to interpret. The error return is reserved for commands that
// could not be started and for context cancellation.
type Runner interface {
	Call(ctx context.Context, args []string, input []byte) (Result, error)
}

// ExecRunner is the os/exec backed Runner
type ExecRunner struct{}

// Call runs args[0] with the remaining arguments. When input is non-nil it is
// written to the process stdin, which is then closed.
func (ExecRunner) Call(ctx context.Context, args []string, input []byte) (Result, error) {
	if len(args) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}

	cmd := exec.Command(args[0], args[1:]...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Own process group so cancellation also reaches helpers the tool forks
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s: %w", args[0], err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1}, ctx.Err()
	case err := <-done:
		result := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return result, fmt.Errorf("failed to run %s: %w", args[0], err)
			}
			result.ExitCode = exitErr.ExitCode()
		}
		return result, nil
	}
}
