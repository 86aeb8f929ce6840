// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
)

// Options configures the components of this package
type Options struct {
	// Tool is the resolved executable (see Detect). Operations fail with
	// ErrToolNotFound when Tool.Path is empty.
	Tool Tool

	// Runner defaults to ExecRunner
	Runner Runner

	// Logger defaults to log.Default()
	Logger *log.Logger

	// Homedir is the persistent keyring used for encrypt and decrypt and
	// as the system-default tier of recipient resolution
	Homedir string

	// StorePath is the credential store; its .keys file is the second
	// recipient tier. Empty disables that tier.
	StorePath string

	// Recipient overrides recipient resolution entirely
	Recipient string

	// PassphraseFile makes Decrypt hand the passphrase to gpg through a
	// private temporary file instead of the argument vector
	PassphraseFile bool
}

// invoker runs gpg for the components of this package and logs the outcome
type invoker struct {
	tool   Tool
	runner Runner
	logger *log.Logger
}

func newInvoker(opts Options) invoker {
	iv := invoker{
		tool:   opts.Tool,
		runner: opts.Runner,
		logger: opts.Logger,
	}
	if iv.runner == nil {
		iv.runner = ExecRunner{}
	}
	if iv.logger == nil {
		iv.logger = log.Default()
	}
	return iv
}

func (iv invoker) check() error {
	if iv.tool.Path == "" {
		return ErrToolNotFound
	}
	return nil
}

// call runs args and logs tool diagnostics: failures at error level with the
// raw stderr, chatter from successful runs at debug level.
func (iv invoker) call(ctx context.Context, op string, args []string, input []byte) (Result, error) {
	iv.logger.Debug("Running gpg", "op", op, "args", strings.Join(redactArgs(args), " "))

	res, err := iv.runner.Call(ctx, args, input)
	if err != nil {
		iv.logger.Error("gpg did not complete", "op", op, "err", err)
		return res, err
	}

	stderr := strings.TrimSpace(string(res.Stderr))
	switch {
	case res.Failed():
		iv.logger.Error(stderr, "op", op, "exit", res.ExitCode)
	case stderr != "":
		iv.logger.Debug(stderr, "op", op)
	}
	return res, nil
}
