// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"context"
	"fmt"
	"os"
)

// TempHomedirPrefix prefixes every throwaway keyring directory
const TempHomedirPrefix = "strongbox-"

// WithTempHomedir creates a private temporary directory, runs fn with it and
// removes it recursively however fn returns, panics included.
func WithTempHomedir(purpose string, fn func(dir string) error) (err error) {
	dir, err := os.MkdirTemp("", TempHomedirPrefix+purpose+"-")
	if err != nil {
		return fmt.Errorf("failed to create temporary homedir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove temporary homedir %s: %w", dir, rmErr)
		}
	}()

	// gpg refuses homedirs other users can read
	if err := os.Chmod(dir, 0700); err != nil {
		return fmt.Errorf("failed to restrict temporary homedir: %w", err)
	}

	return fn(dir)
}

// withTempHomedir is WithTempHomedir plus stopping any agent gpg started for
// the directory before it disappears.
func (iv invoker) withTempHomedir(ctx context.Context, purpose string, fn func(dir string) error) error {
	return WithTempHomedir(purpose, func(dir string) error {
		defer iv.killAgent(dir)
		return fn(dir)
	})
}

func (iv invoker) killAgent(dir string) {
	if iv.tool.AgentControl == "" {
		return
	}
	// Runs even when the operation's context is already cancelled
	res, err := iv.runner.Call(context.Background(), killAgentArgs(iv.tool, dir), nil)
	if err != nil || res.Failed() {
		iv.logger.Debug("Could not stop gpg-agent", "homedir", dir, "err", err, "stderr", string(res.Stderr))
	}
}
