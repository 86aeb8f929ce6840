// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolNotFound is returned when neither gpg2 nor gpg can be resolved.
	// It is fatal for every operation in this package.
	ErrToolNotFound = errors.New("gpg executable not found (tried " + ModernBinary + ", " + LegacyBinary + ")")

	// ErrRecipientNotFound is never returned by Resolve, which reports an
	// empty recipient instead. Callers that need to escalate use it.
	ErrRecipientNotFound = errors.New("no usable recipient found")

	// ErrInvalidPassphrase is returned when a passphrase cannot be carried
	// in a key generation script.
	ErrInvalidPassphrase = errors.New("invalid passphrase")
)

// SubprocessError reports a failed gpg invocation
type SubprocessError struct {
	Op       string
	ExitCode int
	Stderr   string
}

func (e *SubprocessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("gpg %s failed with exit status %d", e.Op, e.ExitCode)
	}
	return fmt.Sprintf("gpg %s failed with exit status %d: %s", e.Op, e.ExitCode, msg)
}
