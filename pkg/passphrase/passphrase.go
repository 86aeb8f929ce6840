// SPDX-License-Identifier: Apache-2.0

// Package passphrase obtains the store passphrase from the environment,
// piped stdin or an interactive prompt.
package passphrase

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/ui"
)

// Source indicates how to retrieve the passphrase
type Source int

const (
	// SourceAuto tries piped stdin, then ENV, then the TUI
	SourceAuto Source = iota
	// SourceEnv reads the passphrase from STRONGBOX_PASSPHRASE only
	SourceEnv
	// SourceStdin reads the first line of stdin
	SourceStdin
	// SourceTUI uses an interactive prompt
	SourceTUI
)

// ErrUnavailable is returned when no source could supply a passphrase
var ErrUnavailable = errors.New("no passphrase available")

// Reader retrieves passphrases
type Reader struct {
	Prompter *ui.Prompter
	Getenv   func(string) string

	// StdinBusy is set when stdin carries the command's payload, so the
	// passphrase cannot be read from it
	StdinBusy bool
}

// NewReader returns a Reader using the process environment and stdin
func NewReader(stdinBusy bool) *Reader {
	return &Reader{Prompter: ui.NewPrompter(), Getenv: os.Getenv, StdinBusy: stdinBusy}
}

// Read retrieves the passphrase from source. With confirm, interactive
// prompts ask twice.
func (r *Reader) Read(source Source, prompt string, confirm bool) (string, error) {
	var (
		pass string
		err  error
	)

	switch source {
	case SourceEnv:
		pass, err = r.fromEnv()
	case SourceStdin:
		pass, err = r.fromStdin()
	case SourceTUI:
		pass, err = r.fromTUI(prompt, confirm)
	case SourceAuto:
		pass, err = r.auto(prompt, confirm)
	default:
		return "", fmt.Errorf("invalid passphrase source: %d", source)
	}
	if err != nil {
		return "", err
	}

	if pass == "" {
		return "", fmt.Errorf("%w: empty passphrase", ErrUnavailable)
	}
	return pass, nil
}

func (r *Reader) auto(prompt string, confirm bool) (string, error) {
	if !r.StdinBusy && !r.Prompter.Interactive {
		if pass, err := r.fromStdin(); err == nil {
			return pass, nil
		}
	}

	if pass, err := r.fromEnv(); err == nil {
		return pass, nil
	}

	if r.Prompter.Interactive {
		return r.fromTUI(prompt, confirm)
	}
	return "", fmt.Errorf("%w: set %s or run interactively", ErrUnavailable, config.PassphraseEnv)
}

func (r *Reader) fromEnv() (string, error) {
	pass := r.Getenv(config.PassphraseEnv)
	if pass == "" {
		return "", fmt.Errorf("%w: environment variable %s not set", ErrUnavailable, config.PassphraseEnv)
	}
	return pass, nil
}

func (r *Reader) fromStdin() (string, error) {
	if r.StdinBusy {
		return "", fmt.Errorf("%w: stdin carries the input data", ErrUnavailable)
	}
	if r.Prompter.Interactive {
		return "", fmt.Errorf("%w: stdin is a terminal, nothing piped", ErrUnavailable)
	}
	return r.Prompter.Passphrase("")
}

func (r *Reader) fromTUI(prompt string, confirm bool) (string, error) {
	if !r.Prompter.Interactive {
		return "", fmt.Errorf("%w: not running in a terminal", ErrUnavailable)
	}

	var (
		pass string
		err  error
	)
	if confirm {
		pass, err = r.Prompter.NewPassphrase(prompt, "Confirm passphrase")
	} else {
		pass, err = r.Prompter.Passphrase(prompt)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return pass, nil
}

// ParseSource parses a string into a Source
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return SourceAuto, nil
	case "env":
		return SourceEnv, nil
	case "stdin":
		return SourceStdin, nil
	case "tui":
		return SourceTUI, nil
	default:
		return SourceAuto, fmt.Errorf("invalid passphrase source: %s (valid: auto, env, stdin, tui)", s)
	}
}
