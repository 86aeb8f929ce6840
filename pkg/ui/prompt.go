// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNoInput is returned when piped input ends before an answer was read
var ErrNoInput = errors.New("no input provided via stdin")

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Prompter asks questions through huh forms on a terminal, or reads one
// answer per line when input is piped
type Prompter struct {
	Interactive bool

	in     io.Reader
	reader *bufio.Reader
}

// NewPrompter returns a Prompter reading os.Stdin
func NewPrompter() *Prompter {
	return &Prompter{Interactive: IsTerminal(os.Stdin), in: os.Stdin}
}

// NewPipedPrompter returns a non-interactive Prompter reading answers from r
func NewPipedPrompter(r io.Reader) *Prompter {
	return &Prompter{in: r}
}

// readLine returns the next piped line without its line ending
func (p *Prompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Passphrase prompts for a passphrase with masked input
func (p *Prompter) Passphrase(title string) (string, error) {
	if !p.Interactive {
		return p.readLine()
	}

	var passphrase string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("Enter passphrase").
				EchoMode(huh.EchoModePassword).
				Value(&passphrase),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return passphrase, nil
}

// NewPassphrase prompts for a passphrase twice and requires both entries to
// match. Piped input is read once.
func (p *Prompter) NewPassphrase(title, confirmTitle string) (string, error) {
	if !p.Interactive {
		return p.readLine()
	}

	var passphrase, confirm string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("Enter passphrase").
				EchoMode(huh.EchoModePassword).
				Value(&passphrase).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("passphrase must not be empty")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title(confirmTitle).
				Placeholder("Re-enter passphrase").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != passphrase {
						return fmt.Errorf("passphrases do not match")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}

	if passphrase != confirm {
		return "", fmt.Errorf("passphrases do not match")
	}
	return passphrase, nil
}

// Confirm asks a yes/no question. Piped answers must be y or yes.
func (p *Prompter) Confirm(title, description string) (bool, error) {
	if !p.Interactive {
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// TypedConfirm requires typing expected exactly
func (p *Prompter) TypedConfirm(title, expected string) (bool, error) {
	if !p.Interactive {
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(answer) == expected, nil
	}

	var input string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder(expected).
				Value(&input).
				Validate(func(s string) error {
					if s != expected {
						return fmt.Errorf("must type exactly: %s", expected)
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return input == expected, nil
}
