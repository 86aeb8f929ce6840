// SPDX-License-Identifier: Apache-2.0
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/gpg"
	"golang.org/x/term"
)

// IsInteractive checks if stdin is connected to a terminal AND the user wants TUI mode
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && config.GetUseTUI()
}

// Session carries the located tool and the settings every gpg-backed
// command needs
type Session struct {
	Tool    gpg.Tool
	Timeout time.Duration

	opts gpg.Options
}

// NewSession locates the gpg tool and snapshots the relevant config
func NewSession(ctx context.Context) (*Session, error) {
	timeout, err := config.GetTimeout()
	if err != nil {
		return nil, err
	}

	detectCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	tool, err := gpg.Detect(detectCtx, nil, config.GetGPGBinary(), nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Tool:    tool,
		Timeout: timeout,
		opts: gpg.Options{
			Tool:           tool,
			Logger:         log.Default(),
			Homedir:        config.GetGPGHomedir(),
			StorePath:      config.GetStorePath(),
			Recipient:      config.GetGPGRecipient(),
			PassphraseFile: config.GetPassphraseFile(),
		},
	}
	log.Debugf("Session: tool=%s homedir=%s store=%s", tool, s.opts.Homedir, s.opts.StorePath)
	return s, nil
}

// NewSessionWithOptions builds a session around already resolved options
func NewSessionWithOptions(opts gpg.Options, timeout time.Duration) *Session {
	return &Session{Tool: opts.Tool, Timeout: timeout, opts: opts}
}

// Options returns a copy of the gpg options for this session
func (s *Session) Options() gpg.Options {
	return s.opts
}

// Homedir is the persistent keyring
func (s *Session) Homedir() string {
	return s.opts.Homedir
}

// StorePath is the credential store directory
func (s *Session) StorePath() string {
	return s.opts.StorePath
}

// Adapter builds an adapter over this session
func (s *Session) Adapter() *gpg.Adapter {
	return gpg.NewAdapter(s.opts)
}

// KeyManager builds a key manager over this session
func (s *Session) KeyManager() *gpg.KeyManager {
	return gpg.NewKeyManager(s.opts)
}

// Context applies the configured gpg.timeout to ctx
func (s *Session) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.Timeout)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// ReadInput returns the contents of args[0], or all of stdin when no file
// argument is given
func ReadInput(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return data, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// PrintList prints a success header followed by bulleted items
func PrintList(w io.Writer, header string, items []string) {
	theme := config.CurrentTheme
	subtleStyle := theme.SubtleStyle()
	itemStyle := theme.InfoStyle()

	fmt.Fprintln(w, theme.SuccessMessage(header))
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, item := range items {
		fmt.Fprintln(w, subtleStyle.Render("  • ")+itemStyle.Render(item))
	}
}
