// SPDX-License-Identifier: Apache-2.0
package init

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/gpg"
	"github.com/Work-Fort/Strongbox/pkg/keyfile"
	"github.com/Work-Fort/Strongbox/pkg/passphrase"
	"github.com/Work-Fort/Strongbox/pkg/ui"
	"github.com/spf13/cobra"
)

// InitSettings holds everything needed to create a store key pair
type InitSettings struct {
	StorePath  string
	KeysPath   string
	Passphrase string
	KeyLength  int
	Force      bool

	// NoImport skips loading the new key pair into the persistent keyring
	NoImport bool

	// Spinner shows progress while gpg generates the key
	Spinner bool
}

var (
	flagForce            bool
	flagKeyLength        int
	flagNoImport         bool
	flagPassphraseSource string
)

// NewInitCmd returns the cobra command for the init subcommand
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a credential store",
		Long: `Creates the credential store directory and generates its key pair.

The key pair is generated by gpg in a throwaway keyring and written, public
block first, to <store>/.keys. The pair is then imported into the persistent
keyring (gpg.homedir) so encrypt and decrypt can use it.

The passphrase protecting the secret key is read from STRONGBOX_PASSPHRASE,
from stdin (piped input), or prompted for twice when running in a terminal.`,
		Example: `  # Interactive
  strongbox init

  # Non-interactive, custom location
  STRONGBOX_PASSPHRASE="secret" strongbox init --store ~/work-secrets

  # Replace an existing key pair
  strongbox init --force`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Overwrite an existing .keys file")
	cmd.Flags().IntVar(&flagKeyLength, "length", 0, "RSA key length (default: gpg.key-length)")
	cmd.Flags().BoolVar(&flagNoImport, "no-import", false, "Do not import the key pair into the persistent keyring")
	cmd.Flags().StringVar(&flagPassphraseSource, "passphrase-source", "auto", "Passphrase source: auto, env, stdin, tui")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	settings := InitSettings{
		StorePath: config.GetStorePath(),
		KeysPath:  config.GetKeysPath(),
		KeyLength: flagKeyLength,
		Force:     flagForce,
		NoImport:  flagNoImport,
		Spinner:   cmdutil.IsInteractive(),
	}
	if settings.KeyLength == 0 {
		settings.KeyLength = config.GetKeyLength()
	}

	if err := validatePreFlight(settings.KeysPath, &settings.Force); err != nil {
		return err
	}

	source, err := passphrase.ParseSource(flagPassphraseSource)
	if err != nil {
		return err
	}
	pass, err := passphrase.NewReader(false).Read(source, "Passphrase for the new store key", true)
	if err != nil {
		return fmt.Errorf("store passphrase required: use %s or pipe via stdin: %w", config.PassphraseEnv, err)
	}
	settings.Passphrase = pass

	sess, err := cmdutil.NewSession(cmd.Context())
	if err != nil {
		return err
	}

	summary, err := initStore(cmd.Context(), sess, settings)
	if err != nil {
		return err
	}

	theme := config.CurrentTheme
	fmt.Println(theme.SuccessMessage("Store initialized"))
	fmt.Println()
	fmt.Println(theme.CompleteIndicator() + " " + settings.KeysPath)
	fmt.Println(theme.CompleteIndicator() + " fingerprint " + summary.Fingerprint())
	if !settings.NoImport {
		fmt.Println(theme.CompleteIndicator() + " imported into " + sess.Homedir())
	}
	return nil
}

// validatePreFlight refuses to replace an existing key file unless forced.
// In a terminal the user may confirm instead of passing --force.
func validatePreFlight(keysPath string, force *bool) error {
	if _, err := os.Stat(keysPath); err != nil {
		return nil
	}
	if *force {
		return nil
	}

	if cmdutil.IsInteractive() {
		theme := config.CurrentTheme
		ok, err := ui.NewPrompter().Confirm(
			theme.WarningIndicator()+"  "+keysPath+" already exists",
			"Replacing it makes credentials encrypted for the old key unreadable. Continue?",
		)
		if err != nil {
			return err
		}
		if ok {
			*force = true
			return nil
		}
		return fmt.Errorf("operation cancelled")
	}

	return fmt.Errorf("%w: %s (use --force to replace it)", keyfile.ErrKeysExist, keysPath)
}

// initStore generates the key pair into the store, validates the result and
// imports it into the persistent keyring
func initStore(ctx context.Context, sess *cmdutil.Session, settings InitSettings) (*keyfile.Summary, error) {
	if _, err := os.Stat(settings.KeysPath); err == nil && !settings.Force {
		return nil, fmt.Errorf("%w: %s", keyfile.ErrKeysExist, settings.KeysPath)
	}
	if err := os.MkdirAll(settings.StorePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store %s: %w", settings.StorePath, err)
	}

	km := sess.KeyManager()
	generate := func(ctx context.Context) error {
		ctx, cancel := sess.Context(ctx)
		defer cancel()
		_, err := km.Generate(ctx, settings.Passphrase, settings.KeyLength, settings.StorePath)
		return err
	}

	log.Info("Generating store key", "store", settings.StorePath, "length", settings.KeyLength)
	var err error
	if settings.Spinner {
		err = ui.RunWithSpinner(ctx, os.Stderr, fmt.Sprintf("Generating %d-bit key pair", settings.KeyLength), generate)
	} else {
		err = generate(ctx)
	}
	if err != nil {
		var subErr *gpg.SubprocessError
		if errors.As(err, &subErr) {
			return nil, fmt.Errorf("key generation failed: %w", err)
		}
		return nil, err
	}

	summary, err := keyfile.Load(settings.KeysPath)
	if err != nil {
		return nil, fmt.Errorf("generated key file is unusable: %w", err)
	}

	if !settings.NoImport {
		if err := importInto(ctx, sess, settings.KeysPath); err != nil {
			return nil, err
		}
	}

	log.Info("Store initialized", "fingerprint", summary.Fingerprint())
	return summary, nil
}

// importInto loads keysPath into the session's persistent keyring
func importInto(ctx context.Context, sess *cmdutil.Session, keysPath string) error {
	if err := os.MkdirAll(sess.Homedir(), 0700); err != nil {
		return fmt.Errorf("failed to create keyring %s: %w", sess.Homedir(), err)
	}
	ctx, cancel := sess.Context(ctx)
	defer cancel()
	if _, err := sess.KeyManager().Import(ctx, sess.Homedir(), keysPath); err != nil {
		return fmt.Errorf("failed to import %s: %w", keysPath, err)
	}
	return nil
}
