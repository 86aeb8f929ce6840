// SPDX-License-Identifier: Apache-2.0
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/keyfile"
	"github.com/spf13/cobra"
)

// check is one line of the report
type check struct {
	Name   string
	Value  string
	Failed bool
	Warn   bool
}

// NewDoctorCmd creates the doctor command
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the gpg setup of the store",
		Long: `Locate gpg and report its path and version, whether passphrases need
loopback pinentry, the state of the store's .keys file and the recipients
encrypt and decrypt would use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runChecks(cmd.Context())
			printChecks(cmd.OutOrStdout(), config.GetStorePath(), checks)
			for _, c := range checks {
				if c.Failed {
					return errors.New("one or more checks failed")
				}
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context) []check {
	var checks []check

	sess, err := cmdutil.NewSession(ctx)
	if err != nil {
		return append(checks, check{Name: "gpg", Value: err.Error(), Failed: true})
	}

	version := "unknown"
	if sess.Tool.Version != nil {
		version = sess.Tool.Version.String()
	}
	checks = append(checks,
		check{Name: "gpg", Value: sess.Tool.Path},
		check{Name: "version", Value: version, Warn: sess.Tool.Version == nil},
		check{Name: "loopback pinentry", Value: fmt.Sprintf("%t", sess.Tool.NeedsLoopback())},
	)
	if sess.Tool.AgentControl == "" {
		checks = append(checks, check{Name: "gpgconf", Value: "not found, temporary agents are not stopped", Warn: true})
	} else {
		checks = append(checks, check{Name: "gpgconf", Value: sess.Tool.AgentControl})
	}

	checks = append(checks, keysCheck(config.GetKeysPath()))

	if _, err := os.Stat(sess.Homedir()); err != nil {
		checks = append(checks, check{Name: "keyring", Value: sess.Homedir() + " missing", Warn: true})
	} else {
		checks = append(checks, check{Name: "keyring", Value: sess.Homedir()})
	}

	resolver := sess.Adapter().Resolver()
	for _, secret := range []bool{false, true} {
		name := "encrypt recipient"
		if secret {
			name = "decrypt recipient"
		}

		rctx, cancel := sess.Context(ctx)
		recipient, err := resolver.Resolve(rctx, secret)
		cancel()

		switch {
		case err != nil:
			checks = append(checks, check{Name: name, Value: err.Error(), Failed: true})
		case recipient == "":
			checks = append(checks, check{Name: name, Value: "none", Failed: true})
		default:
			checks = append(checks, check{Name: name, Value: recipient})
		}
	}

	log.Debug("Doctor finished", "checks", len(checks))
	return checks
}

func keysCheck(path string) check {
	if _, err := os.Stat(path); err != nil {
		return check{Name: ".keys", Value: path + " missing (run 'strongbox init')", Warn: true}
	}
	summary, err := keyfile.Load(path)
	if err != nil {
		return check{Name: ".keys", Value: err.Error(), Failed: true}
	}
	if summary.Secret == nil {
		return check{Name: ".keys", Value: summary.Fingerprint() + " (public only)", Warn: true}
	}
	return check{Name: ".keys", Value: summary.Fingerprint()}
}

func printChecks(w io.Writer, store string, checks []check) {
	const width = 72
	theme := config.CurrentTheme

	fmt.Fprintln(w, theme.RenderHeader(width, "DOCTOR", store))
	fmt.Fprintln(w)

	failed, warned := 0, 0
	for _, c := range checks {
		indicator := theme.CompleteIndicator()
		switch {
		case c.Failed:
			indicator = theme.ErrorIndicator()
			failed++
		case c.Warn:
			indicator = theme.WarningIndicator()
			warned++
		}
		fmt.Fprintf(w, "%s %s %s\n", indicator, theme.SubtleStyle().Render(fmt.Sprintf("%-18s", c.Name)), c.Value)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.RenderFooter(width, fmt.Sprintf("%d checks, %d failed, %d warnings", len(checks), failed, warned)))
}
