// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"fmt"
	"io"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/keyfile"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Describe a key file",
		Long: `Parse a key file (default: the store's .keys) and print the fingerprint,
user id and creation time of its key pair. Does not run gpg.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetKeysPath()
			if len(args) > 0 {
				path = args[0]
			}

			summary, err := keyfile.Load(path)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), path, summary)
			return nil
		},
	}
}

func printSummary(w io.Writer, path string, s *keyfile.Summary) {
	theme := config.CurrentTheme
	label := theme.SubtleStyle()

	fmt.Fprintln(w, theme.InfoStyle().Render(path))
	fmt.Fprintf(w, "%s %s\n", label.Render("fingerprint:"), s.Fingerprint())
	fmt.Fprintf(w, "%s %s\n", label.Render("key id:     "), s.Public.KeyID)
	fmt.Fprintf(w, "%s %s <%s>\n", label.Render("user:       "), s.Public.Name, s.Public.Email)
	fmt.Fprintf(w, "%s %s\n", label.Render("created:    "), s.Public.Created.Format("2006-01-02 15:04:05"))

	switch {
	case s.Secret == nil:
		fmt.Fprintf(w, "%s %s\n", label.Render("secret:     "), theme.WarningMessage("missing"))
	case s.Secret.Locked:
		fmt.Fprintf(w, "%s %s\n", label.Render("secret:     "), "present, passphrase protected")
	default:
		fmt.Fprintf(w, "%s %s\n", label.Render("secret:     "), theme.WarningMessage("present, NOT passphrase protected"))
	}
}
