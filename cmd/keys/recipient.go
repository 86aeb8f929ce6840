// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"fmt"

	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/gpg"
	"github.com/spf13/cobra"
)

func newRecipientCmd() *cobra.Command {
	var secret bool

	cmd := &cobra.Command{
		Use:   "recipient",
		Short: "Print the resolved recipient fingerprint",
		Long: `Print the fingerprint encrypt (or with --secret, decrypt) would use.

Resolution order: --recipient / gpg.recipient, the default key of
<store>/.keys, then the default key of the persistent keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cmdutil.NewSession(cmd.Context())
			if err != nil {
				return err
			}

			ctx, cancel := sess.Context(cmd.Context())
			defer cancel()

			recipient, err := sess.Adapter().Resolver().Resolve(ctx, secret)
			if err != nil {
				return err
			}
			if recipient == "" {
				return gpg.ErrRecipientNotFound
			}
			fmt.Fprintln(cmd.OutOrStdout(), recipient)
			return nil
		},
	}

	cmd.Flags().BoolVar(&secret, "secret", false, "Resolve against secret keys")
	return cmd
}
