// SPDX-License-Identifier: Apache-2.0
package version

import (
	"fmt"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/gpg"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version of strongbox and the gpg it would use.`,
		Run: func(cmd *cobra.Command, args []string) {
			if version == "" {
				version = "dev"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "strongbox version %s\n", version)

			tool, err := gpg.Detect(cmd.Context(), nil, config.GetGPGBinary(), nil)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "gpg: %v\n", err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gpg: %s\n", tool)
		},
	}
}
