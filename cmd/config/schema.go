// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	var (
		outputFile string
		scopeFlag  string
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export configuration schema",
		Long: `Export the configuration schema in JSON Schema Draft 2020-12 format.

The schema can be used for:
  - IDE autocomplete and validation
  - Documentation generation
  - Third-party tooling integration

By default, the schema includes all keys. Use --scope to filter by user or store keys.`,
		Example: `  # Print full schema to stdout
  strongbox config schema

  # Generate user-scope schema (for ~/.config/strongbox/config.yaml)
  strongbox config schema --scope user --output user.schema.json

  # Generate store-scope schema (for ./strongbox.yaml)
  strongbox config schema --scope store --output store.schema.json

  # Use with VS Code (in .vscode/settings.json):
  {
    "yaml.schemas": {
      "./store.schema.json": "strongbox.yaml",
      "./user.schema.json": ".config/strongbox/config.yaml"
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var scope *config.ConfigScope
			switch scopeFlag {
			case "":
			case "user":
				s := config.ScopeUser
				scope = &s
			case "store":
				s := config.ScopeStore
				scope = &s
			default:
				return fmt.Errorf("invalid scope: %s (must be 'user' or 'store')", scopeFlag)
			}

			schema, err := config.GenerateJSONSchemaForScope(scope)
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}

			if outputFile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(schema))
				return nil
			}
			if err := os.WriteFile(outputFile, schema, 0644); err != nil {
				return fmt.Errorf("failed to write schema to file: %w", err)
			}
			fmt.Printf("Schema written to %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write schema to file instead of stdout")
	cmd.Flags().StringVar(&scopeFlag, "scope", "", "Filter by scope: user or store (default: all)")

	return cmd
}
