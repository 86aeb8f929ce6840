// SPDX-License-Identifier: Apache-2.0
package clean

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/gpg"
	"github.com/Work-Fort/Strongbox/pkg/ui"
	"github.com/spf13/cobra"
)

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
		logs      bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover temporary keyrings",
		Long: `Remove throwaway keyrings and passphrase files (strongbox-*) that a killed
strongbox process left in the temporary directory. Entries younger than
--older-than are kept since they may belong to a running command.

With --logs the debug log is removed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stale, err := findStale(os.TempDir(), olderThan, time.Now())
			if err != nil {
				return err
			}

			theme := config.CurrentTheme
			if dryRun {
				cmdutil.PrintList(os.Stdout, fmt.Sprintf("%d stale temporary item(s)", len(stale)), stale)
				return nil
			}

			removed, err := removeAll(stale)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Println(theme.InfoMessage("Nothing to clean"))
			} else {
				cmdutil.PrintList(os.Stdout, fmt.Sprintf("Removed %d temporary item(s)", len(removed)), removed)
			}

			if logs {
				return cleanLogs()
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Only remove entries older than this")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "List what would be removed")
	cmd.Flags().BoolVar(&logs, "logs", false, "Also remove the debug log")

	return cmd
}

// findStale returns the strongbox temporary entries in dir last modified
// before now-olderThan
func findStale(dir string, olderThan time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var stale []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), gpg.TempHomedirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < olderThan {
			continue
		}
		stale = append(stale, filepath.Join(dir, entry.Name()))
	}
	return stale, nil
}

func removeAll(paths []string) ([]string, error) {
	var removed []string
	for _, path := range paths {
		log.Debugf("Removing %s", path)
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed = append(removed, filepath.Base(path))
	}
	return removed, nil
}

func cleanLogs() error {
	logFile := config.GlobalPaths.LogFile
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return nil
	}

	if cmdutil.IsInteractive() {
		ok, err := ui.NewPrompter().Confirm("Remove "+logFile+"?", "")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("operation cancelled")
		}
	}

	if err := os.Remove(logFile); err != nil {
		return fmt.Errorf("failed to remove %s: %w", logFile, err)
	}
	fmt.Println(config.CurrentTheme.SuccessMessage("Removed " + logFile))
	return nil
}
