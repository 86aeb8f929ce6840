// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/Work-Fort/Strongbox/cmd/clean"
	configCmd "github.com/Work-Fort/Strongbox/cmd/config"
	"github.com/Work-Fort/Strongbox/cmd/crypt"
	"github.com/Work-Fort/Strongbox/cmd/doctor"
	initcmd "github.com/Work-Fort/Strongbox/cmd/init"
	"github.com/Work-Fort/Strongbox/cmd/keys"
	"github.com/Work-Fort/Strongbox/cmd/version"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time via ldflags
	// -ldflags "-X github.com/Work-Fort/Strongbox/cmd.Version=x.y.z"
	Version string

	logLevel string
	useTUI   bool
)

var rootCmd = &cobra.Command{
	Use:   "strongbox",
	Short: "Password store backed by GnuPG",
	Long: `Strongbox - password store backed by GnuPG

Every credential is encrypted for the store's own key pair. Key generation,
encryption and decryption are delegated to the gpg2 (or gpg) executable;
the store keeps its key material in a .keys file next to the credentials.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitDirs(); err != nil {
			return err
		}

		if err := config.LoadConfig(); err != nil {
			return err
		}

		useTUI = config.GetUseTUI()
		logLevel = config.GetLogLevel()

		if logLevel == "disabled" {
			log.SetOutput(io.Discard)
			return nil
		}

		var level log.Level
		switch logLevel {
		case "debug":
			level = log.DebugLevel
		case "warn":
			level = log.WarnLevel
		case "error":
			level = log.ErrorLevel
		default:
			level = log.InfoLevel
		}

		// The log may contain key fingerprints and tool diagnostics
		f, err := os.OpenFile(config.GlobalPaths.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		fileLogger := log.NewWithOptions(f, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
			Level:           level,
			ReportCaller:    true,
			Formatter:       log.JSONFormatter,
		})
		log.SetDefault(fileLogger)

		return nil
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context, which kills any running gpg.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		theme := config.CurrentTheme
		errorStyle := theme.ErrorStyle()
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), err.Error())
		os.Exit(1)
	}
}

func init() {
	// Redirected to the log file in PersistentPreRunE
	log.SetReportTimestamp(false)
	log.SetLevel(log.InfoLevel)

	config.InitViper()

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&logLevel, "log-level", "l", "info", "Log level: disabled, debug, info, warn, error")
	flags.BoolVar(&useTUI, "use-tui", true, "Enable terminal UI mode")
	flags.StringP("store", "s", "", "Credential store directory (default "+config.DefaultStoreDir+")")
	flags.String("gpg", "", "gpg executable (default: search gpg2, then gpg)")
	flags.String("homedir", "", "Persistent GnuPG keyring (default "+config.DefaultGPGHome+")")
	flags.StringP("recipient", "r", "", "Recipient fingerprint, skips recipient resolution")
	flags.String("timeout", "", "Deadline for each gpg invocation, e.g. 30s (0 disables)")

	if err := config.BindFlags(flags); err != nil {
		log.Fatal(err)
	}

	rootCmd.AddCommand(clean.NewCleanCmd())
	rootCmd.AddCommand(configCmd.NewConfigCmd())
	rootCmd.AddCommand(crypt.NewEncryptCmd())
	rootCmd.AddCommand(crypt.NewDecryptCmd())
	rootCmd.AddCommand(doctor.NewDoctorCmd())
	rootCmd.AddCommand(initcmd.NewInitCmd())
	rootCmd.AddCommand(keys.NewKeysCmd())
	rootCmd.AddCommand(version.NewVersionCmd(Version))

	rootCmd.SetHelpFunc(styledHelpFunc)
	rootCmd.SetUsageFunc(styledUsageFunc)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	// Linux shells only
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	initCompletionCmd()
}

// initCompletionCmd registers a completion command for bash, zsh and fish
func initCompletionCmd() {
	completionCmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate the autocompletion script for the specified shell",
		Long: fmt.Sprintf(`Generate the autocompletion script for %s for the specified shell.
See each sub-command's help for details on how to use the generated script.
`, rootCmd.Name()),
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	shells := []struct {
		name    string
		install string
		gen     func(root *cobra.Command, noDesc bool) error
	}{
		{
			name:    "bash",
			install: "%[1]s completion bash > /etc/bash_completion.d/%[1]s",
			gen: func(root *cobra.Command, noDesc bool) error {
				return root.GenBashCompletionV2(os.Stdout, !noDesc)
			},
		},
		{
			name:    "zsh",
			install: `%[1]s completion zsh > "${fpath[1]}/_%[1]s"`,
			gen: func(root *cobra.Command, noDesc bool) error {
				if noDesc {
					return root.GenZshCompletionNoDesc(os.Stdout)
				}
				return root.GenZshCompletion(os.Stdout)
			},
		},
		{
			name:    "fish",
			install: "%[1]s completion fish > ~/.config/fish/completions/%[1]s.fish",
			gen: func(root *cobra.Command, noDesc bool) error {
				return root.GenFishCompletion(os.Stdout, !noDesc)
			},
		},
	}

	for _, sh := range shells {
		var noDesc bool
		shellCmd := &cobra.Command{
			Use:   sh.name,
			Short: fmt.Sprintf("Generate the autocompletion script for %s", sh.name),
			Long: fmt.Sprintf(`Generate the autocompletion script for the %[2]s shell.

To load completions for every new session, execute once:

	`+sh.install+`

You will need to start a new shell for this setup to take effect.
`, rootCmd.Name(), sh.name),
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			ValidArgsFunction:     cobra.NoFileCompletions,
			RunE: func(cmd *cobra.Command, args []string) error {
				return sh.gen(cmd.Root(), noDesc)
			},
		}
		shellCmd.Flags().BoolVar(&noDesc, "no-descriptions", false, "disable completion descriptions")
		completionCmd.AddCommand(shellCmd)
	}

	rootCmd.AddCommand(completionCmd)
}

// styledHelpFunc renders help output as markdown through glamour
func styledHelpFunc(cmd *cobra.Command, args []string) {
	renderMarkdown(generateHelpMarkdown(cmd))
}

// styledUsageFunc renders usage output as markdown through glamour
func styledUsageFunc(cmd *cobra.Command) error {
	renderMarkdown(generateUsageMarkdown(cmd))
	return nil
}

func generateHelpMarkdown(cmd *cobra.Command) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# %s\n\n", cmd.CommandPath())
	if cmd.Long != "" {
		fmt.Fprintf(&md, "%s\n\n", cmd.Long)
	} else if cmd.Short != "" {
		fmt.Fprintf(&md, "%s\n\n", cmd.Short)
	}

	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(&md, "## Aliases\n\n`%s`\n\n", strings.Join(cmd.Aliases, "`, `"))
	}

	writeCommandSections(&md, cmd, "##")

	if cmd.HasExample() {
		fmt.Fprintf(&md, "## Examples\n\n```\n%s\n```\n\n", cmd.Example)
	}

	fmt.Fprintf(&md, "Use `%s [command] --help` for more information about a command.\n", cmd.CommandPath())
	return md.String()
}

func generateUsageMarkdown(cmd *cobra.Command) string {
	var md strings.Builder
	writeCommandSections(&md, cmd, "###")
	return md.String()
}

// writeCommandSections writes usage, subcommands and flags under headings of
// the given level
func writeCommandSections(md *strings.Builder, cmd *cobra.Command, level string) {
	if cmd.Runnable() {
		fmt.Fprintf(md, "%s Usage\n\n```\n%s\n```\n\n", level, cmd.UseLine())
	}

	var subs []string
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() && !sub.IsAdditionalHelpTopicCommand() {
			subs = append(subs, fmt.Sprintf("- **%s** - %s", sub.Name(), sub.Short))
		}
	}
	if len(subs) > 0 {
		fmt.Fprintf(md, "%s Available Commands\n\n%s\n\n", level, strings.Join(subs, "\n"))
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(md, "%s Flags\n\n```\n%s\n```\n\n", level, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintf(md, "%s Global Flags\n\n```\n%s\n```\n\n", level, cmd.InheritedFlags().FlagUsages())
	}
}

// renderMarkdown renders markdown through glamour, falling back to plain text
func renderMarkdown(markdown string) {
	width := 100
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		fmt.Println(markdown)
		return
	}

	rendered, err := r.Render(markdown)
	if err != nil {
		fmt.Println(markdown)
		return
	}

	fmt.Println(strings.TrimRight(rendered, " \n"))
}

// GetRootCommand returns the root command for external use (e.g., man page generation)
func GetRootCommand() *cobra.Command {
	return rootCmd
}
