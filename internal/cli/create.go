package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/frbtool/frbtool/internal/config"
	"github.com/frbtool/frbtool/internal/fetcher"
	"github.com/frbtool/frbtool/internal/logging"
	"github.com/frbtool/frbtool/internal/orchestrator"
	"github.com/frbtool/frbtool/internal/project"
	"github.com/frbtool/frbtool/internal/prompt"
	"github.com/frbtool/frbtool/internal/toolchain"
)

var (
	createOrigin      string
	createConcurrency int
)

func init() {
	addCreateFlags(createCmd)
	rootCmd.AddCommand(createCmd)
}

// addCreateFlags registers the create flags on cmd. The root command carries
// them too because it runs create when no subcommand is given.
func addCreateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&createOrigin, "origin", "", "Base URL of the template store (default from config)")
	cmd.Flags().IntVar(&createConcurrency, "concurrency", 0, "Maximum number of scaffolding steps run at once (default from config)")
}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Scaffold a Flutter plugin backed by a Rust crate",
	Long: heredoc.Doc(`
		Create a Flutter FFI plugin in the current directory and prepare it for
		flutter_rust_bridge.

		The command runs flutter create, initializes a git repository with the
		cargokit build scripts merged in as a subtree, creates the Rust crate and
		fetches platform build files from the template store. When name is
		omitted it is read from the terminal.

		Examples:
		  frbtool create hello_dart
		  frbtool create hello_dart --concurrency 8
		  frbtool create --origin https://example.com/templates`),
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	config.Load()
	settings, err := config.Current()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if createOrigin != "" {
		settings.TemplateOrigin = strings.TrimRight(createOrigin, "/")
	}
	if cmd.Flags().Changed("concurrency") {
		if createConcurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1, got %d", createConcurrency)
		}
		settings.Concurrency = createConcurrency
	}

	name, err := pluginName(cmd, args)
	if err != nil {
		return err
	}

	parent, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	log := logging.New(cmd.ErrOrStderr(), logging.WithColor(!noColor))
	o := &orchestrator.Orchestrator{
		Runner: &toolchain.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()},
		Fetcher: fetcher.New(
			fetcher.WithOrigin(settings.TemplateOrigin),
			fetcher.WithTimeout(settings.HTTPTimeout),
			fetcher.WithLogger(log),
		),
		Parent:   parent,
		Settings: settings,
		Log:      log,
	}

	report, runErr := o.Run(cmd.Context(), name)
	printReport(cmd.OutOrStdout(), report, !noColor)
	return runErr
}

func pluginName(cmd *cobra.Command, args []string) (project.Name, error) {
	if len(args) == 1 {
		return project.ParseName(args[0])
	}
	name, err := prompt.Ask(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading plugin name: %w", err)
	}
	return name, nil
}
