package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/frbtool/frbtool/internal/branding"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " [name]",
	Short: branding.Description(),
	Long: heredoc.Docf(`
		%s creates a Flutter FFI plugin whose native side is a Rust crate
		wired up for flutter_rust_bridge.

		Run without a subcommand it behaves like "create".`, branding.DisplayName()),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCreate,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	addCreateFlags(rootCmd)
}

// Execute runs the root command with build info injected via ldflags.
// Interrupts cancel the running command's context.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
