package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frbtool/frbtool/internal/config"
	"github.com/frbtool/frbtool/internal/doctor"
	"github.com/frbtool/frbtool/internal/toolchain"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that flutter, git and cargo are installed",
	Long:  `Verify that the external tools a create run invokes are on PATH and recent enough.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		results := doctor.Check(cmd.Context(), &toolchain.ExecRunner{}, doctor.Requirements)
		failing := doctor.Print(out, results)

		config.Load()
		fmt.Fprintln(out, "\nConfiguration:")
		if settings, err := config.Current(); err != nil {
			failing++
			fmt.Fprintf(out, "  [FAIL] %s: %v\n", config.FilePath(), err)
		} else {
			fmt.Fprintf(out, "  [ OK ] %s\n", config.FilePath())
			fmt.Fprintf(out, "         template origin %s\n", settings.TemplateOrigin)
		}

		if failing > 0 {
			return fmt.Errorf("%d check(s) failed", failing)
		}
		return nil
	},
}
