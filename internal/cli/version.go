package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/frbtool/frbtool/internal/branding"
	"github.com/frbtool/frbtool/internal/config"
)

var versionJSON bool

// versionInfo is the build stamp plus the template store and cargokit
// revision a create run would pull from.
type versionInfo struct {
	Version         string `json:"version"`
	Commit          string `json:"commit"`
	Built           string `json:"built"`
	TemplateOrigin  string `json:"template_origin"`
	FlutterTemplate string `json:"flutter_template"`
	Cargokit        string `json:"cargokit"`
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build and template sources as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and template source information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		settings, err := config.Current()
		if err != nil {
			return err
		}
		info := newVersionInfo(settings)

		if versionJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(info); err != nil {
				return fmt.Errorf("encoding version info: %w", err)
			}
			return nil
		}
		info.print(cmd.OutOrStdout())
		return nil
	},
}

func newVersionInfo(s config.Settings) versionInfo {
	return versionInfo{
		Version:         buildVersion,
		Commit:          buildCommit,
		Built:           buildDate,
		TemplateOrigin:  s.TemplateOrigin,
		FlutterTemplate: s.FlutterTemplate,
		Cargokit:        s.CargokitRepo + "@" + s.CargokitBranch,
	}
}

func (v versionInfo) print(w io.Writer) {
	fmt.Fprintf(w, "%s %s (%s, %s)\n", branding.CLIName(), v.Version, v.Commit, v.Built)
	fmt.Fprintf(w, "  templates: %s\n", v.TemplateOrigin)
	fmt.Fprintf(w, "  flutter:   --template=%s\n", v.FlutterTemplate)
	fmt.Fprintf(w, "  cargokit:  %s\n", v.Cargokit)
}
