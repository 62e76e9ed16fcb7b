package app

import (
	"github.com/spf13/cobra"

	"github.com/open-dsc/dsc/pkg/dsclib/configure"
)

var exportDocumentPath string
var exportParameters []string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current state of every exportable resource as a configuration document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDocumentOp(cmd, exportDocumentPath, exportParameters, func(c *configure.Configurator) (*configure.ConfigurationResult, error) {
			return c.Export(cmd.Context())
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportDocumentPath, "document", "d", "-", "path to the configuration document (- for stdin)")
	exportCmd.Flags().StringArrayVarP(&exportParameters, "parameter", "p", nil, "parameter in key=value form, repeatable")
}

func newExportCmd() *cobra.Command {
	return exportCmd
}
