package app

import (
	"github.com/spf13/cobra"

	"github.com/open-dsc/dsc/pkg/dsclib/configure"
)

var getDocumentPath string
var getParameters []string

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Retrieve the actual state of every resource in a configuration document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDocumentOp(cmd, getDocumentPath, getParameters, func(c *configure.Configurator) (*configure.ConfigurationResult, error) {
			return c.Get(cmd.Context())
		})
	},
}

func init() {
	getCmd.Flags().StringVarP(&getDocumentPath, "document", "d", "-", "path to the configuration document (- for stdin)")
	getCmd.Flags().StringArrayVarP(&getParameters, "parameter", "p", nil, "parameter in key=value form, repeatable")
}

func newGetCmd() *cobra.Command {
	return getCmd
}
