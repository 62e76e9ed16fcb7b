package app

import (
	"github.com/spf13/cobra"

	"github.com/open-dsc/dsc/pkg/dsclib/configure"
)

var testDocumentPath string
var testParameters []string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Compare actual state against desired state for every resource in a configuration document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDocumentOp(cmd, testDocumentPath, testParameters, func(c *configure.Configurator) (*configure.ConfigurationResult, error) {
			return c.Test(cmd.Context())
		})
	},
}

func init() {
	testCmd.Flags().StringVarP(&testDocumentPath, "document", "d", "-", "path to the configuration document (- for stdin)")
	testCmd.Flags().StringArrayVarP(&testParameters, "parameter", "p", nil, "parameter in key=value form, repeatable")
}

func newTestCmd() *cobra.Command {
	return testCmd
}
