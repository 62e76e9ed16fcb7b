package app

import (
	"github.com/spf13/cobra"

	"github.com/open-dsc/dsc/pkg/dsclib/configure"
)

var setDocumentPath string
var setParameters []string
var setWhatIf bool
var setSkipTest bool

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Enforce a configuration document, bringing every resource to its desired state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDocumentOp(cmd, setDocumentPath, setParameters, func(c *configure.Configurator) (*configure.ConfigurationResult, error) {
			return c.Set(cmd.Context(), setWhatIf, setSkipTest)
		})
	},
}

func init() {
	setCmd.Flags().StringVarP(&setDocumentPath, "document", "d", "-", "path to the configuration document (- for stdin)")
	setCmd.Flags().StringArrayVarP(&setParameters, "parameter", "p", nil, "parameter in key=value form, repeatable")
	setCmd.Flags().BoolVar(&setWhatIf, "what-if", false, "report the changes set would make without applying them")
	setCmd.Flags().BoolVar(&setSkipTest, "skip-test", false, "skip the pre-set test pass and always invoke set")
}

func newSetCmd() *cobra.Command {
	return setCmd
}
