package app

import (
	"github.com/spf13/cobra"

	"github.com/open-dsc/dsc/pkg/dsclib/configure"
)

// runDocumentOp loads the document, builds the shared discovery index and
// invoker, constructs a Configurator, binds parameters, runs op against it,
// and prints the aggregated result as JSON.
func runDocumentOp(cmd *cobra.Command, documentPath string, rawParameters []string, op func(*configure.Configurator) (*configure.ConfigurationResult, error)) error {
	text, err := readDocument(documentPath)
	if err != nil {
		return err
	}

	idx, err := buildIndex()
	if err != nil {
		return err
	}

	c, err := configure.New(text, configure.Options{
		Index:   idx,
		Invoker: buildInvoker(),
	})
	if err != nil {
		return err
	}

	params, err := parseParameterFlags(rawParameters)
	if err != nil {
		return err
	}
	if err := c.SetContext(cmd.Context(), params); err != nil {
		return err
	}

	result, err := op(c)
	if err != nil {
		return err
	}
	return printJSON(result)
}
