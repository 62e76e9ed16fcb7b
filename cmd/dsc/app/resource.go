package app

import (
	"github.com/spf13/cobra"

	"github.com/open-dsc/dsc/pkg/dsclib/manifest"
)

var resourceNamePattern string
var resourceAdaptersOnly bool

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Inspect discovered resource providers",
}

var resourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resource and adapter manifests discovered on the resource path",
	RunE: func(_ *cobra.Command, _ []string) error {
		idx, err := buildIndex()
		if err != nil {
			return err
		}
		kind := manifest.KindResource
		if resourceAdaptersOnly {
			kind = manifest.KindAdapter
		}
		return printJSON(idx.List(kind, resourceNamePattern, ""))
	},
}

func init() {
	resourceListCmd.Flags().StringVar(&resourceNamePattern, "name", "", "case-insensitive substring to filter resource type names")
	resourceListCmd.Flags().BoolVar(&resourceAdaptersOnly, "adapters", false, "list adapters instead of plain resources")
	resourceCmd.AddCommand(resourceListCmd)
}

func newResourceCmd() *cobra.Command {
	return resourceCmd
}
