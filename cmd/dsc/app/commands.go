// Package app provides the entry point for the dsc command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/open-dsc/dsc/pkg/dsclib/logger"
)

// NewRootCmd creates the root dsc command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "dsc",
		DisableAutoGenTag: true,
		Short:             "dsc applies declarative configuration documents against discovered resource providers",
		Long: `dsc discovers resource providers on disk, resolves a configuration
document's resource graph in dependency order, and invokes each provider's
get/set/test/export operation, aggregating the results.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("settings", "", "path to the settings file (default: none)")
	if err := viper.BindPFlag("settings", rootCmd.PersistentFlags().Lookup("settings")); err != nil {
		logger.Errorf("error binding settings flag: %v", err)
	}

	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newResourceCmd())

	return rootCmd
}
