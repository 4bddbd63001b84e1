package commands

import (
	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/cmd/kittentts/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputResult(build.Get())
	},
}
