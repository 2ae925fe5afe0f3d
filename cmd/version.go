package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/eventemitter/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		kind := "development build"
		if build.IsRelease() {
			kind = "release"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "eventemitter %s [%s]\n", build.String(), kind)
	},
}
