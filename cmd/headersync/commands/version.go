package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosschain/headersync/version"
)

// VersionCmd ...
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		if verbose {
			return printJSON(cmd.OutOrStdout(), version.Current())
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		return err
	},
}

func init() {
	VersionCmd.Flags().BoolP("verbose", "v", false, "Show protocol versions")
}
