package commands

import (
	"github.com/spf13/cobra"

	"github.com/crosschain/headersync/config"
	hsos "github.com/crosschain/headersync/libs/os"
)

// MakeInitCommand returns the command that writes a config file into the
// home directory.
func MakeInitCommand(conf *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initializes a headersync home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd, conf)
			if err != nil {
				return err
			}
			if err := config.EnsureRoot(conf.RootDir); err != nil {
				return err
			}

			path := conf.ConfigFile()
			if hsos.FileExists(path) && !force {
				logger.Info("Found config file", "path", path)
				return nil
			}
			if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
				return err
			}
			logger.Info("Generated config file", "path", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
