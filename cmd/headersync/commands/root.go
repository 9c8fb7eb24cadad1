package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crosschain/headersync/config"
)

// ParseConfig retrieves the default environment configuration,
// sets up the headersync root and ensures that the root exists
func ParseConfig(conf *config.Config) (*config.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}

	conf.SetRoot(conf.RootDir)

	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// RootCommand constructs the root command-line entry point for headersync.
// Flags and config files are loaded into viper by cli.PrepareBaseCmd before
// the persistent pre-run parses them into conf.
func RootCommand(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "headersync",
		Short: "Verify and store the block headers of remote VBFT chains",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == VersionCmd.Name() {
				return nil
			}

			pconf, err := ParseConfig(conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			return config.EnsureRoot(conf.RootDir)
		},
	}
	cmd.PersistentFlags().String("log_level", conf.LogLevel, "log level")
	cmd.PersistentFlags().String("log_format", conf.LogFormat, "log format (plain or json)")
	cmd.PersistentFlags().String("db_backend", conf.DBBackend, "database backend (goleveldb or memdb)")
	return cmd
}
