package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosschain/headersync/config"
)

// MakeSyncGenesisCommand returns the command that bootstraps the store with
// a trusted genesis header.
func MakeSyncGenesisCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-genesis [hex-file]",
		Short: "Store a trusted genesis header",
		Long: `Store a trusted genesis header read as hex from hex-file or stdin.
Its book keepers become the first consensus peer set of its chain.
A store accepts exactly one genesis header.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHeader(cmd, args)
			if err != nil {
				return err
			}
			n, err := openNode(cmd, conf)
			if err != nil {
				return err
			}
			defer n.close()

			if err := n.client.SyncGenesisHeader(h); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "genesis header %v of chain %d stored at height %d\n",
				h.BlockHash, h.ChainID, h.Height)
			return err
		},
	}
}

// MakeSyncCommand returns the command that verifies and stores one block
// header.
func MakeSyncCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [hex-file]",
		Short: "Verify and store a block header",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHeader(cmd, args)
			if err != nil {
				return err
			}
			n, err := openNode(cmd, conf)
			if err != nil {
				return err
			}
			defer n.close()

			if err := n.client.SyncBlockHeader(h); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "header %v of chain %d synced at height %d\n",
				h.BlockHash, h.ChainID, h.Height)
			return err
		},
	}
}

// MakeVerifyCommand returns the command that checks a header against the
// stored peer sets without storing it.
func MakeVerifyCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [hex-file]",
		Short: "Verify a block header without storing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHeader(cmd, args)
			if err != nil {
				return err
			}
			n, err := openNode(cmd, conf)
			if err != nil {
				return err
			}
			defer n.close()

			if err := n.client.VerifyHeader(h); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "header %v of chain %d at height %d is valid\n",
				h.BlockHash, h.ChainID, h.Height)
			return err
		},
	}
}
