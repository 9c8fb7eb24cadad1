package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosschain/headersync/config"
	"github.com/crosschain/headersync/types"
)

// MakeHeaderCommand returns the command that prints a stored header as JSON.
func MakeHeaderCommand(conf *config.Config) *cobra.Command {
	var (
		chainID uint64
		height  uint32
		hash    string
	)

	cmd := &cobra.Command{
		Use:   "header",
		Short: "Show a stored header by height or hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			byHeight := cmd.Flags().Changed("height")
			if byHeight == (hash != "") {
				return errors.New("exactly one of --height and --hash is required")
			}

			n, err := openNode(cmd, conf)
			if err != nil {
				return err
			}
			defer n.close()

			var h *types.Header
			if byHeight {
				h, err = n.client.HeaderByHeight(chainID, height)
			} else {
				var blockHash types.Hash
				if blockHash, err = types.HashFromHex(hash); err != nil {
					return err
				}
				h, err = n.client.HeaderByHash(chainID, blockHash)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "chain of the header")
	cmd.Flags().Uint32Var(&height, "height", 0, "height of the header")
	cmd.Flags().StringVar(&hash, "hash", "", "hex encoded block hash of the header")
	_ = cmd.MarkFlagRequired("chain-id")
	return cmd
}

// MakeHeightCommand returns the command that prints the last stored
// height of a chain.
func MakeHeightCommand(conf *config.Config) *cobra.Command {
	var chainID uint64

	cmd := &cobra.Command{
		Use:   "height",
		Short: "Show the height of the last header stored for a chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd, conf)
			if err != nil {
				return err
			}
			defer n.close()

			height, err := n.client.CurrentHeight(chainID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), height)
			return err
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "chain to query")
	_ = cmd.MarkFlagRequired("chain-id")
	return cmd
}

type epochInfo struct {
	KeyHeight uint32             `json:"key_height"`
	Peers     []types.PeerConfig `json:"peers"`
}

// MakeEpochsCommand returns the command that lists the consensus peer sets
// stored for a chain.
func MakeEpochsCommand(conf *config.Config) *cobra.Command {
	var chainID uint64

	cmd := &cobra.Command{
		Use:   "epochs",
		Short: "List the key heights and consensus peers of a chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd, conf)
			if err != nil {
				return err
			}
			defer n.close()

			heights, err := n.store.KeyHeights(chainID)
			if err != nil {
				return err
			}
			epochs := make([]epochInfo, 0, len(heights))
			for _, height := range heights {
				peers, err := n.store.ConsensusPeers(chainID, height)
				if err != nil {
					return err
				}
				epochs = append(epochs, epochInfo{KeyHeight: height, Peers: peers})
			}
			return printJSON(cmd.OutOrStdout(), epochs)
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "chain to query")
	_ = cmd.MarkFlagRequired("chain-id")
	return cmd
}
