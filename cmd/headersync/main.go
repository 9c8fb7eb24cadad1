package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/crosschain/headersync/cmd/headersync/commands"
	"github.com/crosschain/headersync/config"
	"github.com/crosschain/headersync/libs/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	conf := config.DefaultConfig()

	rootCmd := commands.RootCommand(conf)
	rootCmd.AddCommand(
		commands.MakeInitCommand(conf),
		commands.MakeSyncGenesisCommand(conf),
		commands.MakeSyncCommand(conf),
		commands.MakeVerifyCommand(conf),
		commands.MakeRelayCommand(conf),
		commands.MakeHeaderCommand(conf),
		commands.MakeHeightCommand(conf),
		commands.MakeEpochsCommand(conf),
		commands.VersionCmd,
	)

	cmd := cli.PrepareBaseCmd(rootCmd, "HSYNC", os.ExpandEnv(filepath.Join("$HOME", config.DefaultHeaderSyncDir)))
	err := cli.RunWithTrace(ctx, cmd)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
