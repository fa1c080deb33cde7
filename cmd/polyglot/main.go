package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/polyglot/internal/cli"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()
	a := &app{flags: flags}

	rootCmd := cli.CreateRootCommand(flags, cli.Actions{
		Story:   a.runStory,
		Dub:     a.runDub,
		PDF:     a.runPDF,
		Serve:   a.runServe,
		Models:  a.runModels,
		History: a.runHistory,
		Archive: a.runArchive,
	})
	rootCmd.PersistentPreRunE = a.setup

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	a.close()
	if err != nil {
		stop()
		os.Exit(1)
	}
}
