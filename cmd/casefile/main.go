package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"casefile/cmd/casefile/internal"
	"casefile/cmd/casefile/internal/gallery"
	"casefile/cmd/casefile/internal/override"
	"casefile/cmd/casefile/internal/play"
)

func NewCasefileCommand() *cobra.Command {
	globals := &internal.GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "casefile",
		Short: "Terminal client for a streamed noir detective session",
		Long: `casefile connects to a narrative game server over a websocket and renders
the case as it unfolds: narration, scene images, voice, music, sound effects,
the investigation board and the final verdict.

Settings come from CASEFILE_* environment variables, an optional .env file and
flags, later sources winning.`,
		Example:      "casefile play --player Marlow --session demo-1 --connect",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&globals.EnvFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().StringVar(&globals.LogFile, "log-file", "", "write diagnostics to this file (default: discard)")
	cmd.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(
		play.NewPlayCommand(globals),
		gallery.NewGalleryCommand(globals),
		override.NewOverrideCommand(globals),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewCasefileCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
