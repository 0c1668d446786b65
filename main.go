package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"threadfinder/config"
	"threadfinder/logger"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:     "threadfinder",
	Short:   "Finds faces in photos and names the ones it knows",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			config.DEBUG_MODE = true
			config.LOG_LEVEL = "debug"
		}
		logger.Init(config.LOG_LEVEL, config.LOG_FILE)
	},
	// No sub-command means serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", config.DEBUG_MODE, "debug mode, verbose logging")
	rootCmd.PersistentFlags().StringVar(&config.KNOWN_FACES_DIR, "known-faces", config.KNOWN_FACES_DIR, "directory with reference photos")
	rootCmd.PersistentFlags().StringVar(&config.FACE_ENGINE, "engine", config.FACE_ENGINE, "face engine: python or dlib")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
