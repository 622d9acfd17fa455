package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/inamate/diagram-go/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "dgm",
	Short: "dgm works with diagram documents offline",
	Long:  `dgm renders stored documents, replays scripted editing sessions and issues session tokens for the diagram server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		slog.SetDefault(logging.New(logging.ParseLevel(level), "text"))
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}
