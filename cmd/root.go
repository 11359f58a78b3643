package cmd

import (
	"fmt"
	"log"
	"os"

	"musewave/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "musewave",
	Short: "MuseWave generates AI music videos.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting MuseWave server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
