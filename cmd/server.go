package cmd

import (
	"log"

	"musewave/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the MuseWave HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting MuseWave server...")
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
