package cmd

import (
	"context"
	"log"

	"musewave/config"
	"musewave/storage"

	"github.com/spf13/cobra"
)

var storagePrefix string

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "List published artifacts in object storage",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		if err := storage.ListArtifacts(context.Background(), cfg, storagePrefix); err != nil {
			log.Fatalf("Failed to list artifacts: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(storageCmd)

	storageCmd.Flags().StringVarP(&storagePrefix, "prefix", "p", "", "filter artifacts by key prefix, e.g. audio/ or video/")

	storageCmd.Example = `  # List all artifacts
  musewave storage

  # Only published audio
  musewave storage -p "audio/"

  # Only published video
  musewave storage -p "video/"`
}
