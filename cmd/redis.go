package cmd

import (
	"log"

	"musewave/config"
	"musewave/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Verify the Redis connection",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()

		if err := db.TestRedis(); err != nil {
			log.Fatalf("Redis test failed: %v", err)
		}

		log.Println("Redis connection OK")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
