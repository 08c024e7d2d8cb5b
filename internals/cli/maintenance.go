package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	database "crowdfund_backend/internals/databases"
	"crowdfund_backend/internals/features/donations/donations/scheduler"
	"crowdfund_backend/internals/seeds"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables for users, campaigns, donations and gateway events",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.ConnectDB()
			defer database.Close()
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Println("[INFO] migration finished")
			return nil
		},
	}
}

var seedDir string

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.ConnectDB()
			defer database.Close()
			return seeds.RunAllSeeds(db, seedDir)
		},
	}
	cmd.Flags().StringVar(&seedDir, "dir", "internals/seeds", "directory holding the seed JSON files")
	return cmd
}

func repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Replay pending webhook events and recompute campaign totals once",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.ConnectDB()
			defer database.Close()

			svc, err := newDonationService(db, false)
			if err != nil {
				return err
			}
			scheduler.RunOnce(cmd.Context(), svc)
			return nil
		},
	}
}
