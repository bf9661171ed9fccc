package main

import (
	"fmt"

	"publication-system/config"
	"publication-system/repositories"
	"publication-system/services"

	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := config.InitDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)
			logger.Info("database migrated", "db_driver", cfg.DBDriver)
			return nil
		},
	}
}

func resetDatabaseCommand() *cobra.Command {
	var confirm string
	cmd := &cobra.Command{
		Use:   "reset-database",
		Short: "Delete every row and every uploaded file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if confirm != services.ResetConfirmation {
				return fmt.Errorf("refusing to reset: pass --confirm %s", services.ResetConfirmation)
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := config.InitDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)
			files, err := newFileManager(cfg, logger)
			if err != nil {
				return err
			}

			admin := services.NewAdminService(
				repositories.NewUserRepository(db),
				repositories.NewPublicationRepository(db),
				repositories.NewConferenceRepository(db),
				repositories.NewMaintenanceRepository(db),
				files,
				logger,
			)
			return admin.ResetDatabase(cmd.Context(), confirm)
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "must be "+services.ResetConfirmation)
	return cmd
}
